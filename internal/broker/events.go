package broker

import (
	"context"

	"techstore/internal/models"
)

// EventPublisher wraps a Producer with typed publish helpers for the
// checkout domain events.
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderConfirmed publishes an order-confirmed event keyed by order
// number so per-order events stay ordered.
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderNumber, event)
}

// PublishNotificationSent publishes a notification-sent event
func (ep *EventPublisher) PublishNotificationSent(ctx context.Context, event *models.NotificationSentEvent) error {
	return ep.producer.PublishEvent(ctx, event.OrderNumber, event)
}
