package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"techstore/internal/broker"
	"techstore/internal/models"
	"techstore/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService sends order confirmation emails (mocked: the rendered
// message is logged instead of handed to an SMTP provider).
type NotificationService struct {
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(eventPublisher *broker.EventPublisher) *NotificationService {
	return &NotificationService{
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// SendOrderConfirmation renders and sends the confirmation email for a
// confirmed order.
func (ns *NotificationService) SendOrderConfirmation(ctx context.Context, event *models.OrderConfirmedEvent) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.SendOrderConfirmation")
	defer span.End()

	body := renderConfirmation(event)

	ns.logger.Info("Sending order confirmation email",
		zap.String("order_number", event.OrderNumber),
		zap.String("recipient", event.CustomerEmail),
		zap.Int("body_bytes", len(body)))
	ns.logger.Debug("Confirmation email body", zap.String("body", body))

	util.NotificationsSentTotal.Inc()

	sent := &models.NotificationSentEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeNotificationSent,
			Timestamp: time.Now(),
		},
		OrderNumber: event.OrderNumber,
		Recipient:   event.CustomerEmail,
	}

	if ns.eventPublisher != nil {
		if err := ns.eventPublisher.PublishNotificationSent(ctx, sent); err != nil {
			ns.logger.Error("Failed to publish NotificationSent event", zap.Error(err))
		}
	}

	return nil
}

// renderConfirmation builds the plain-text order summary for the email.
func renderConfirmation(event *models.OrderConfirmedEvent) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", event.CustomerName)
	fmt.Fprintf(&b, "Thanks for your order %s.\n\n", event.OrderNumber)

	for _, item := range event.Items {
		fmt.Fprintf(&b, "  %dx %s  $%.2f\n", item.Quantity, item.Name, item.UnitPrice*float64(item.Quantity))
	}

	fmt.Fprintf(&b, "\nSubtotal: $%.2f\n", event.Subtotal)
	if event.CouponCode != "" {
		fmt.Fprintf(&b, "Discount (%s): -$%.2f\n", event.CouponCode, event.Discount)
	}
	if event.Shipping == 0 {
		b.WriteString("Shipping: Free\n")
	} else {
		fmt.Fprintf(&b, "Shipping: $%.2f\n", event.Shipping)
	}
	fmt.Fprintf(&b, "Total: $%.2f\n\n", event.Total)

	if label, ok := models.PaymentMethodLabel[event.PaymentMethod]; ok {
		fmt.Fprintf(&b, "Payment method: %s\n", label)
	}

	return b.String()
}
