package worker

import (
	"context"
	"encoding/json"

	"techstore/internal/broker"
	"techstore/internal/models"
	"techstore/internal/service"
	"techstore/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// NotificationWorker consumes order-confirmed events and sends the
// confirmation email for each one.
type NotificationWorker struct {
	consumer      *broker.Consumer
	notifications *service.NotificationService
	logger        *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(
	consumer *broker.Consumer,
	notifications *service.NotificationService,
) *NotificationWorker {
	return &NotificationWorker{
		consumer:      consumer,
		notifications: notifications,
		logger:        util.GetLogger(),
	}
}

// Start starts the notification worker
func (nw *NotificationWorker) Start(ctx context.Context) error {
	nw.logger.Info("Starting notification worker")

	return nw.consumer.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		var baseEvent models.BaseEvent
		if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
			nw.logger.Error("Failed to unmarshal event", zap.Error(err))
			util.NotificationsFailedTotal.Inc()
			return err
		}

		if baseEvent.EventType != models.EventTypeOrderConfirmed {
			return nil
		}

		var event models.OrderConfirmedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			nw.logger.Error("Failed to unmarshal OrderConfirmed event", zap.Error(err))
			util.NotificationsFailedTotal.Inc()
			return err
		}

		if err := nw.notifications.SendOrderConfirmation(ctx, &event); err != nil {
			nw.logger.Error("Failed to send confirmation",
				zap.String("order_number", event.OrderNumber), zap.Error(err))
			util.NotificationsFailedTotal.Inc()
			return err
		}

		return nil
	})
}

// Stop stops the notification worker
func (nw *NotificationWorker) Stop() error {
	nw.logger.Info("Stopping notification worker")
	return nw.consumer.Close()
}
