package models

import "time"

// Event types
const (
	EventTypeOrderConfirmed   = "ORDER_CONFIRMED"
	EventTypeNotificationSent = "NOTIFICATION_SENT"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderConfirmedEvent is published after a checkout commits. The notification
// worker consumes it to send the confirmation email.
type OrderConfirmedEvent struct {
	BaseEvent
	OrderNumber   string      `json:"order_number"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderLine `json:"items"`
	Subtotal      float64     `json:"subtotal"`
	Discount      float64     `json:"discount"`
	Shipping      float64     `json:"shipping"`
	Total         float64     `json:"total"`
	CouponCode    string      `json:"coupon_code,omitempty"`
}

// NotificationSentEvent is published by the notification worker after the
// confirmation email goes out.
type NotificationSentEvent struct {
	BaseEvent
	OrderNumber string `json:"order_number"`
	Recipient   string `json:"recipient"`
}
