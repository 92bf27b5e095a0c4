package service

import (
	"context"
	"testing"

	"techstore/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedEvent() *models.OrderConfirmedEvent {
	return &models.OrderConfirmedEvent{
		OrderNumber:   "TS-2026-03-845621-347",
		CustomerName:  "Ana García",
		CustomerEmail: "ana@example.com",
		PaymentMethod: models.PaymentCreditCard,
		Items: []models.OrderLine{
			{ProductID: 1, Name: "Laptop Pro", Quantity: 2, UnitPrice: 1200},
		},
		Subtotal: 2400,
		Discount: 240,
		Shipping: 0,
		Total:    2160,
	}
}

func TestRenderConfirmationFreeShipping(t *testing.T) {
	event := confirmedEvent()
	event.CouponCode = "WELCOME10"

	body := renderConfirmation(event)

	assert.Contains(t, body, "Hi Ana García")
	assert.Contains(t, body, "TS-2026-03-845621-347")
	assert.Contains(t, body, "2x Laptop Pro  $2400.00")
	assert.Contains(t, body, "Discount (WELCOME10): -$240.00")
	assert.Contains(t, body, "Shipping: Free")
	assert.Contains(t, body, "Total: $2160.00")
	assert.Contains(t, body, "Payment method: Credit Card")
}

func TestRenderConfirmationPaidShippingNoCoupon(t *testing.T) {
	event := confirmedEvent()
	event.Subtotal = 25.5
	event.Discount = 0
	event.Shipping = 10
	event.Total = 35.5

	body := renderConfirmation(event)

	assert.Contains(t, body, "Shipping: $10.00")
	assert.NotContains(t, body, "Discount")
}

func TestSendOrderConfirmationWithoutPublisher(t *testing.T) {
	ns := NewNotificationService(nil)

	err := ns.SendOrderConfirmation(context.Background(), confirmedEvent())
	require.NoError(t, err)
}
