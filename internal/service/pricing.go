package service

import (
	"math"

	"techstore/internal/models"
)

// ShippingConfig holds the free-shipping threshold and the flat fee charged
// below it.
type ShippingConfig struct {
	Threshold float64
	Fee       float64
}

// ComputeTotals computes subtotal, shipping, discount and total for a cart
// and an optional coupon. Pure and deterministic; values are accumulated at
// full precision and rounded only at presentation time.
func ComputeTotals(cart []models.CartItem, coupon *models.Coupon, shipping ShippingConfig) models.Totals {
	var subtotal float64
	for _, item := range cart {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	fee := shipping.Fee
	if subtotal > shipping.Threshold {
		fee = 0
	}

	var discount float64
	if coupon != nil {
		switch coupon.DiscountType {
		case models.DiscountPercentage:
			discount = subtotal * coupon.DiscountValue / 100
		case models.DiscountFixed:
			discount = coupon.DiscountValue
		}
		if discount < 0 {
			discount = 0
		}
		if discount > subtotal {
			discount = subtotal
		}
	}

	total := subtotal + fee - discount
	if total < 0 {
		total = 0
	}

	return models.Totals{
		Subtotal: subtotal,
		Shipping: fee,
		Discount: discount,
		Total:    total,
	}
}

// RoundTotals rounds every amount to cents for presentation.
func RoundTotals(t models.Totals) models.Totals {
	return models.Totals{
		Subtotal: roundCents(t.Subtotal),
		Shipping: roundCents(t.Shipping),
		Discount: roundCents(t.Discount),
		Total:    roundCents(t.Total),
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
