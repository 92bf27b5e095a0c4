package models

import (
	"errors"
	"fmt"
)

// Coupon validation errors, in the order the validator checks them.
var (
	ErrCouponEmptyCart      = errors.New("cart is empty")
	ErrCouponAlreadyApplied = errors.New("a coupon is already applied")
	ErrCouponInvalidCode    = errors.New("invalid coupon code")
	ErrCouponInactive       = errors.New("coupon is not active")
	ErrCouponExpired        = errors.New("coupon has expired")
	ErrCouponUsageLimit     = errors.New("coupon usage limit reached")
)

// Receipt errors for the bank-transfer flow.
var (
	ErrReceiptRequired   = errors.New("bank transfer requires an uploaded receipt")
	ErrReceiptUnverified = errors.New("receipt failed verification")
)

// Stock and catalog errors.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("requested quantity exceeds available stock")
)

// ErrEmptyCart rejects a checkout attempted with no items.
var ErrEmptyCart = errors.New("cannot check out an empty cart")

// ValidationError reports the first missing or malformed customer field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}

// IsCouponError reports whether err belongs to the coupon taxonomy.
func IsCouponError(err error) bool {
	return errors.Is(err, ErrCouponEmptyCart) ||
		errors.Is(err, ErrCouponAlreadyApplied) ||
		errors.Is(err, ErrCouponInvalidCode) ||
		errors.Is(err, ErrCouponInactive) ||
		errors.Is(err, ErrCouponExpired) ||
		errors.Is(err, ErrCouponUsageLimit)
}
