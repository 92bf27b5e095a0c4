package service

import (
	"time"

	"techstore/internal/models"
)

// ValidateCoupon applies the coupon business rules to an already-looked-up
// coupon. First failure wins: a nil coupon is an unknown code, then the
// active flag, then expiration (valid through the end of the expiration
// calendar day, UTC), then the usage cap.
//
// The empty-cart and already-applied checks happen before lookup, in
// ApplyCoupon, matching the order the storefront enforced them.
func ValidateCoupon(coupon *models.Coupon, now time.Time) error {
	if coupon == nil {
		return models.ErrCouponInvalidCode
	}
	if !coupon.Active {
		return models.ErrCouponInactive
	}
	if coupon.Expired(now) {
		return models.ErrCouponExpired
	}
	if coupon.UsageCurrent >= coupon.UsageMax {
		return models.ErrCouponUsageLimit
	}
	return nil
}
