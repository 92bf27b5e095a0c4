package service

import (
	"testing"
	"time"

	"techstore/internal/models"

	"github.com/stretchr/testify/assert"
)

func validCoupon() *models.Coupon {
	return &models.Coupon{
		Code:           "WELCOME10",
		DiscountType:   models.DiscountPercentage,
		DiscountValue:  10,
		Active:         true,
		ExpirationDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		UsageMax:       100,
		UsageCurrent:   5,
	}
}

func TestValidateCoupon(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, ValidateCoupon(validCoupon(), now))
	})

	t.Run("unknown code", func(t *testing.T) {
		err := ValidateCoupon(nil, now)
		assert.ErrorIs(t, err, models.ErrCouponInvalidCode)
	})

	t.Run("inactive", func(t *testing.T) {
		c := validCoupon()
		c.Active = false
		assert.ErrorIs(t, ValidateCoupon(c, now), models.ErrCouponInactive)
	})

	t.Run("expired despite active flag", func(t *testing.T) {
		c := validCoupon()
		c.ExpirationDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateCoupon(c, now), models.ErrCouponExpired)
	})

	t.Run("usage cap reached", func(t *testing.T) {
		c := validCoupon()
		c.UsageCurrent = c.UsageMax
		assert.ErrorIs(t, ValidateCoupon(c, now), models.ErrCouponUsageLimit)
	})

	t.Run("inactive wins over expired", func(t *testing.T) {
		c := validCoupon()
		c.Active = false
		c.ExpirationDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.ErrorIs(t, ValidateCoupon(c, now), models.ErrCouponInactive)
	})
}

func TestCouponValidThroughEndOfExpirationDay(t *testing.T) {
	c := validCoupon()
	c.ExpirationDate = time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	lastMoment := time.Date(2026, 6, 15, 23, 59, 59, 0, time.UTC)
	assert.NoError(t, ValidateCoupon(c, lastMoment))

	midnightAfter := time.Date(2026, 6, 16, 0, 0, 0, 0, time.UTC)
	assert.ErrorIs(t, ValidateCoupon(c, midnightAfter), models.ErrCouponExpired)
}
