package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"techstore/internal/models"
	"techstore/internal/session"
	"techstore/internal/store"
	"techstore/internal/util"

	"go.uber.org/zap"
)

// CartService manages session-scoped cart state: line items, the applied
// coupon, and the running totals quote.
type CartService struct {
	store    *store.Store
	sessions session.Store
	shipping ShippingConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService creates a new cart service.
func NewCartService(st *store.Store, sessions session.Store, shipping ShippingConfig) *CartService {
	return &CartService{
		store:    st,
		sessions: sessions,
		shipping: shipping,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// CartView is the cart together with its current quote.
type CartView struct {
	Items  []models.CartItem `json:"items"`
	Coupon *models.Coupon    `json:"coupon,omitempty"`
	Totals models.Totals     `json:"totals"`
}

// GetCart returns the session's cart with totals computed against the
// currently applied coupon.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	coupon, err := s.sessions.GetAppliedCoupon(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}

	totals := RoundTotals(ComputeTotals(cart, coupon, s.shipping))
	return &CartView{Items: cart, Coupon: coupon, Totals: totals}, nil
}

// AddItem adds a product to the cart, snapshotting the current unit price.
// The resulting quantity may not exceed the product's available stock.
func (s *CartService) AddItem(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, &models.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, models.ErrProductNotFound
	}

	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	found := false
	for i := range cart {
		if cart[i].ProductID == productID {
			if cart[i].Quantity+quantity > product.Stock {
				return nil, models.ErrInsufficientStock
			}
			cart[i].Quantity += quantity
			found = true
			break
		}
	}
	if !found {
		if quantity > product.Stock {
			return nil, models.ErrInsufficientStock
		}
		cart = append(cart, models.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
			Category:  product.Category,
			Brand:     product.Brand,
		})
	}

	if err := s.sessions.SaveCart(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.logger.Debug("Cart item added",
		zap.String("session_id", sessionID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity))

	return s.GetCart(ctx, sessionID)
}

// UpdateItemQuantity sets the quantity of a cart line, removing it at zero.
func (s *CartService) UpdateItemQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, error) {
	if quantity < 0 {
		return nil, &models.ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, sessionID, productID)
	}

	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, models.ErrProductNotFound
	}
	if quantity > product.Stock {
		return nil, models.ErrInsufficientStock
	}

	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Quantity = quantity
			if err := s.sessions.SaveCart(ctx, sessionID, cart); err != nil {
				return nil, fmt.Errorf("failed to save cart: %w", err)
			}
			return s.GetCart(ctx, sessionID)
		}
	}
	return nil, models.ErrProductNotFound
}

// RemoveItem deletes a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID int64) (*CartView, error) {
	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}

	filtered := cart[:0]
	for _, item := range cart {
		if item.ProductID != productID {
			filtered = append(filtered, item)
		}
	}

	if err := s.sessions.SaveCart(ctx, sessionID, filtered); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.GetCart(ctx, sessionID)
}

// Clear empties the cart and drops the applied coupon.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.ClearCart(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := s.sessions.RemoveAppliedCoupon(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to remove applied coupon: %w", err)
	}
	return nil
}

// ApplyCoupon validates a coupon code against the session's cart and, when
// valid, stores it as the session's single applied coupon. The checks run in
// the storefront's order: empty cart first, then the one-coupon rule without
// evaluating the new code, then lookup and the coupon rules.
func (s *CartService) ApplyCoupon(ctx context.Context, sessionID, code string) (*CartView, error) {
	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cart: %w", err)
	}
	if len(cart) == 0 {
		util.CouponRejectionsTotal.WithLabelValues(couponReason(models.ErrCouponEmptyCart)).Inc()
		return nil, models.ErrCouponEmptyCart
	}

	applied, err := s.sessions.GetAppliedCoupon(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}
	if applied != nil {
		util.CouponRejectionsTotal.WithLabelValues(couponReason(models.ErrCouponAlreadyApplied)).Inc()
		return nil, models.ErrCouponAlreadyApplied
	}

	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if err := ValidateCoupon(coupon, s.now()); err != nil {
		util.CouponRejectionsTotal.WithLabelValues(couponReason(err)).Inc()
		s.logger.Warn("Coupon rejected",
			zap.String("session_id", sessionID),
			zap.String("code", code),
			zap.Error(err))
		return nil, err
	}

	if err := s.sessions.SetAppliedCoupon(ctx, sessionID, coupon); err != nil {
		return nil, fmt.Errorf("failed to store applied coupon: %w", err)
	}

	util.CouponsAppliedTotal.Inc()
	s.logger.Info("Coupon applied",
		zap.String("session_id", sessionID),
		zap.String("code", coupon.Code))

	return s.GetCart(ctx, sessionID)
}

// RemoveCoupon drops the applied coupon from the session.
func (s *CartService) RemoveCoupon(ctx context.Context, sessionID string) (*CartView, error) {
	if err := s.sessions.RemoveAppliedCoupon(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("failed to remove applied coupon: %w", err)
	}
	return s.GetCart(ctx, sessionID)
}

func couponReason(err error) string {
	switch {
	case errors.Is(err, models.ErrCouponEmptyCart):
		return "empty_cart"
	case errors.Is(err, models.ErrCouponAlreadyApplied):
		return "already_applied"
	case errors.Is(err, models.ErrCouponInvalidCode):
		return "invalid_code"
	case errors.Is(err, models.ErrCouponInactive):
		return "inactive"
	case errors.Is(err, models.ErrCouponExpired):
		return "expired"
	case errors.Is(err, models.ErrCouponUsageLimit):
		return "usage_limit"
	default:
		return "other"
	}
}
