package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"techstore/internal/broker"
	"techstore/internal/models"
	"techstore/internal/session"
	"techstore/internal/store"
	"techstore/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Checkout stages, used for metrics labels and failure reporting.
const (
	StageValidating = "validating"
	StageReceipt    = "receipt"
	StageCoupon     = "coupon"
	StagePersist    = "persist"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ConfirmationPublisher publishes the order-confirmed event that drives the
// notification worker.
type ConfirmationPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
}

var _ ConfirmationPublisher = (*broker.EventPublisher)(nil)

// CheckoutService orchestrates the checkout commit: customer validation,
// coupon re-validation, pricing, order numbering, persistence, stock
// adjustment, session cleanup and the confirmation event.
type CheckoutService struct {
	store     *store.Store
	sessions  session.Store
	publisher ConfirmationPublisher
	numbers   *OrderNumberGenerator
	shipping  ShippingConfig

	// When true, a sales-store write failure aborts the checkout. When
	// false the legacy optimistic behavior applies: the failure is logged
	// and the user still sees success.
	requireDurableOrder bool

	logger *zap.Logger
	now    func() time.Time
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	st *store.Store,
	sessions session.Store,
	publisher ConfirmationPublisher,
	numbers *OrderNumberGenerator,
	shipping ShippingConfig,
	requireDurableOrder bool,
) *CheckoutService {
	return &CheckoutService{
		store:               st,
		sessions:            sessions,
		publisher:           publisher,
		numbers:             numbers,
		shipping:            shipping,
		requireDurableOrder: requireDurableOrder,
		logger:              util.GetLogger(),
		now:                 time.Now,
	}
}

// CheckoutRequest carries the customer-entered checkout form.
type CheckoutRequest struct {
	Customer      models.Customer `json:"customer"`
	PaymentMethod string          `json:"payment_method"`
	Receipt       *models.Receipt `json:"receipt,omitempty"`
}

// CheckoutResponse is returned after a successful commit.
type CheckoutResponse struct {
	Order            *models.Order `json:"order"`
	NotificationSent bool          `json:"notification_sent"`
}

// CheckoutError wraps a stage-tagged checkout failure.
type CheckoutError struct {
	Stage string
	Err   error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout failed at %s: %v", e.Stage, e.Err)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func failStage(stage string, err error) error {
	util.CheckoutsFailedTotal.WithLabelValues(stage).Inc()
	return &CheckoutError{Stage: stage, Err: err}
}

// Commit runs the checkout for a session. Stages through persistence can
// abort the attempt; stock adjustment, session cleanup and notification are
// best-effort and never reverse an already-persisted order.
func (s *CheckoutService) Commit(ctx context.Context, sessionID string, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Commit")
	defer span.End()

	util.CheckoutsStartedTotal.Inc()

	cart, err := s.sessions.GetCart(ctx, sessionID)
	if err != nil {
		return nil, failStage(StageValidating, fmt.Errorf("failed to read cart: %w", err))
	}
	if len(cart) == 0 {
		return nil, failStage(StageValidating, models.ErrEmptyCart)
	}

	if err := validateCustomer(&req.Customer); err != nil {
		return nil, failStage(StageValidating, err)
	}
	if _, ok := models.PaymentMethodLabel[req.PaymentMethod]; !ok {
		return nil, failStage(StageValidating, &models.ValidationError{
			Field: "payment_method", Reason: "unknown payment method",
		})
	}

	if req.PaymentMethod == models.PaymentBankTransfer {
		if err := VerifyReceipt(req.Receipt); err != nil {
			return nil, failStage(StageReceipt, err)
		}
	}

	// Re-validate the applied coupon against fresh store state so a coupon
	// that expired or hit its cap between cart view and checkout is caught.
	coupon, err := s.revalidateCoupon(ctx, sessionID)
	if err != nil {
		return nil, failStage(StageCoupon, err)
	}

	totals := ComputeTotals(cart, coupon, s.shipping)

	orderNumber := s.numbers.Generate(ctx, s.now(), s.store.SaleNumberExists)

	attribution, err := s.sessions.GetAttribution(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Failed to read attribution, order will carry none",
			zap.String("session_id", sessionID), zap.Error(err))
		attribution = nil
	}

	order := buildOrder(orderNumber, req, cart, coupon, attribution, RoundTotals(totals), s.now())

	if err := s.store.AppendSale(ctx, order); err != nil {
		if s.requireDurableOrder {
			return nil, failStage(StagePersist, fmt.Errorf("failed to persist order: %w", err))
		}
		s.logger.Error("Failed to persist order, continuing optimistically",
			zap.String("order_number", orderNumber), zap.Error(err))
	} else {
		util.OrdersPersistedTotal.Inc()
	}

	if coupon != nil {
		if err := s.store.IncrementCouponUsage(ctx, coupon.Code); err != nil {
			s.logger.Error("Failed to record coupon usage",
				zap.String("code", coupon.Code), zap.Error(err))
		}
	}

	s.adjustStock(ctx, order)

	if err := s.sessions.ClearCart(ctx, sessionID); err != nil {
		s.logger.Error("Failed to clear cart after checkout",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	if err := s.sessions.RemoveAppliedCoupon(ctx, sessionID); err != nil {
		s.logger.Error("Failed to clear applied coupon after checkout",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	notified := s.publishConfirmation(ctx, order)

	util.CheckoutsCompletedTotal.Inc()
	s.logger.Info("Checkout completed",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total),
		zap.Bool("notification_sent", notified))

	return &CheckoutResponse{Order: order, NotificationSent: notified}, nil
}

func (s *CheckoutService) revalidateCoupon(ctx context.Context, sessionID string) (*models.Coupon, error) {
	applied, err := s.sessions.GetAppliedCoupon(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied coupon: %w", err)
	}
	if applied == nil {
		return nil, nil
	}

	fresh, err := s.store.GetCouponByCode(ctx, applied.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}
	if err := ValidateCoupon(fresh, s.now()); err != nil {
		util.CouponRejectionsTotal.WithLabelValues(couponReason(err)).Inc()
		return nil, err
	}
	return fresh, nil
}

func (s *CheckoutService) adjustStock(ctx context.Context, order *models.Order) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.adjustStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockDecrementLatency.Observe(time.Since(start).Seconds())
	}()

	if err := s.store.DecrementStock(ctx, order.Items); err != nil {
		s.logger.Error("Failed to adjust stock after checkout",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
	}
}

func (s *CheckoutService) publishConfirmation(ctx context.Context, order *models.Order) bool {
	event := &models.OrderConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderConfirmed,
			Timestamp: s.now(),
		},
		OrderNumber:   order.OrderNumber,
		CustomerName:  order.Customer.FullName(),
		CustomerEmail: order.Customer.Email,
		PaymentMethod: order.PaymentMethod,
		Items:         order.Items,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		Shipping:      order.Shipping,
		Total:         order.Total,
	}
	if order.Coupon != nil {
		event.CouponCode = order.Coupon.Code
	}

	if err := s.publisher.PublishOrderConfirmed(ctx, event); err != nil {
		util.NotificationsFailedTotal.Inc()
		s.logger.Error("Failed to publish order confirmation",
			zap.String("order_number", order.OrderNumber), zap.Error(err))
		return false
	}
	return true
}

func buildOrder(
	orderNumber string,
	req *CheckoutRequest,
	cart []models.CartItem,
	coupon *models.Coupon,
	attribution *models.Attribution,
	totals models.Totals,
	now time.Time,
) *models.Order {
	items := make([]models.OrderLine, len(cart))
	for i, item := range cart {
		items[i] = models.OrderLine{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Category:  item.Category,
		}
	}

	var couponSnapshot *models.Coupon
	if coupon != nil {
		clone := *coupon
		couponSnapshot = &clone
	}

	return &models.Order{
		OrderNumber:   orderNumber,
		Customer:      req.Customer,
		PaymentMethod: req.PaymentMethod,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		Coupon:        couponSnapshot,
		Attribution:   attribution,
		CreatedAt:     now,
	}
}

func validateCustomer(c *models.Customer) error {
	required := []struct {
		field string
		value string
	}{
		{"first_name", c.FirstName},
		{"last_name", c.LastName},
		{"email", c.Email},
		{"phone", c.Phone},
		{"address.street", c.Address.Street},
		{"address.city", c.Address.City},
		{"address.postal_code", c.Address.PostalCode},
		{"address.country", c.Address.Country},
	}

	for _, f := range required {
		if f.value == "" {
			return &models.ValidationError{Field: f.field, Reason: "required"}
		}
	}

	if !emailPattern.MatchString(c.Email) {
		return &models.ValidationError{Field: "email", Reason: "malformed email address"}
	}
	return nil
}
