package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"techstore/internal/models"
	"techstore/internal/session"
	"techstore/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	events []*models.OrderConfirmedEvent
	err    error
}

func (p *stubPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type checkoutFixture struct {
	svc       *CheckoutService
	cart      *CartService
	store     *store.Store
	sessions  session.Store
	publisher *stubPublisher
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()

	st := seedStore(t, testProducts(), testCoupons())
	sessions := session.NewMemoryStore()
	publisher := &stubPublisher{}

	svc := NewCheckoutService(
		st, sessions, publisher,
		NewOrderNumberGenerator(5),
		testShipping,
		true,
	)

	return &checkoutFixture{
		svc:       svc,
		cart:      NewCartService(st, sessions, testShipping),
		store:     st,
		sessions:  sessions,
		publisher: publisher,
	}
}

func validCheckoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		Customer: models.Customer{
			FirstName: "Ana",
			LastName:  "García",
			Email:     "ana@example.com",
			Phone:     "+34 600 000 000",
			Address: models.Address{
				Street:     "Calle Mayor 1",
				City:       "Madrid",
				PostalCode: "28001",
				Country:    "ES",
			},
		},
		PaymentMethod: models.PaymentCreditCard,
	}
}

func TestCommitHappyPath(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 2)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	resp, err := f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)

	order := resp.Order
	assert.Regexp(t, `^TS-\d{4}-\d{2}-\d{6}-\d{3}$`, order.OrderNumber)
	assert.Equal(t, 2400.0, order.Subtotal)
	assert.Equal(t, 240.0, order.Discount)
	assert.Equal(t, 0.0, order.Shipping)
	assert.Equal(t, 2160.0, order.Total)
	require.NotNil(t, order.Coupon)
	assert.Equal(t, "WELCOME10", order.Coupon.Code)

	// Persisted to the sales history.
	sales, err := f.store.GetSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, order.OrderNumber, sales[0].OrderNumber)

	// Stock decremented.
	product, err := f.store.GetProductByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	// Coupon usage recorded.
	coupon, err := f.store.GetCouponByCode(ctx, "WELCOME10")
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsageCurrent)

	// Session cleaned up.
	view, err := f.cart.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.Nil(t, view.Coupon)

	// Confirmation event published.
	assert.True(t, resp.NotificationSent)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, order.OrderNumber, f.publisher.events[0].OrderNumber)
	assert.Equal(t, "Ana García", f.publisher.events[0].CustomerName)
}

func TestCommitEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.svc.Commit(context.Background(), "s1", validCheckoutRequest())
	require.Error(t, err)

	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageValidating, checkoutErr.Stage)
}

func TestCommitValidatesCustomer(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	req := validCheckoutRequest()
	req.Customer.Email = "not-an-email"

	_, err = f.svc.Commit(ctx, "s1", req)
	require.Error(t, err)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "email", validation.Field)

	// Nothing was persisted.
	sales, err := f.store.GetSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCommitRejectsUnknownPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	req := validCheckoutRequest()
	req.PaymentMethod = "cheque"

	_, err = f.svc.Commit(ctx, "s1", req)
	require.Error(t, err)
	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, StageValidating, checkoutErr.Stage)
}

func TestCommitBankTransferRequiresReceipt(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	req := validCheckoutRequest()
	req.PaymentMethod = models.PaymentBankTransfer

	_, err = f.svc.Commit(ctx, "s1", req)
	assert.ErrorIs(t, err, models.ErrReceiptRequired)

	req.Receipt = &models.Receipt{
		FileName:    "transfer.pdf",
		ContentType: "application/pdf",
		SizeBytes:   200_000,
	}
	resp, err := f.svc.Commit(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentBankTransfer, resp.Order.PaymentMethod)
}

func TestCommitRevalidatesCouponAgainstFreshState(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 1, 1)
	require.NoError(t, err)
	_, err = f.cart.ApplyCoupon(ctx, "s1", "WELCOME10")
	require.NoError(t, err)

	// The coupon expires between apply and commit.
	f.svc.now = func() time.Time {
		return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	_, err = f.svc.Commit(ctx, "s1", validCheckoutRequest())
	assert.ErrorIs(t, err, models.ErrCouponExpired)

	sales, err := f.store.GetSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCommitCarriesFirstTouchAttribution(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	attribution := NewAttributionService(f.sessions)
	_, captured, err := attribution.Capture(ctx, "s1", &CaptureRequest{
		Source:      "newsletter",
		Medium:      "email",
		Campaign:    "spring",
		LandingPage: "/laptops",
	})
	require.NoError(t, err)
	require.True(t, captured)

	// A later capture must not overwrite the first touch.
	_, captured, err = attribution.Capture(ctx, "s1", &CaptureRequest{
		Source: "ads", Medium: "cpc",
	})
	require.NoError(t, err)
	assert.False(t, captured)

	_, err = f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	resp, err := f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)

	require.NotNil(t, resp.Order.Attribution)
	assert.Equal(t, "newsletter", resp.Order.Attribution.Source)
	assert.Equal(t, "email", resp.Order.Attribution.Medium)
}

func TestCommitWithoutAttributionStillSucceeds(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	_, err := f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	resp, err := f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)
	assert.Nil(t, resp.Order.Attribution)
}

func TestCommitStockClampedAtZero(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	// Put 5 in the cart, then shrink stock behind the session's back.
	_, err := f.cart.AddItem(ctx, "s1", 1, 5)
	require.NoError(t, err)
	_, err = f.store.UpdateProductStock(ctx, 1, 2)
	require.NoError(t, err)

	_, err = f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)

	product, err := f.store.GetProductByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
}

func TestCommitPublishFailureDoesNotFailCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.publisher.err = errors.New("broker down")

	_, err := f.cart.AddItem(ctx, "s1", 2, 1)
	require.NoError(t, err)

	resp, err := f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)
	assert.False(t, resp.NotificationSent)

	sales, err := f.store.GetSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestCommitTotalsAreRounded(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	// 3 cables at 8.50 = 25.50, below the free-shipping threshold.
	_, err := f.cart.AddItem(ctx, "s1", 2, 3)
	require.NoError(t, err)

	resp, err := f.svc.Commit(ctx, "s1", validCheckoutRequest())
	require.NoError(t, err)

	assert.Equal(t, 25.5, resp.Order.Subtotal)
	assert.Equal(t, 10.0, resp.Order.Shipping)
	assert.Equal(t, 35.5, resp.Order.Total)
}
