package models

import "time"

// Product represents an item in the catalog. Stock is the only field the
// checkout flow mutates.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Category    string    `json:"category"`
	Brand       string    `json:"brand,omitempty"`
	Description string    `json:"description,omitempty"`
	Featured    bool      `json:"featured,omitempty"`
	Image       string    `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// CartItem is a line item held in session state. UnitPrice is a snapshot of
// the product price at the time the item was added.
type CartItem struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category"`
	Brand     string  `json:"brand,omitempty"`
}

// Discount types
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is a discount code with activation, expiration and usage-cap
// semantics. Codes are unique case-insensitively.
type Coupon struct {
	Code           string    `json:"code"`
	DiscountType   string    `json:"discount_type"`
	DiscountValue  float64   `json:"discount_value"`
	Description    string    `json:"description,omitempty"`
	Active         bool      `json:"active"`
	ExpirationDate time.Time `json:"expiration_date"`
	UsageMax       int       `json:"usage_max"`
	UsageCurrent   int       `json:"usage_current"`
}

// Expired reports whether the coupon is past its expiration date at the
// given instant. The coupon stays valid through the end of the expiration
// calendar day, UTC.
func (c *Coupon) Expired(now time.Time) bool {
	y, m, d := c.ExpirationDate.UTC().Date()
	endOfDay := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	return !now.UTC().Before(endOfDay)
}

// Payment methods
const (
	PaymentCreditCard   = "creditCard"
	PaymentDebitCard    = "debitCard"
	PaymentPayPal       = "paypal"
	PaymentBankTransfer = "bankTransfer"
)

// PaymentMethodLabel maps a payment method to its display name.
var PaymentMethodLabel = map[string]string{
	PaymentCreditCard:   "Credit Card",
	PaymentDebitCard:    "Debit Card",
	PaymentPayPal:       "PayPal",
	PaymentBankTransfer: "Bank Transfer",
}

// Address is a customer shipping address.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Customer holds the buyer fields collected at checkout.
type Customer struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Address   Address `json:"address"`
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Receipt is an uploaded bank-transfer proof awaiting verification.
type Receipt struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Attribution is the UTM record captured from URL query parameters on first
// visit. First-touch: once captured for a session it is never overwritten.
type Attribution struct {
	Source      string    `json:"utm_source"`
	Medium      string    `json:"utm_medium"`
	Campaign    string    `json:"utm_campaign,omitempty"`
	Term        string    `json:"utm_term,omitempty"`
	Content     string    `json:"utm_content,omitempty"`
	Referrer    string    `json:"referrer,omitempty"`
	LandingPage string    `json:"landing_page"`
	CapturedAt  time.Time `json:"captured_at"`
}

// Totals is the result of the pricing computation. Values are kept at full
// precision; rounding to cents happens only at presentation time.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// OrderLine is a line item snapshot embedded in a persisted order.
type OrderLine struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Category  string  `json:"category"`
}

// Order is an immutable record of a completed checkout (a "sale"). Orders
// are only ever appended to the sales store or bulk-cleared, never mutated.
type Order struct {
	OrderNumber   string       `json:"order_number"`
	Customer      Customer     `json:"customer"`
	PaymentMethod string       `json:"payment_method"`
	Items         []OrderLine  `json:"items"`
	Subtotal      float64      `json:"subtotal"`
	Discount      float64      `json:"discount"`
	Shipping      float64      `json:"shipping"`
	Total         float64      `json:"total"`
	Coupon        *Coupon      `json:"coupon,omitempty"`
	Attribution   *Attribution `json:"attribution,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}
