package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"techstore/internal/models"
	"techstore/internal/util"

	"go.uber.org/zap"
)

// Store persists catalog, coupon and sales state as flat JSON documents under
// a data directory. Each document is rewritten wholesale on mutation; every
// read-modify-write runs under the per-file mutex so concurrent checkouts
// cannot lose updates.
type Store struct {
	dataDir string
	logger  *zap.Logger

	productsMu sync.Mutex
	salesMu    sync.Mutex
	couponsMu  sync.Mutex
}

const (
	productsFile = "products.json"
	salesFile    = "sales.json"
	couponsFile  = "coupons.json"
)

// NewStore creates a store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		dataDir: dataDir,
		logger:  util.GetLogger(),
	}, nil
}

// Close is a no-op; it exists so the store satisfies the same lifecycle shape
// as other backends.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// readDocument reads a JSON document that is either a bare array or wrapped
// in an object under wrapperKey, the two shapes the legacy files use.
// A missing file yields an empty list.
func (s *Store) readDocument(name, wrapperKey string, out interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	trimmed := firstNonSpace(data)
	if trimmed == '{' {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		raw, ok := wrapper[wrapperKey]
		if !ok {
			return fmt.Errorf("%s: missing %q key", name, wrapperKey)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

// writeDocument overwrites the document, preserving the object wrapper shape
// when wrapperKey is non-empty.
func (s *Store) writeDocument(name, wrapperKey string, in interface{}) error {
	var payload interface{} = in
	if wrapperKey != "" {
		payload = map[string]interface{}{wrapperKey: in}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}

	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func firstNonSpace(data []byte) byte {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return b
		}
	}
	return 0
}

// GetProducts retrieves the full product list.
func (s *Store) GetProducts(ctx context.Context) ([]models.Product, error) {
	s.productsMu.Lock()
	defer s.productsMu.Unlock()
	return s.readProducts()
}

func (s *Store) readProducts() ([]models.Product, error) {
	var products []models.Product
	if err := s.readDocument(productsFile, "products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a single product, or nil when absent.
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	products, err := s.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, nil
}

// UpdateProductStock merges a new stock value into one product record,
// leaving all other fields untouched.
func (s *Store) UpdateProductStock(ctx context.Context, id int64, stock int) (*models.Product, error) {
	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	products, err := s.readProducts()
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].ID == id {
			if stock < 0 {
				stock = 0
			}
			products[i].Stock = stock
			if err := s.writeDocument(productsFile, "products", products); err != nil {
				return nil, err
			}
			return &products[i], nil
		}
	}
	return nil, models.ErrProductNotFound
}

// DecrementStock applies the sold quantities to product stock, clamping each
// at zero. The whole loop runs inside one critical section; products missing
// from the catalog are logged and skipped.
func (s *Store) DecrementStock(ctx context.Context, items []models.OrderLine) error {
	s.productsMu.Lock()
	defer s.productsMu.Unlock()

	products, err := s.readProducts()
	if err != nil {
		return err
	}

	byID := make(map[int64]int, len(products))
	for i := range products {
		byID[products[i].ID] = i
	}

	for _, item := range items {
		idx, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn("Sold product missing from catalog, skipping stock update",
				zap.Int64("product_id", item.ProductID))
			continue
		}
		newStock := products[idx].Stock - item.Quantity
		if newStock < 0 {
			newStock = 0
		}
		products[idx].Stock = newStock
	}

	return s.writeDocument(productsFile, "products", products)
}

// GetCoupons retrieves the full coupon list.
func (s *Store) GetCoupons(ctx context.Context) ([]models.Coupon, error) {
	s.couponsMu.Lock()
	defer s.couponsMu.Unlock()
	return s.readCoupons()
}

func (s *Store) readCoupons() ([]models.Coupon, error) {
	var coupons []models.Coupon
	if err := s.readDocument(couponsFile, "coupons", &coupons); err != nil {
		return nil, err
	}
	return coupons, nil
}

// GetCouponByCode looks up a coupon by case-insensitive exact code match,
// returning nil when absent.
func (s *Store) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupons, err := s.GetCoupons(ctx)
	if err != nil {
		return nil, err
	}
	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			return &coupons[i], nil
		}
	}
	return nil, nil
}

// IncrementCouponUsage records one redemption of the coupon.
func (s *Store) IncrementCouponUsage(ctx context.Context, code string) error {
	s.couponsMu.Lock()
	defer s.couponsMu.Unlock()

	coupons, err := s.readCoupons()
	if err != nil {
		return err
	}

	for i := range coupons {
		if strings.EqualFold(coupons[i].Code, code) {
			coupons[i].UsageCurrent++
			return s.writeDocument(couponsFile, "coupons", coupons)
		}
	}
	return fmt.Errorf("coupon not found: %s", code)
}
