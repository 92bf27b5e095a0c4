package session

import (
	"context"
	"sync"

	"techstore/internal/models"
)

// Store holds per-session checkout state: the cart, the applied coupon, and
// the first-touch attribution record. Implementations must treat attribution
// capture as set-if-absent so the earliest record always wins.
type Store interface {
	GetCart(ctx context.Context, sessionID string) ([]models.CartItem, error)
	SaveCart(ctx context.Context, sessionID string, cart []models.CartItem) error
	ClearCart(ctx context.Context, sessionID string) error

	GetAppliedCoupon(ctx context.Context, sessionID string) (*models.Coupon, error)
	SetAppliedCoupon(ctx context.Context, sessionID string, coupon *models.Coupon) error
	RemoveAppliedCoupon(ctx context.Context, sessionID string) error

	// CaptureAttribution stores the record only if none exists yet for the
	// session. It returns true when the record was stored.
	CaptureAttribution(ctx context.Context, sessionID string, attr *models.Attribution) (bool, error)
	GetAttribution(ctx context.Context, sessionID string) (*models.Attribution, error)
}

// MemoryStore is an in-process session store used in tests and single-node
// deployments without Redis.
type MemoryStore struct {
	mu           sync.Mutex
	carts        map[string][]models.CartItem
	coupons      map[string]*models.Coupon
	attributions map[string]*models.Attribution
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:        make(map[string][]models.CartItem),
		coupons:      make(map[string]*models.Coupon),
		attributions: make(map[string]*models.Attribution),
	}
}

func (m *MemoryStore) GetCart(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cart := m.carts[sessionID]
	out := make([]models.CartItem, len(cart))
	copy(out, cart)
	return out, nil
}

func (m *MemoryStore) SaveCart(ctx context.Context, sessionID string, cart []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]models.CartItem, len(cart))
	copy(stored, cart)
	m.carts[sessionID] = stored
	return nil
}

func (m *MemoryStore) ClearCart(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *MemoryStore) GetAppliedCoupon(ctx context.Context, sessionID string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.coupons[sessionID]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, nil
}

func (m *MemoryStore) SetAppliedCoupon(ctx context.Context, sessionID string, coupon *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *coupon
	m.coupons[sessionID] = &clone
	return nil
}

func (m *MemoryStore) RemoveAppliedCoupon(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coupons, sessionID)
	return nil
}

func (m *MemoryStore) CaptureAttribution(ctx context.Context, sessionID string, attr *models.Attribution) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attributions[sessionID]; ok {
		return false, nil
	}
	clone := *attr
	m.attributions[sessionID] = &clone
	return true, nil
}

func (m *MemoryStore) GetAttribution(ctx context.Context, sessionID string) (*models.Attribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.attributions[sessionID]; ok {
		clone := *a
		return &clone, nil
	}
	return nil, nil
}
