package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"techstore/internal/util"

	"go.uber.org/zap"
)

// ExistsFunc reports whether an order number is already present in the sales
// history.
type ExistsFunc func(ctx context.Context, orderNumber string) (bool, error)

// OrderNumberGenerator produces collision-checked order numbers in the form
// TS-{year}-{month}-{last 6 of epoch millis}-{3-digit random},
// e.g. TS-2025-10-845621-347.
type OrderNumberGenerator struct {
	MaxAttempts int

	// rngMu serializes the rand.Rand, which is not safe for the concurrent
	// checkouts all sharing one generator.
	rngMu  sync.Mutex
	rng    *rand.Rand
	logger *zap.Logger
}

// NewOrderNumberGenerator creates a generator with a bounded retry budget.
func NewOrderNumberGenerator(maxAttempts int) *OrderNumberGenerator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &OrderNumberGenerator{
		MaxAttempts: maxAttempts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:      util.GetLogger(),
	}
}

// Generate returns an order number unique against the history visible through
// exists. Collisions trigger regeneration up to MaxAttempts; on exhaustion a
// widened random suffix is appended instead of looping forever. A failing
// exists query falls back to appending extra random digits rather than
// failing the checkout.
func (g *OrderNumberGenerator) Generate(ctx context.Context, now time.Time, exists ExistsFunc) string {
	var candidate string

	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		candidate = g.format(now)

		dup, err := exists(ctx, candidate)
		if err != nil {
			g.logger.Warn("Order history lookup failed, widening order number instead",
				zap.Error(err))
			return candidate + fmt.Sprintf("-%04d", g.randN(10000))
		}
		if !dup {
			return candidate
		}

		util.OrderNumberCollisionsTotal.Inc()
		g.logger.Warn("Duplicate order number, regenerating",
			zap.String("order_number", candidate),
			zap.Int("attempt", attempt+1))
	}

	// Retry budget exhausted; widen the randomness so the number stays
	// unique even under pathological collision rates.
	return candidate + fmt.Sprintf("-%04d", g.randN(10000))
}

func (g *OrderNumberGenerator) randN(n int) int {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.rng.Intn(n)
}

func (g *OrderNumberGenerator) format(now time.Time) string {
	now = now.UTC()
	millis := fmt.Sprintf("%d", now.UnixMilli())
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	return fmt.Sprintf("TS-%d-%02d-%s-%03d", now.Year(), int(now.Month()), millis, g.randN(1000))
}
