package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var orderNumberFormat = regexp.MustCompile(`^TS-\d{4}-\d{2}-\d{6}-\d{3}$`)

func neverExists(ctx context.Context, orderNumber string) (bool, error) {
	return false, nil
}

func TestGenerateFormat(t *testing.T) {
	gen := NewOrderNumberGenerator(5)
	now := time.Date(2026, 3, 7, 10, 30, 0, 0, time.UTC)

	number := gen.Generate(context.Background(), now, neverExists)

	require.Regexp(t, orderNumberFormat, number)
	assert.Contains(t, number, "TS-2026-03-")
}

func TestGenerateRetriesOnCollision(t *testing.T) {
	gen := NewOrderNumberGenerator(5)
	now := time.Now()

	var seen []string
	exists := func(ctx context.Context, orderNumber string) (bool, error) {
		seen = append(seen, orderNumber)
		// First candidate is taken, second is free.
		return len(seen) == 1, nil
	}

	number := gen.Generate(context.Background(), now, exists)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[1], number)
	assert.NotEqual(t, seen[0], number)
}

func TestGenerateWidensSuffixWhenBudgetExhausted(t *testing.T) {
	gen := NewOrderNumberGenerator(3)
	now := time.Now()

	attempts := 0
	alwaysTaken := func(ctx context.Context, orderNumber string) (bool, error) {
		attempts++
		return true, nil
	}

	number := gen.Generate(context.Background(), now, alwaysTaken)

	assert.Equal(t, 3, attempts)
	assert.Regexp(t, `^TS-\d{4}-\d{2}-\d{6}-\d{3}-\d{4}$`, number)
}

func TestGenerateFallsBackWhenLookupFails(t *testing.T) {
	gen := NewOrderNumberGenerator(5)
	now := time.Now()

	failing := func(ctx context.Context, orderNumber string) (bool, error) {
		return false, errors.New("sales file unreadable")
	}

	number := gen.Generate(context.Background(), now, failing)

	// The lookup failure must not abort generation; extra digits get
	// appended instead.
	assert.Regexp(t, `^TS-\d{4}-\d{2}-\d{6}-\d{3}-\d{4}$`, number)
}

func TestGenerateConcurrentCheckouts(t *testing.T) {
	gen := NewOrderNumberGenerator(5)
	now := time.Now()

	// One generator is shared by every request goroutine; hammer it from
	// several at once. Run with -race.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				number := gen.Generate(context.Background(), now, neverExists)
				assert.Regexp(t, orderNumberFormat, number)
			}
		}()
	}
	wg.Wait()
}

func TestGenerateUsesLastSixDigitsOfMillis(t *testing.T) {
	gen := NewOrderNumberGenerator(1)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	number := gen.Generate(context.Background(), now, neverExists)

	millis := now.UnixMilli()
	suffix := []byte{}
	for i := 0; i < 6; i++ {
		suffix = append([]byte{byte('0' + millis%10)}, suffix...)
		millis /= 10
	}
	assert.Contains(t, number, "-"+string(suffix)+"-")
}
