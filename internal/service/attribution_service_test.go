package service

import (
	"context"
	"testing"

	"techstore/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDefaultsToDirectNone(t *testing.T) {
	svc := NewAttributionService(session.NewMemoryStore())

	attr, captured, err := svc.Capture(context.Background(), "s1", &CaptureRequest{
		LandingPage: "/",
	})
	require.NoError(t, err)
	assert.True(t, captured)
	assert.Equal(t, AttributionDirect, attr.Source)
	assert.Equal(t, AttributionNone, attr.Medium)
	assert.False(t, attr.CapturedAt.IsZero())
}

func TestCaptureFirstTouchWins(t *testing.T) {
	svc := NewAttributionService(session.NewMemoryStore())
	ctx := context.Background()

	first, captured, err := svc.Capture(ctx, "s1", &CaptureRequest{
		Source:   "newsletter",
		Medium:   "email",
		Campaign: "spring",
	})
	require.NoError(t, err)
	require.True(t, captured)

	second, captured, err := svc.Capture(ctx, "s1", &CaptureRequest{
		Source: "ads",
		Medium: "cpc",
	})
	require.NoError(t, err)
	assert.False(t, captured)

	// The returned record is the original first touch.
	assert.Equal(t, first.Source, second.Source)
	assert.Equal(t, "newsletter", second.Source)
	assert.Equal(t, "spring", second.Campaign)
}
