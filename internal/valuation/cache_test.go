package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swapcrate/swapcrate/internal/domain"
)

// countingProvider counts how many times the inner provider is hit
type countingProvider struct {
	calls int
	value int64
}

func (p *countingProvider) GetEMV(ctx context.Context, itemID string) (*Appraisal, error) {
	p.calls++
	return &Appraisal{
		ItemID:     itemID,
		ValueCents: p.value,
		Source:     domain.ValuationSourceAPIVerified,
		Confidence: 0.9,
	}, nil
}

func TestCachedProvider_ServesFromCache(t *testing.T) {
	inner := &countingProvider{value: 10000}
	cached := NewCachedProvider(inner, 8, time.Minute)
	ctx := context.Background()

	first, err := cached.GetEMV(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), first.ValueCents)

	_, err = cached.GetEMV(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedProvider_InvalidateForcesRefetch(t *testing.T) {
	inner := &countingProvider{value: 10000}
	cached := NewCachedProvider(inner, 8, time.Minute)
	ctx := context.Background()

	_, err := cached.GetEMV(ctx, "item-1")
	require.NoError(t, err)

	cached.Invalidate("item-1")

	_, err = cached.GetEMV(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}
