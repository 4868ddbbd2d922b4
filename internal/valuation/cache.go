package valuation

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/swapcrate/swapcrate/internal/logger"
)

// Cache settings. Appraisals go stale quickly enough that a short TTL is
// mandatory; the size bound keeps a hot negotiation set in memory.
const (
	DefaultCacheSize = 4096
	DefaultCacheTTL  = 5 * time.Minute
)

// CachedProvider decorates a Provider with an expirable LRU cache
type CachedProvider struct {
	inner Provider
	cache *expirable.LRU[string, *Appraisal]
}

// NewCachedProvider creates a caching decorator around the given provider
func NewCachedProvider(inner Provider, size int, ttl time.Duration) *CachedProvider {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedProvider{
		inner: inner,
		cache: expirable.NewLRU[string, *Appraisal](size, nil, ttl),
	}
}

// GetEMV returns the cached appraisal when fresh, falling through to the
// inner provider otherwise
func (p *CachedProvider) GetEMV(ctx context.Context, itemID string) (*Appraisal, error) {
	if appraisal, ok := p.cache.Get(itemID); ok {
		return appraisal, nil
	}

	appraisal, err := p.inner.GetEMV(ctx, itemID)
	if err != nil {
		return nil, err
	}

	p.cache.Add(itemID, appraisal)
	logger.FromContext(ctx).Debug("Appraisal cached", "item_id", itemID, "value_cents", appraisal.ValueCents)
	return appraisal, nil
}

// Invalidate drops the cached appraisal for an item, e.g. after an ownership
// transfer re-prices it
func (p *CachedProvider) Invalidate(itemID string) {
	p.cache.Remove(itemID)
}
