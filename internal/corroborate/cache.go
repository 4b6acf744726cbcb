package corroborate

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedBuilder memoizes built indexes per (scope, window). Rebuilding the
// index is cheap relative to fetching samples but not free for 650k+ alert
// fleets, and the inputs for a fixed window never change. Entries expire so
// staleness stays bounded.
type CachedBuilder struct {
	thresholds Thresholds
	ttl        time.Duration
	cache      *lru.Cache[string, cachedIndex]
}

type cachedIndex struct {
	index   *Index
	builtAt time.Time
}

// NewCachedBuilder creates a builder holding up to size memoized indexes.
func NewCachedBuilder(size int, ttl time.Duration, thresholds Thresholds) (*CachedBuilder, error) {
	if size <= 0 {
		size = 16
	}
	cache, err := lru.New[string, cachedIndex](size)
	if err != nil {
		return nil, fmt.Errorf("init index cache: %w", err)
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedBuilder{thresholds: thresholds, ttl: ttl, cache: cache}, nil
}

// Get returns the memoized index for the scope key, building it via the
// supplied loader on a miss or after expiry.
func (b *CachedBuilder) Get(scope string, window time.Time, load func() *Index) *Index {
	key := fmt.Sprintf("%s|%d", scope, window.Unix())
	if entry, ok := b.cache.Get(key); ok && time.Since(entry.builtAt) < b.ttl {
		return entry.index
	}
	idx := load()
	b.cache.Add(key, cachedIndex{index: idx, builtAt: time.Now()})
	return idx
}

// Thresholds exposes the thresholds the builder hands to loaders.
func (b *CachedBuilder) Thresholds() Thresholds {
	return b.thresholds
}
