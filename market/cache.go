package market

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultFreshness is the window within which a cached price is served
// without a refresh.
const DefaultFreshness = time.Minute

// staleMultiple is how many freshness windows an entry may outlive its
// last refresh before the sweep evicts it.
const staleMultiple = 5

// clock provides time for cache decisions, injectable for tests
type clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time {
	return time.Now()
}

type entry struct {
	price     float64
	fetchedAt time.Time
}

// Cache decorates a Source with a freshness window. A request inside
// the window is served from cache; past the window it refreshes, and a
// failed refresh falls back to the stale entry when one exists. The
// lock only makes individual entry reads and writes atomic: two
// evaluators can race on refreshing the same symbol, and the duplicate
// fetch is wasted work, not an error.
type Cache struct {
	source    Source
	freshness time.Duration
	clock     clock
	log       *zap.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// NewCache wraps source with a price cache. freshness <= 0 selects
// DefaultFreshness; log may be nil.
func NewCache(source Source, freshness time.Duration, log *zap.Logger) *Cache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{
		source:    source,
		freshness: freshness,
		clock:     wallClock{},
		log:       log,
		entries:   make(map[string]entry),
	}
}

// Price returns the cached price when fresh, otherwise refreshes. On
// refresh failure the stale value is served if one exists.
func (c *Cache) Price(symbol string) (float64, error) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if ok && now.Sub(e.fetchedAt) < c.freshness {
		return e.price, nil
	}

	price, err := c.source.Price(symbol)
	if err != nil {
		if ok {
			c.log.Warn("price refresh failed, serving stale value",
				zap.String("symbol", symbol),
				zap.Duration("age", now.Sub(e.fetchedAt)),
				zap.Error(err))
			return e.price, nil
		}
		return 0, err
	}

	c.mu.Lock()
	c.entries[symbol] = entry{price: price, fetchedAt: now}
	c.mu.Unlock()

	return price, nil
}

// StartSweep runs a low-frequency eviction loop until ctx is done,
// dropping entries older than several freshness windows. Callers own
// the scheduling; the cache works without a sweep, it just holds dead
// symbols longer.
func (c *Cache) StartSweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = staleMultiple * c.freshness
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.evictStale()
			}
		}
	}()
}

func (c *Cache) evictStale() {
	cutoff := c.clock.Now().Add(-staleMultiple * c.freshness)

	c.mu.Lock()
	defer c.mu.Unlock()
	for symbol, e := range c.entries {
		if e.fetchedAt.Before(cutoff) {
			delete(c.entries, symbol)
			c.log.Debug("evicted stale price", zap.String("symbol", symbol))
		}
	}
}

// Len reports the number of cached symbols
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
