package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/erp/carrier-sync/internal/domain/carrier"
)

// countryEntry is a cached country list with its generation and expiry
type countryEntry struct {
	gen       int64
	carriers  []carrier.Summary
	expiresAt time.Time
}

// InMemoryCountryCache is a process-local CountryCache.
// Suitable for single-instance deployments and testing.
type InMemoryCountryCache struct {
	mu      sync.RWMutex
	gen     int64
	ttl     time.Duration
	entries map[string]countryEntry
	now     func() time.Time
}

// NewInMemoryCountryCache creates an in-memory country cache
func NewInMemoryCountryCache(ttl time.Duration) *InMemoryCountryCache {
	if ttl <= 0 {
		ttl = DefaultCountryTTL
	}
	return &InMemoryCountryCache{
		ttl:     ttl,
		entries: make(map[string]countryEntry),
		now:     time.Now,
	}
}

// Generation returns the current cache generation
func (c *InMemoryCountryCache) Generation(ctx context.Context) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen, nil
}

// Get returns a copy of the cached carriers of a country in the given generation
func (c *InMemoryCountryCache) Get(ctx context.Context, gen int64, country string) ([]carrier.Summary, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[country]
	if !ok || e.gen != gen || c.now().After(e.expiresAt) {
		return nil, false, nil
	}
	return slices.Clone(e.carriers), true, nil
}

// Set stores the carriers of a country. Writes for a retired generation are dropped.
func (c *InMemoryCountryCache) Set(ctx context.Context, gen int64, country string, carriers []carrier.Summary) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return nil
	}
	stored := slices.Clone(carriers)
	if stored == nil {
		stored = []carrier.Summary{}
	}
	c.entries[country] = countryEntry{
		gen:       gen,
		carriers:  stored,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate moves to a new generation and drops every entry
func (c *InMemoryCountryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	clear(c.entries)
	return nil
}

// Size returns the number of cached countries (for testing/monitoring)
func (c *InMemoryCountryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
