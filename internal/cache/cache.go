package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// ResultCache memoizes evaluation results per (flag, user) pair on top
// of Ristretto. Entries carry a short TTL, and each flag has a
// generation counter baked into its keys: invalidating a flag bumps
// the generation, so stale entries become unreachable and age out
// instead of requiring a key scan.
type ResultCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu   sync.RWMutex
	gens map[string]uint64
}

// Config holds result cache configuration.
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	TTL         time.Duration
}

// DefaultConfig returns default result cache configuration.
func DefaultConfig() Config {
	return Config{
		NumCounters: 1e6,
		MaxCost:     1 << 26, // 64MB
		BufferItems: 64,
		TTL:         30 * time.Second,
	}
}

// New creates a new result cache.
func New(cfg Config) (*ResultCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &ResultCache{
		cache: cache,
		ttl:   cfg.TTL,
		gens:  make(map[string]uint64),
	}, nil
}

// Get retrieves a memoized result.
func (c *ResultCache) Get(flagID, userID string) (*domain.EvaluationResult, bool) {
	value, found := c.cache.Get(c.key(flagID, userID))
	if !found {
		return nil, false
	}

	result, ok := value.(domain.EvaluationResult)
	if !ok {
		return nil, false
	}
	return &result, true
}

// Set memoizes a result. The result is stored by value so later
// mutations by the caller cannot leak into the cache.
func (c *ResultCache) Set(flagID, userID string, result domain.EvaluationResult) {
	c.cache.SetWithTTL(c.key(flagID, userID), result, 1, c.ttl)
}

// InvalidateFlag makes all memoized results for a flag unreachable.
func (c *ResultCache) InvalidateFlag(flagID string) {
	c.mu.Lock()
	c.gens[flagID]++
	c.mu.Unlock()
}

// Clear drops every memoized result.
func (c *ResultCache) Clear() {
	c.cache.Clear()
	c.mu.Lock()
	c.gens = make(map[string]uint64)
	c.mu.Unlock()
}

// Wait blocks until pending writes are applied. Ristretto applies sets
// asynchronously; tests use this to observe their own writes.
func (c *ResultCache) Wait() {
	c.cache.Wait()
}

// Metrics returns the underlying cache metrics.
func (c *ResultCache) Metrics() *ristretto.Metrics {
	return c.cache.Metrics
}

// Close releases the cache.
func (c *ResultCache) Close() {
	c.cache.Close()
}

func (c *ResultCache) key(flagID, userID string) string {
	c.mu.RLock()
	gen := c.gens[flagID]
	c.mu.RUnlock()
	return fmt.Sprintf("%s#%d#%s", flagID, gen, userID)
}
