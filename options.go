package flagengine

import (
	"time"

	"github.com/melissa-hq/flagengine/internal/cache"
	"github.com/melissa-hq/flagengine/internal/evaluator"
	"github.com/melissa-hq/flagengine/internal/storage"
)

// Option configures an Engine.
type Option func(*engineConfig) error

// engineConfig holds internal configuration.
type engineConfig struct {
	store       storage.Store
	seed        bool
	resolver    evaluator.ConditionResolver
	resultCache bool
	cacheConfig cache.Config
	telemetry   bool
}

// WithStore replaces the default in-memory store. The caller owns the
// store's contents; the engine does not seed it. This is how a durable
// backing store plugs in behind the same contract.
func WithStore(s Store) Option {
	return func(c *engineConfig) error {
		c.store = s
		return nil
	}
}

// WithSeed controls whether the default store is pre-loaded with the
// built-in flag registry. Enabled by default; tests that want an empty
// store disable it.
func WithSeed(enabled bool) Option {
	return func(c *engineConfig) error {
		c.seed = enabled
		return nil
	}
}

// WithConditionResolver injects a resolver for targeting-rule
// conditions. Without one, targeting rules are stored and validated
// but never consulted during evaluation.
func WithConditionResolver(r ConditionResolver) Option {
	return func(c *engineConfig) error {
		c.resolver = r
		return nil
	}
}

// WithResultCache enables memoization of evaluation results per
// (flag, user) pair. Entries expire after ttl; ttl <= 0 uses the
// default. Results are invalidated on Upsert and Delete.
func WithResultCache(ttl time.Duration) Option {
	return func(c *engineConfig) error {
		c.resultCache = true
		c.cacheConfig = cache.DefaultConfig()
		if ttl > 0 {
			c.cacheConfig.TTL = ttl
		}
		return nil
	}
}

// WithTelemetry enables OpenTelemetry spans and metrics. Usage and
// duration metrics are only reported for flags that opt in via
// TrackUsage and TrackPerformance.
func WithTelemetry() Option {
	return func(c *engineConfig) error {
		c.telemetry = true
		return nil
	}
}
