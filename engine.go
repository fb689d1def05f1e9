// Package flagengine decides, for a given flag and a given evaluation
// context, whether a feature is active, and why. Evaluation follows a
// strict precedence: explicit user overrides, then global status, then
// rollout strategies, falling back to disabled. Every result carries
// the reason that produced it.
package flagengine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/melissa-hq/flagengine/internal/cache"
	"github.com/melissa-hq/flagengine/internal/domain"
	"github.com/melissa-hq/flagengine/internal/evaluator"
	"github.com/melissa-hq/flagengine/internal/storage"
	"github.com/melissa-hq/flagengine/internal/telemetry"
)

// Engine is the main entry point. It owns a flag store, an evaluator,
// and optionally a result cache and a telemetry provider. Multiple
// independent engines may coexist in one process; nothing is shared
// between them.
type Engine struct {
	store     storage.Store
	eval      *evaluator.LocalEvaluator
	results   *cache.ResultCache
	telemetry *telemetry.Provider
}

// New creates a new engine with the given options.
//
// Example:
//
//	engine, err := flagengine.New(
//	    flagengine.WithConditionResolver(flagengine.NewExprResolver()),
//	    flagengine.WithResultCache(30 * time.Second),
//	)
func New(opts ...Option) (*Engine, error) {
	cfg := &engineConfig{seed: true}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{}

	if cfg.store != nil {
		// A caller-supplied store arrives with whatever contents the
		// caller put there; it is not re-seeded.
		e.store = cfg.store
	} else {
		mem := storage.NewMemoryStore()
		if cfg.seed {
			if err := mem.Seed(context.Background()); err != nil {
				return nil, err
			}
		}
		e.store = mem
	}

	var evalOpts []evaluator.Option
	if cfg.resolver != nil {
		evalOpts = append(evalOpts, evaluator.WithResolver(cfg.resolver))
	}
	e.eval = evaluator.New(evalOpts...)

	if cfg.resultCache {
		results, err := cache.New(cfg.cacheConfig)
		if err != nil {
			return nil, err
		}
		e.results = results
	}

	if cfg.telemetry {
		store := e.store
		provider, err := telemetry.New(func() int64 { return int64(store.Len()) })
		if err != nil {
			return nil, err
		}
		e.telemetry = provider
	}

	return e, nil
}

// Evaluate decides a flag's outcome for one context. An unknown flag ID
// is not an error: it degrades to a disabled result so that removing a
// flag never breaks its callers. The only input error is a missing
// user ID.
func (e *Engine) Evaluate(ctx context.Context, flagID string, evalCtx Context) (*Result, error) {
	if evalCtx.UserID == "" {
		return nil, domain.NewMissingContextError("userId")
	}

	ctx, span := e.telemetry.StartEvaluation(ctx, flagID)
	defer span.End()

	if e.results != nil {
		if result, ok := e.results.Get(flagID, evalCtx.UserID); ok {
			e.telemetry.RecordCacheHit(ctx, flagID)
			return result, nil
		}
		e.telemetry.RecordCacheMiss(ctx, flagID)
	}

	start := time.Now()

	flag, err := e.store.Get(ctx, flagID)
	if err != nil {
		return nil, err
	}

	var result *Result
	if flag == nil {
		e.telemetry.RecordUnknownFlag(ctx, flagID)
		result = &Result{FlagID: flagID, Enabled: false, Reason: ReasonDisabled}
	} else {
		result, err = e.eval.Evaluate(ctx, *flag, evalCtx)
		if err != nil {
			return nil, err
		}
	}

	result.EvaluationTime = time.Since(start)

	if flag != nil {
		if flag.TrackUsage {
			e.telemetry.RecordEvaluation(ctx, flagID, result.Reason, result.Enabled)
		}
		if flag.TrackPerformance {
			e.telemetry.RecordDuration(ctx, flagID, result.EvaluationTime)
		}
	}

	if e.results != nil {
		e.results.Set(flagID, evalCtx.UserID, *result)
	}

	return result, nil
}

// Bool evaluates a flag and returns only the boolean outcome.
// Any evaluation error reads as disabled.
func (e *Engine) Bool(ctx context.Context, flagID string, evalCtx Context) bool {
	result, err := e.Evaluate(ctx, flagID, evalCtx)
	if err != nil {
		return false
	}
	return result.Enabled
}

// List returns all registered flags. Ordering is not meaningful.
func (e *Engine) List(ctx context.Context) ([]Flag, error) {
	return e.store.List(ctx)
}

// Get retrieves a single flag by ID, or nil when absent.
func (e *Engine) Get(ctx context.Context, id string) (*Flag, error) {
	return e.store.Get(ctx, id)
}

// Upsert validates and stores a flag. A flag arriving without an ID is
// assigned one. On validation failure nothing is stored.
func (e *Engine) Upsert(ctx context.Context, flag Flag) (*Flag, error) {
	if flag.ID == "" {
		flag.ID = uuid.NewString()
	}

	stored, err := e.store.Upsert(ctx, flag)
	if err != nil {
		return nil, err
	}

	e.InvalidateFlag(stored.ID)
	return stored, nil
}

// Delete removes a flag, reporting whether it existed.
func (e *Engine) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := e.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}

	e.InvalidateFlag(id)
	return deleted, nil
}

// InvalidateFlag drops memoized results for one flag.
func (e *Engine) InvalidateFlag(flagID string) {
	if e.results != nil {
		e.results.InvalidateFlag(flagID)
	}
}

// InvalidateAll drops every memoized result.
func (e *Engine) InvalidateAll() {
	if e.results != nil {
		e.results.Clear()
	}
}

// Stats summarizes the engine's current state.
type Stats struct {
	Flags int         `json:"flags"`
	Cache *CacheStats `json:"cache,omitempty"`
}

// CacheStats summarizes result cache activity.
type CacheStats struct {
	Hits   uint64  `json:"hits"`
	Misses uint64  `json:"misses"`
	Ratio  float64 `json:"ratio"`
}

// Stats returns current engine statistics.
func (e *Engine) Stats() any {
	stats := Stats{Flags: e.store.Len()}

	if e.results != nil {
		if m := e.results.Metrics(); m != nil {
			stats.Cache = &CacheStats{
				Hits:   m.Hits(),
				Misses: m.Misses(),
				Ratio:  m.Ratio(),
			}
		}
	}

	return stats
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if e.results != nil {
		e.results.Close()
	}
	return e.store.Close()
}
