package evaluator

import (
	"context"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// Evaluator defines the interface for flag evaluation
type Evaluator interface {
	// Evaluate decides a flag's outcome for one context
	Evaluate(ctx context.Context, flag domain.Flag, evalCtx domain.EvaluationContext) (*domain.EvaluationResult, error)
}

// LocalEvaluator implements the precedence algorithm. It holds no
// mutable state of its own, so any number of evaluations may run in
// parallel. An optional ConditionResolver interprets targeting-rule
// conditions; without one, targeting rules are stored but never
// consulted.
type LocalEvaluator struct {
	resolver ConditionResolver
}

// New creates a new local evaluator
func New(opts ...Option) *LocalEvaluator {
	e := &LocalEvaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Option configures a LocalEvaluator.
type Option func(*LocalEvaluator)

// WithResolver injects a resolver for targeting-rule conditions.
func WithResolver(r ConditionResolver) Option {
	return func(e *LocalEvaluator) {
		e.resolver = r
	}
}

// Evaluate implements the precedence algorithm, top to bottom,
// short-circuiting at the first match:
//
//  1. disabled status wins over everything
//  2. explicit deny list
//  3. explicit allow list
//  4. targeting rules, only when a resolver is configured
//  5. enabled status
//  6. rollout strategies (percentage, userList)
//  7. everything else (experiment, userSegment, missing strategy)
//     falls through to a disabled result
//
// Note the enabled-status branch reports reason "disabled". This
// reproduces the historical behavior; consumers match on the literal
// reason string, so it stays until the taxonomy is versioned.
func (e *LocalEvaluator) Evaluate(ctx context.Context, flag domain.Flag, evalCtx domain.EvaluationContext) (*domain.EvaluationResult, error) {
	if evalCtx.UserID == "" {
		return nil, domain.NewMissingContextError("userId")
	}

	if flag.Status == domain.StatusDisabled {
		return result(flag.ID, false, domain.ReasonDisabled), nil
	}

	if flag.IsDisabledFor(evalCtx.UserID) {
		return result(flag.ID, false, domain.ReasonTargetingRule), nil
	}

	if flag.IsEnabledFor(evalCtx.UserID) {
		return result(flag.ID, true, domain.ReasonUserList), nil
	}

	if e.resolver != nil {
		for _, rule := range flag.TargetingRules {
			matched, err := e.resolver.Resolve(ctx, rule.Condition, evalCtx)
			if err != nil {
				// A broken rule never breaks evaluation; skip it.
				continue
			}
			if matched {
				return result(flag.ID, rule.Enabled, domain.ReasonTargetingRule), nil
			}
		}
	}

	if flag.Status == domain.StatusEnabled {
		return result(flag.ID, true, domain.ReasonDisabled), nil
	}

	if flag.Status == domain.StatusRollout && flag.RolloutStrategy != nil {
		switch flag.RolloutStrategy.Type {
		case domain.StrategyPercentage:
			enabled := Bucket(evalCtx.UserID) < flag.RolloutStrategy.Percentage
			return result(flag.ID, enabled, domain.ReasonRolloutPercentage), nil

		case domain.StrategyUserList:
			enabled := false
			for _, id := range flag.RolloutStrategy.UserIDs {
				if id == evalCtx.UserID {
					enabled = true
					break
				}
			}
			return result(flag.ID, enabled, domain.ReasonUserList), nil
		}
	}

	// experiment status, userSegment strategies, and rollout flags
	// without a strategy all land here.
	return result(flag.ID, false, domain.ReasonDisabled), nil
}

func result(flagID string, enabled bool, reason domain.Reason) *domain.EvaluationResult {
	return &domain.EvaluationResult{
		FlagID:  flagID,
		Enabled: enabled,
		Reason:  reason,
	}
}
