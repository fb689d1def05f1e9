package flagengine

import (
	"github.com/melissa-hq/flagengine/internal/domain"
	"github.com/melissa-hq/flagengine/internal/evaluator"
	"github.com/melissa-hq/flagengine/internal/storage"
)

// Aliases re-exporting the domain model, so callers never import
// internal packages directly.

type (
	// Flag is a named, independently toggleable unit of feature control.
	Flag = domain.Flag

	// RolloutStrategy describes the audience of a rollout-status flag.
	RolloutStrategy = domain.RolloutStrategy

	// TargetingRule is a named condition that can force a flag's outcome.
	TargetingRule = domain.TargetingRule

	// Status is a flag's global lifecycle state.
	Status = domain.Status

	// StrategyType selects a rollout strategy shape.
	StrategyType = domain.StrategyType

	// Context is the caller-supplied identity used to evaluate a flag.
	Context = domain.EvaluationContext

	// Result is the outcome of one evaluation, with the rule that
	// produced it.
	Result = domain.EvaluationResult

	// Reason names the precedence rule that produced a result.
	Reason = domain.Reason

	// Store is the flag storage contract. The default is in-memory; a
	// durable implementation swaps in behind the same interface.
	Store = storage.Store

	// ConditionResolver interprets targeting-rule condition strings.
	ConditionResolver = evaluator.ConditionResolver

	// ExprResolver resolves conditions with the expr language.
	ExprResolver = evaluator.ExprResolver
)

const (
	StatusDisabled   = domain.StatusDisabled
	StatusEnabled    = domain.StatusEnabled
	StatusRollout    = domain.StatusRollout
	StatusExperiment = domain.StatusExperiment

	StrategyPercentage  = domain.StrategyPercentage
	StrategyUserList    = domain.StrategyUserList
	StrategyUserSegment = domain.StrategyUserSegment

	ReasonDisabled          = domain.ReasonDisabled
	ReasonRolloutPercentage = domain.ReasonRolloutPercentage
	ReasonTargetingRule     = domain.ReasonTargetingRule
	ReasonExperimentVariant = domain.ReasonExperimentVariant
	ReasonUserList          = domain.ReasonUserList
)

// NewContext creates an evaluation context for the given user ID.
func NewContext(userID string) Context {
	return domain.NewEvaluationContext(userID)
}

// NewExprResolver creates an expression-based condition resolver.
func NewExprResolver() *ExprResolver {
	return evaluator.NewExprResolver()
}

// NewMemoryStore creates an empty in-memory store, for callers that
// want to own seeding themselves.
func NewMemoryStore() *storage.MemoryStore {
	return storage.NewMemoryStore()
}

// Bucket exposes the deterministic rollout bucket for a user ID.
// Useful for predicting which side of a percentage a user lands on.
func Bucket(userID string) int {
	return evaluator.Bucket(userID)
}
