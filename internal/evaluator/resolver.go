package evaluator

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// ConditionResolver interprets a targeting rule's opaque condition
// string against an evaluation context. The engine itself never parses
// conditions; the rule language is the resolver's concern.
type ConditionResolver interface {
	Resolve(ctx context.Context, condition string, evalCtx domain.EvaluationContext) (bool, error)
}

// ExprResolver resolves conditions using the expr expression language.
// Conditions see the flattened context attributes, e.g.
//
//	organizationId == "org-42" && plan == "enterprise"
//
// Compiled programs are cached per condition string.
type ExprResolver struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
}

// NewExprResolver creates a new expression-based resolver
func NewExprResolver() *ExprResolver {
	return &ExprResolver{
		programs: make(map[string]*vm.Program),
	}
}

// Resolve evaluates a condition against the context attributes.
func (r *ExprResolver) Resolve(ctx context.Context, condition string, evalCtx domain.EvaluationContext) (bool, error) {
	program, err := r.compile(condition)
	if err != nil {
		return false, domain.NewResolverError(condition, err)
	}

	out, err := expr.Run(program, evalCtx.Attributes())
	if err != nil {
		return false, domain.NewResolverError(condition, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, domain.NewResolverError(condition, fmt.Errorf("condition returned %T, want bool", out))
	}

	return matched, nil
}

func (r *ExprResolver) compile(condition string) (*vm.Program, error) {
	r.mu.RLock()
	program, ok := r.programs[condition]
	r.mu.RUnlock()
	if ok {
		return program, nil
	}

	program, err := expr.Compile(condition,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.programs[condition] = program
	r.mu.Unlock()

	return program, nil
}
