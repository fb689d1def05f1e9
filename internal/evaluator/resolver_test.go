package evaluator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melissa-hq/flagengine/internal/domain"
)

func TestExprResolver_SimpleCondition(t *testing.T) {
	resolver := NewExprResolver()

	evalCtx := domain.NewEvaluationContext("user-1").
		WithOrganization("org-42").
		WithTrait("plan", "enterprise")

	matched, err := resolver.Resolve(context.Background(), `plan == "enterprise"`, evalCtx)
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = resolver.Resolve(context.Background(), `plan == "free"`, evalCtx)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestExprResolver_CompoundCondition(t *testing.T) {
	resolver := NewExprResolver()

	evalCtx := domain.NewEvaluationContext("user-1").
		WithOrganization("org-42").
		WithProperty("seats", 250)

	matched, err := resolver.Resolve(
		context.Background(),
		`organizationId == "org-42" && seats > 100`,
		evalCtx,
	)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestExprResolver_UserIDAvailable(t *testing.T) {
	resolver := NewExprResolver()

	matched, err := resolver.Resolve(
		context.Background(),
		`userId startsWith "internal-"`,
		domain.NewEvaluationContext("internal-bot-7"),
	)
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestExprResolver_UndefinedVariableIsNotAnError(t *testing.T) {
	resolver := NewExprResolver()

	// Conditions referencing attributes the context does not carry
	// must compile; they just evaluate falsy.
	matched, err := resolver.Resolve(
		context.Background(),
		`country == "BR"`,
		domain.NewEvaluationContext("user-1"),
	)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestExprResolver_InvalidCondition(t *testing.T) {
	resolver := NewExprResolver()

	_, err := resolver.Resolve(context.Background(), `plan ==`, domain.NewEvaluationContext("user-1"))
	require.Error(t, err)
	assert.True(t, domain.IsResolverError(err))
}

func TestExprResolver_ProgramCache(t *testing.T) {
	resolver := NewExprResolver()

	cond := `plan == "pro"`
	evalCtx := domain.NewEvaluationContext("user-1").WithTrait("plan", "pro")

	_, err := resolver.Resolve(context.Background(), cond, evalCtx)
	require.NoError(t, err)
	assert.Len(t, resolver.programs, 1)

	_, err = resolver.Resolve(context.Background(), cond, evalCtx)
	require.NoError(t, err)
	assert.Len(t, resolver.programs, 1, "repeated conditions must reuse the compiled program")
}
