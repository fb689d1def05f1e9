package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlag_Validate_Valid(t *testing.T) {
	flag := Flag{
		ID:     "checkout-v2",
		Name:   "Checkout V2",
		Status: StatusEnabled,
	}

	assert.NoError(t, flag.Validate())
}

func TestFlag_Validate_EmptyID(t *testing.T) {
	flag := Flag{Name: "Checkout V2", Status: StatusEnabled}

	err := flag.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestFlag_Validate_ShortName(t *testing.T) {
	flag := Flag{ID: "f1", Name: "ab", Status: StatusEnabled}

	err := flag.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "at least 3 characters")
}

func TestFlag_Validate_PercentageBounds(t *testing.T) {
	flag := Flag{
		ID:     "ramp",
		Name:   "Ramp Flag",
		Status: StatusRollout,
		RolloutStrategy: &RolloutStrategy{
			Type:       StrategyPercentage,
			Percentage: 101,
		},
	}

	err := flag.Validate()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))

	flag.RolloutStrategy.Percentage = -1
	assert.Error(t, flag.Validate())

	flag.RolloutStrategy.Percentage = 0
	assert.NoError(t, flag.Validate())

	flag.RolloutStrategy.Percentage = 100
	assert.NoError(t, flag.Validate())
}

func TestFlag_Validate_PercentageIgnoredForOtherStrategies(t *testing.T) {
	// A userList strategy carries no percentage to validate.
	flag := Flag{
		ID:     "ramp",
		Name:   "Ramp Flag",
		Status: StatusRollout,
		RolloutStrategy: &RolloutStrategy{
			Type:    StrategyUserList,
			UserIDs: []string{"u1"},
		},
	}

	assert.NoError(t, flag.Validate())
}

func TestFlag_Validate_TargetingRules(t *testing.T) {
	flag := Flag{
		ID:     "targeted",
		Name:   "Targeted Flag",
		Status: StatusEnabled,
		TargetingRules: []TargetingRule{
			{Name: "beta-orgs", Condition: `plan == "beta"`, Enabled: true},
		},
	}
	assert.NoError(t, flag.Validate())

	flag.TargetingRules = []TargetingRule{{Condition: "x == 1"}}
	err := flag.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a name")

	flag.TargetingRules = []TargetingRule{{Name: "no-cond"}}
	err = flag.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing a condition")
}

func TestFlag_UserLists(t *testing.T) {
	flag := Flag{
		ID:               "lists",
		Name:             "List Flag",
		EnabledForUsers:  []string{"alice", "bob"},
		DisabledForUsers: []string{"mallory"},
	}

	assert.True(t, flag.IsEnabledFor("alice"))
	assert.False(t, flag.IsEnabledFor("mallory"))
	assert.True(t, flag.IsDisabledFor("mallory"))
	assert.False(t, flag.IsDisabledFor("carol"))
}
