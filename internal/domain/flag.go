package domain

import (
	"fmt"
	"time"
)

// Status represents the global lifecycle state of a flag.
// All transitions between statuses are permitted; status is
// operator-controlled metadata, not an enforced lifecycle.
type Status string

const (
	StatusDisabled   Status = "disabled"
	StatusEnabled    Status = "enabled"
	StatusRollout    Status = "rollout"
	StatusExperiment Status = "experiment"
)

// StrategyType determines how a rollout-status flag selects its audience.
type StrategyType string

const (
	StrategyPercentage  StrategyType = "percentage"
	StrategyUserList    StrategyType = "userList"
	StrategyUserSegment StrategyType = "userSegment"
)

// RolloutStrategy describes the audience of a flag in rollout status.
// It is only consulted when Status == StatusRollout.
type RolloutStrategy struct {
	Type       StrategyType `json:"type"`
	Percentage int          `json:"percentage,omitempty"`
	UserIDs    []string     `json:"userIds,omitempty"`
	Segments   []string     `json:"segments,omitempty"`
}

// TargetingRule is a named condition that can force a flag's outcome.
// Condition is an opaque expression string; the engine never parses it
// itself, interpretation is delegated to a ConditionResolver.
type TargetingRule struct {
	Name      string `json:"name"`
	Condition string `json:"condition"`
	Enabled   bool   `json:"enabled"`
}

// Flag represents a feature flag with its evaluation rules
type Flag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Status      Status `json:"status"`

	RolloutStrategy  *RolloutStrategy `json:"rolloutStrategy,omitempty"`
	EnabledForUsers  []string         `json:"enabledForUsers,omitempty"`
	DisabledForUsers []string         `json:"disabledForUsers,omitempty"`
	TargetingRules   []TargetingRule  `json:"targetingRules,omitempty"`

	// Provenance metadata
	Owner      string     `json:"owner,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	EnabledAt  *time.Time `json:"enabledAt,omitempty"`
	DisabledAt *time.Time `json:"disabledAt,omitempty"`

	// Telemetry controls
	TrackUsage       bool `json:"trackUsage,omitempty"`
	TrackPerformance bool `json:"trackPerformance,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

const minNameLength = 3

// Validate validates the flag configuration
func (f *Flag) Validate() error {
	if f.ID == "" {
		return NewValidationError("flag id cannot be empty")
	}

	if len(f.Name) < minNameLength {
		return NewValidationError(
			fmt.Sprintf("flag name must be at least %d characters, got %q", minNameLength, f.Name),
		)
	}

	if f.RolloutStrategy != nil && f.RolloutStrategy.Type == StrategyPercentage {
		p := f.RolloutStrategy.Percentage
		if p < 0 || p > 100 {
			return NewValidationError(
				fmt.Sprintf("rollout percentage must be between 0 and 100, got %d", p),
			)
		}
	}

	for i, rule := range f.TargetingRules {
		if rule.Name == "" {
			return NewValidationError(fmt.Sprintf("targeting rule %d is missing a name", i))
		}
		if rule.Condition == "" {
			return NewValidationError(
				fmt.Sprintf("targeting rule %q is missing a condition", rule.Name),
			)
		}
	}

	return nil
}

// IsEnabledFor reports whether userID is in the explicit allow list.
func (f *Flag) IsEnabledFor(userID string) bool {
	return containsUser(f.EnabledForUsers, userID)
}

// IsDisabledFor reports whether userID is in the explicit deny list.
func (f *Flag) IsDisabledFor(userID string) bool {
	return containsUser(f.DisabledForUsers, userID)
}

func containsUser(users []string, userID string) bool {
	for _, u := range users {
		if u == userID {
			return true
		}
	}
	return false
}
