package domain

import (
	"time"
)

// Reason explains which precedence rule produced an evaluation outcome.
// Every EvaluationResult carries one so the outcome is auditable.
type Reason string

const (
	ReasonDisabled          Reason = "disabled"
	ReasonRolloutPercentage Reason = "rollout_percentage"
	ReasonTargetingRule     Reason = "targeting_rule"
	ReasonExperimentVariant Reason = "experiment_variant"
	ReasonUserList          Reason = "user_list"
)

// EvaluationContext holds the per-request identity used to evaluate a flag.
// UserID is the only field the engine itself reads; the rest is carried
// for condition resolvers and segment collaborators.
type EvaluationContext struct {
	UserID           string            `json:"userId"`
	OrganizationID   string            `json:"organizationId,omitempty"`
	Email            string            `json:"email,omitempty"`
	Traits           map[string]string `json:"traits,omitempty"`
	CustomProperties map[string]any    `json:"customProperties,omitempty"`
}

// NewEvaluationContext creates a new evaluation context
func NewEvaluationContext(userID string) EvaluationContext {
	return EvaluationContext{
		UserID:           userID,
		Traits:           make(map[string]string),
		CustomProperties: make(map[string]any),
	}
}

// WithOrganization sets the organization ID (fluent interface).
func (e EvaluationContext) WithOrganization(orgID string) EvaluationContext {
	e.OrganizationID = orgID
	return e
}

// WithEmail sets the user email (fluent interface).
func (e EvaluationContext) WithEmail(email string) EvaluationContext {
	e.Email = email
	return e
}

// WithTrait adds a trait to the context (fluent interface).
func (e EvaluationContext) WithTrait(key, value string) EvaluationContext {
	if e.Traits == nil {
		e.Traits = make(map[string]string)
	}
	e.Traits[key] = value
	return e
}

// WithProperty adds a custom property to the context (fluent interface).
func (e EvaluationContext) WithProperty(key string, value any) EvaluationContext {
	if e.CustomProperties == nil {
		e.CustomProperties = make(map[string]any)
	}
	e.CustomProperties[key] = value
	return e
}

// Attributes flattens the context into a single map for condition
// resolvers. Custom properties win over traits on key collision.
func (e EvaluationContext) Attributes() map[string]any {
	attrs := make(map[string]any, len(e.Traits)+len(e.CustomProperties)+3)
	attrs["userId"] = e.UserID
	if e.OrganizationID != "" {
		attrs["organizationId"] = e.OrganizationID
	}
	if e.Email != "" {
		attrs["email"] = e.Email
	}
	for k, v := range e.Traits {
		attrs[k] = v
	}
	for k, v := range e.CustomProperties {
		attrs[k] = v
	}
	return attrs
}

// EvaluationResult represents the result of one flag evaluation.
type EvaluationResult struct {
	FlagID  string `json:"flagId"`
	Enabled bool   `json:"enabled"`
	Variant string `json:"variant,omitempty"`
	Reason  Reason `json:"reason"`

	// EvaluationTime is the wall-clock duration of the evaluation call.
	// Zero when the caller did not measure it.
	EvaluationTime time.Duration `json:"-"`
}
