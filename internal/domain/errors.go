package domain

import (
	"fmt"
)

// -----------------------------
// ValidationError
// -----------------------------

// ValidationError reports an invalid flag definition. It always names
// the violated constraint and is never applied partially: a flag that
// fails validation is not stored.
type ValidationError struct {
	Message string
	Cause   error
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

func NewValidationErrorWithCause(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, Cause: cause}
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid flag definition: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid flag definition: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// -----------------------------
// MissingContextError
// -----------------------------

// MissingContextError reports an evaluation call without a user ID.
// Every precedence rule branches on the user ID, so evaluation cannot
// proceed without one.
type MissingContextError struct {
	Field string
}

func NewMissingContextError(field string) *MissingContextError {
	return &MissingContextError{Field: field}
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("missing evaluation context: %s is required", e.Field)
}

func IsMissingContext(err error) bool {
	_, ok := err.(*MissingContextError)
	return ok
}

// -----------------------------
// NotFoundError
// -----------------------------

// NotFoundError is used internally by storage implementations. An
// unknown flag at evaluation time is not an error; Evaluate degrades
// to a disabled result instead of surfacing this.
type NotFoundError struct {
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// -----------------------------
// ResolverError
// -----------------------------

// ResolverError reports a targeting-rule condition that could not be
// compiled or evaluated by the configured resolver.
type ResolverError struct {
	Rule string
	Err  error
}

func NewResolverError(rule string, err error) *ResolverError {
	return &ResolverError{Rule: rule, Err: err}
}

func (e *ResolverError) Error() string {
	return fmt.Sprintf("condition resolver failed on rule %q: %v", e.Rule, e.Err)
}

func (e *ResolverError) Unwrap() error {
	return e.Err
}

func IsResolverError(err error) bool {
	_, ok := err.(*ResolverError)
	return ok
}
