package flagengine

import (
	"github.com/melissa-hq/flagengine/internal/domain"
)

// IsValidationError reports whether err is an invalid flag definition.
// Upsert returns these; nothing is stored when it does.
func IsValidationError(err error) bool {
	return domain.IsValidationError(err)
}

// IsMissingContext reports whether err is a missing-user-ID error,
// the one input Evaluate cannot proceed without.
func IsMissingContext(err error) bool {
	return domain.IsMissingContext(err)
}

// IsResolverError reports whether err came from a targeting-rule
// condition that failed to compile or evaluate.
func IsResolverError(err error) bool {
	return domain.IsResolverError(err)
}
