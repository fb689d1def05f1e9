package storage

import (
	"context"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// Store defines the interface for flag storage. Implementations must
// be safe for concurrent use and must replace entries atomically so a
// reader racing a writer sees either the old or the new flag, never a
// half-written one.
type Store interface {
	// Get retrieves a flag by ID. A miss returns (nil, nil): absence
	// is a legitimate outcome, not a failure.
	Get(ctx context.Context, id string) (*domain.Flag, error)

	// List returns all flags. Ordering is not meaningful.
	List(ctx context.Context) ([]domain.Flag, error)

	// Upsert validates and stores a flag, replacing any previous entry
	// with the same ID. On validation failure the previous entry is
	// left untouched.
	Upsert(ctx context.Context, flag domain.Flag) (*domain.Flag, error)

	// Delete removes a flag, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Len returns the number of stored flags.
	Len() int

	// Close releases any resources held by the store.
	Close() error
}
