package storage

import (
	"context"
	"sync"
	"time"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// MemoryStore is an in-memory flag store guarded by a single RWMutex.
// Flags are stored and returned by value, so no caller ever observes
// an entry being mutated in place.
type MemoryStore struct {
	mu     sync.RWMutex
	flags  map[string]domain.Flag
	seeded bool
	now    func() time.Time
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flags: make(map[string]domain.Flag),
		now:   time.Now,
	}
}

// Get retrieves a flag by ID.
func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.Flag, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	flag, ok := m.flags[id]
	if !ok {
		return nil, nil
	}
	return &flag, nil
}

// List returns all flags.
func (m *MemoryStore) List(ctx context.Context) ([]domain.Flag, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	flags := make([]domain.Flag, 0, len(m.flags))
	for _, flag := range m.flags {
		flags = append(flags, flag)
	}
	return flags, nil
}

// Upsert validates and stores a flag. Provenance timestamps are
// maintained here: CreatedAt is set on first insert, UpdatedAt on every
// write, and EnabledAt/DisabledAt when the status crosses into enabled
// or disabled.
func (m *MemoryStore) Upsert(ctx context.Context, flag domain.Flag) (*domain.Flag, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if err := flag.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	prev, existed := m.flags[flag.ID]

	if !existed || flag.CreatedAt.IsZero() {
		if existed {
			flag.CreatedAt = prev.CreatedAt
		} else {
			flag.CreatedAt = now
		}
	}
	flag.UpdatedAt = now

	if flag.Status == domain.StatusEnabled && (!existed || prev.Status != domain.StatusEnabled) {
		at := now
		flag.EnabledAt = &at
	}
	if flag.Status == domain.StatusDisabled && (!existed || prev.Status != domain.StatusDisabled) {
		at := now
		flag.DisabledAt = &at
	}

	m.flags[flag.ID] = flag
	return &flag, nil
}

// Delete removes a flag by ID.
func (m *MemoryStore) Delete(ctx context.Context, id string) (bool, error) {
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.flags[id]
	if ok {
		delete(m.flags, id)
	}
	return ok, nil
}

// Len returns the number of stored flags.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flags)
}

// Close releases the store. A memory store holds no external resources.
func (m *MemoryStore) Close() error {
	return nil
}

// Seed loads the built-in flag registry. It runs at most once per
// store: re-seeding after manual mutation is a no-op so caller changes
// are never silently overwritten.
func (m *MemoryStore) Seed(ctx context.Context) error {
	m.mu.Lock()
	if m.seeded {
		m.mu.Unlock()
		return nil
	}
	m.seeded = true
	m.mu.Unlock()

	for _, flag := range builtinFlags(m.now()) {
		if _, err := m.Upsert(ctx, flag); err != nil {
			return err
		}
	}
	return nil
}
