package flagengine

import (
	"context"
	"sync"
)

// EvaluateFunc issues one evaluation. Both (*Engine).Evaluate and
// (*RemoteClient).Evaluate satisfy it.
type EvaluateFunc func(ctx context.Context, flagID string, evalCtx Context) (*Result, error)

// WatchState is a snapshot of a watcher's view of one flag.
// Enabled is nil while a call is in flight; it is never nil once
// Loading is false. A transport failure reads as disabled (fail
// closed) with Err populated, so callers are never left in an
// "enabled but errored" state.
type WatchState struct {
	Enabled *bool
	Loading bool
	Err     string
}

// On reports whether the watched flag is currently known to be enabled.
func (s WatchState) On() bool {
	return !s.Loading && s.Enabled != nil && *s.Enabled
}

// Watcher tracks the evaluation of one (flag, user) pair and re-issues
// the call whenever either input changes. When inputs change while a
// call is in flight, the superseded call's result is discarded: the
// latest call wins.
type Watcher struct {
	evaluate EvaluateFunc

	mu     sync.Mutex
	gen    uint64
	flagID string
	userID string
	state  WatchState

	updates chan WatchState
}

// NewWatcher creates a watcher around an evaluate function. No call is
// issued until Set.
func NewWatcher(evaluate EvaluateFunc) *Watcher {
	return &Watcher{
		evaluate: evaluate,
		updates:  make(chan WatchState, 1),
	}
}

// Set points the watcher at a (flag, user) pair and issues an
// evaluation. Setting the same pair again is a no-op.
func (w *Watcher) Set(ctx context.Context, flagID, userID string) {
	w.mu.Lock()
	if flagID == w.flagID && userID == w.userID && w.gen > 0 {
		w.mu.Unlock()
		return
	}

	w.gen++
	gen := w.gen
	w.flagID = flagID
	w.userID = userID
	w.state = WatchState{Loading: true}
	w.mu.Unlock()

	w.notify(WatchState{Loading: true})

	go w.run(ctx, gen, flagID, userID)
}

// Refresh re-issues the evaluation for the current pair, bypassing the
// same-inputs short circuit.
func (w *Watcher) Refresh(ctx context.Context) {
	w.mu.Lock()
	if w.flagID == "" {
		w.mu.Unlock()
		return
	}

	w.gen++
	gen := w.gen
	flagID, userID := w.flagID, w.userID
	w.state = WatchState{Loading: true}
	w.mu.Unlock()

	w.notify(WatchState{Loading: true})

	go w.run(ctx, gen, flagID, userID)
}

func (w *Watcher) run(ctx context.Context, gen uint64, flagID, userID string) {
	result, err := w.evaluate(ctx, flagID, NewContext(userID))

	var next WatchState
	if err != nil {
		off := false
		next = WatchState{Enabled: &off, Err: err.Error()}
	} else {
		enabled := result.Enabled
		next = WatchState{Enabled: &enabled}
	}

	w.mu.Lock()
	if gen != w.gen {
		// A later Set or Refresh superseded this call.
		w.mu.Unlock()
		return
	}
	w.state = next
	w.mu.Unlock()

	w.notify(next)
}

// State returns the current snapshot.
func (w *Watcher) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Updates delivers state changes. The channel holds only the most
// recent state: a slow receiver sees the latest snapshot, not the
// full history.
func (w *Watcher) Updates() <-chan WatchState {
	return w.updates
}

func (w *Watcher) notify(state WatchState) {
	for {
		select {
		case w.updates <- state:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}
