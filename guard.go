package flagengine

import (
	"net/http"
)

// Guard serves its child handler only while the watched flag is
// enabled. While the watcher is still loading it serves nothing
// (204 No Content); when the flag is off or errored it serves the
// fallback handler, or 404 when none is configured.
type Guard struct {
	watcher  *Watcher
	children http.Handler
	fallback http.Handler
}

// NewGuard creates a guard around a watcher. fallback may be nil.
func NewGuard(watcher *Watcher, children, fallback http.Handler) *Guard {
	return &Guard{
		watcher:  watcher,
		children: children,
		fallback: fallback,
	}
}

// ServeHTTP implements http.Handler.
func (g *Guard) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	state := g.watcher.State()

	if state.Loading {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if state.On() {
		g.children.ServeHTTP(w, r)
		return
	}

	if g.fallback != nil {
		g.fallback.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}
