package flagengine

import (
	"net/http"

	"github.com/melissa-hq/flagengine/internal/server"
)

type (
	// ServerOptions configures the HTTP surface.
	ServerOptions = server.Options

	// AuthFunc gates the administrative write path. Authentication is
	// a collaborator's job; the engine only honors the verdict.
	AuthFunc = server.AuthFunc
)

// Handler exposes the engine over HTTP:
//
//	GET    /evaluate?flag_id=&user_id=   evaluate one flag
//	GET    /flags                        list flags
//	POST   /flags                        upsert a flag (gated)
//	DELETE /flags/{id}                   delete a flag (gated)
//	POST   /webhook/flags                invalidate memoized results
//	GET    /health, GET /stats
func (e *Engine) Handler(opts ServerOptions) http.Handler {
	return server.New(e, opts).Handler()
}
