package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// Engine defines what the HTTP server needs from the evaluation engine.
type Engine interface {
	Evaluate(ctx context.Context, flagID string, evalCtx domain.EvaluationContext) (*domain.EvaluationResult, error)
	List(ctx context.Context) ([]domain.Flag, error)
	Upsert(ctx context.Context, flag domain.Flag) (*domain.Flag, error)
	Delete(ctx context.Context, id string) (bool, error)
	InvalidateFlag(flagID string)
	InvalidateAll()
	Stats() any
}

// AuthFunc gates the administrative write path. It is a collaborator
// hook: the engine itself does not authenticate anyone. A nil AuthFunc
// leaves the write path open.
type AuthFunc func(r *http.Request) bool

// Options configures the HTTP server.
type Options struct {
	// Authorize gates POST /flags and DELETE /flags/{id}.
	Authorize AuthFunc

	// WebhookSecret enables HMAC-SHA256 signature validation on the
	// invalidation webhook. Empty disables validation.
	WebhookSecret string
}

// Server exposes the engine's query and mutate surface over HTTP.
type Server struct {
	engine Engine
	opts   Options
}

// New creates a new HTTP server around an engine.
func New(engine Engine, opts Options) *Server {
	return &Server{engine: engine, opts: opts}
}

// Handler returns the HTTP handler for all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/evaluate", s.handleEvaluate)
	mux.HandleFunc("/flags", s.handleFlags)
	mux.HandleFunc("/flags/", s.handleFlagByID)
	mux.HandleFunc("/webhook/flags", s.handleWebhook)

	return RequestID(mux)
}

// evaluationResponse is the wire shape of an evaluation result.
type evaluationResponse struct {
	FlagID           string        `json:"flagId"`
	Enabled          bool          `json:"enabled"`
	Variant          string        `json:"variant,omitempty"`
	Reason           domain.Reason `json:"reason"`
	EvaluationTimeMs float64       `json:"evaluationTimeMs,omitempty"`
}

func toEvaluationResponse(r *domain.EvaluationResult) evaluationResponse {
	return evaluationResponse{
		FlagID:           r.FlagID,
		Enabled:          r.Enabled,
		Variant:          r.Variant,
		Reason:           r.Reason,
		EvaluationTimeMs: float64(r.EvaluationTime.Microseconds()) / 1000.0,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

// handleEvaluate serves GET /evaluate?flag_id=<id>&user_id=<id>.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	flagID := r.URL.Query().Get("flag_id")
	userID := r.URL.Query().Get("user_id")
	if flagID == "" || userID == "" {
		writeError(w, http.StatusBadRequest, "flag_id and user_id are required")
		return
	}

	evalCtx := domain.EvaluationContext{
		UserID:         userID,
		OrganizationID: r.URL.Query().Get("organization_id"),
		Email:          r.URL.Query().Get("email"),
	}

	result, err := s.engine.Evaluate(r.Context(), flagID, evalCtx)
	if err != nil {
		if domain.IsMissingContext(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toEvaluationResponse(result))
}

// handleFlags serves GET /flags (list) and POST /flags (upsert).
func (s *Server) handleFlags(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		flags, err := s.engine.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, flags)

	case http.MethodPost:
		if !s.authorized(r) {
			writeError(w, http.StatusForbidden, "administrative rights required")
			return
		}

		var flag domain.Flag
		if err := json.NewDecoder(r.Body).Decode(&flag); err != nil {
			writeError(w, http.StatusBadRequest, "invalid flag JSON")
			return
		}

		stored, err := s.engine.Upsert(r.Context(), flag)
		if err != nil {
			if domain.IsValidationError(err) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, stored)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleFlagByID serves DELETE /flags/{id}.
func (s *Server) handleFlagByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/flags/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "flag id is required")
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if !s.authorized(r) {
		writeError(w, http.StatusForbidden, "administrative rights required")
		return
	}

	deleted, err := s.engine.Delete(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.opts.Authorize == nil {
		return true
	}
	return s.opts.Authorize(r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
