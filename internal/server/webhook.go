package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
)

const signatureHeader = "X-Webhook-Signature"

// WebhookPayload is a flag-change notification from an external writer
// (typically the durable store behind the admin UI). The engine reacts
// by dropping memoized results for the named flags.
type WebhookPayload struct {
	Event     string   `json:"event"`
	FlagIDs   []string `json:"flag_ids"`
	Timestamp string   `json:"timestamp"`
}

// handleWebhook serves POST /webhook/flags.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	if s.opts.WebhookSecret != "" {
		if !verifySignature(r.Header.Get(signatureHeader), body, s.opts.WebhookSecret) {
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	switch payload.Event {
	case "flag.updated", "flag.deleted":
		if len(payload.FlagIDs) == 0 {
			s.engine.InvalidateAll()
			break
		}
		for _, id := range payload.FlagIDs {
			s.engine.InvalidateFlag(id)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func verifySignature(signature string, body []byte, secret string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
