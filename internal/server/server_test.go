package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melissa-hq/flagengine/internal/domain"
)

// fakeEngine records calls and returns canned results.
type fakeEngine struct {
	flags       map[string]domain.Flag
	invalidated []string
	cleared     bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{flags: make(map[string]domain.Flag)}
}

func (f *fakeEngine) Evaluate(ctx context.Context, flagID string, evalCtx domain.EvaluationContext) (*domain.EvaluationResult, error) {
	if evalCtx.UserID == "" {
		return nil, domain.NewMissingContextError("userId")
	}

	flag, ok := f.flags[flagID]
	if !ok {
		return &domain.EvaluationResult{FlagID: flagID, Reason: domain.ReasonDisabled}, nil
	}

	return &domain.EvaluationResult{
		FlagID:         flagID,
		Enabled:        flag.Status == domain.StatusEnabled,
		Reason:         domain.ReasonDisabled,
		EvaluationTime: 42 * time.Microsecond,
	}, nil
}

func (f *fakeEngine) List(ctx context.Context) ([]domain.Flag, error) {
	flags := make([]domain.Flag, 0, len(f.flags))
	for _, flag := range f.flags {
		flags = append(flags, flag)
	}
	return flags, nil
}

func (f *fakeEngine) Upsert(ctx context.Context, flag domain.Flag) (*domain.Flag, error) {
	if err := flag.Validate(); err != nil {
		return nil, err
	}
	f.flags[flag.ID] = flag
	return &flag, nil
}

func (f *fakeEngine) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := f.flags[id]
	delete(f.flags, id)
	return ok, nil
}

func (f *fakeEngine) InvalidateFlag(flagID string) {
	f.invalidated = append(f.invalidated, flagID)
}

func (f *fakeEngine) InvalidateAll() {
	f.cleared = true
}

func (f *fakeEngine) Stats() any {
	return map[string]int{"flags": len(f.flags)}
}

func newTestServer(t *testing.T, engine Engine, opts Options) *httptest.Server {
	t.Helper()

	ts := httptest.NewServer(New(engine, opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestServer_Evaluate(t *testing.T) {
	engine := newFakeEngine()
	engine.flags["on"] = domain.Flag{ID: "on", Name: "On Flag", Status: domain.StatusEnabled}
	ts := newTestServer(t, engine, Options{})

	resp, err := http.Get(ts.URL + "/evaluate?flag_id=on&user_id=user-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "on", body["flagId"])
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, "disabled", body["reason"])
}

func TestServer_Evaluate_MissingParams(t *testing.T) {
	ts := newTestServer(t, newFakeEngine(), Options{})

	for _, path := range []string{
		"/evaluate",
		"/evaluate?flag_id=on",
		"/evaluate?user_id=user-1",
		"/evaluate?flag_id=&user_id=user-1",
	} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "path %s", path)
	}
}

func TestServer_Evaluate_UnknownFlagIsOK(t *testing.T) {
	ts := newTestServer(t, newFakeEngine(), Options{})

	resp, err := http.Get(ts.URL + "/evaluate?flag_id=ghost&user_id=user-1")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["enabled"])
}

func TestServer_ListFlags(t *testing.T) {
	engine := newFakeEngine()
	engine.flags["a"] = domain.Flag{ID: "a", Name: "Flag A"}
	engine.flags["b"] = domain.Flag{ID: "b", Name: "Flag B"}
	ts := newTestServer(t, engine, Options{})

	resp, err := http.Get(ts.URL + "/flags")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var flags []domain.Flag
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&flags))
	assert.Len(t, flags, 2)
}

func TestServer_UpsertFlag(t *testing.T) {
	engine := newFakeEngine()
	ts := newTestServer(t, engine, Options{})

	body, _ := json.Marshal(domain.Flag{ID: "new", Name: "New Flag", Status: domain.StatusEnabled})
	resp, err := http.Post(ts.URL+"/flags", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, engine.flags, "new")
}

func TestServer_UpsertFlag_ValidationFailure(t *testing.T) {
	engine := newFakeEngine()
	ts := newTestServer(t, engine, Options{})

	body, _ := json.Marshal(domain.Flag{ID: "bad", Name: "ab"})
	resp, err := http.Post(ts.URL+"/flags", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotContains(t, engine.flags, "bad")
}

func TestServer_UpsertFlag_InvalidJSON(t *testing.T) {
	ts := newTestServer(t, newFakeEngine(), Options{})

	resp, err := http.Post(ts.URL+"/flags", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_WritePathAuthorization(t *testing.T) {
	engine := newFakeEngine()
	engine.flags["guarded"] = domain.Flag{ID: "guarded", Name: "Guarded Flag"}

	deny := func(r *http.Request) bool {
		return r.Header.Get("Authorization") == "Bearer admin-token"
	}
	ts := newTestServer(t, engine, Options{Authorize: deny})

	// Unauthorized upsert.
	body, _ := json.Marshal(domain.Flag{ID: "x", Name: "X Flag"})
	resp, err := http.Post(ts.URL+"/flags", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Unauthorized delete.
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/flags/guarded", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, engine.flags, "guarded")

	// Reads stay open.
	resp, err = http.Get(ts.URL + "/flags")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Authorized delete.
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/flags/guarded", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, engine.flags, "guarded")
}

func TestServer_DeleteFlag(t *testing.T) {
	engine := newFakeEngine()
	engine.flags["doomed"] = domain.Flag{ID: "doomed", Name: "Doomed Flag"}
	ts := newTestServer(t, engine, Options{})

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/flags/doomed", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body["deleted"])
}

func TestServer_HealthAndStats(t *testing.T) {
	ts := newTestServer(t, newFakeEngine(), Options{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	ts := newTestServer(t, newFakeEngine(), Options{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "caller-supplied")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "caller-supplied", resp.Header.Get("X-Request-ID"))
}
