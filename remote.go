package flagengine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// RemoteClient talks to an engine exposed over HTTP by Handler. Its
// Evaluate method satisfies EvaluateFunc, so a Watcher works the same
// against a local engine or a remote one.
type RemoteClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

// RemoteConfig configures a RemoteClient.
type RemoteConfig struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
}

// NewRemoteClient creates a client for a remote engine.
func NewRemoteClient(cfg RemoteConfig) *RemoteClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &RemoteClient{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
	}
}

type remoteEvaluation struct {
	FlagID           string  `json:"flagId"`
	Enabled          bool    `json:"enabled"`
	Variant          string  `json:"variant"`
	Reason           Reason  `json:"reason"`
	EvaluationTimeMs float64 `json:"evaluationTimeMs"`
}

// Evaluate evaluates a flag remotely.
func (c *RemoteClient) Evaluate(ctx context.Context, flagID string, evalCtx Context) (*Result, error) {
	q := url.Values{}
	q.Set("flag_id", flagID)
	q.Set("user_id", evalCtx.UserID)
	if evalCtx.OrganizationID != "" {
		q.Set("organization_id", evalCtx.OrganizationID)
	}
	if evalCtx.Email != "" {
		q.Set("email", evalCtx.Email)
	}

	var resp remoteEvaluation
	if err := c.doRequest(ctx, http.MethodGet, c.endpoint+"/evaluate?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("remote evaluation of %q failed: %w", flagID, err)
	}

	return &Result{
		FlagID:         resp.FlagID,
		Enabled:        resp.Enabled,
		Variant:        resp.Variant,
		Reason:         resp.Reason,
		EvaluationTime: time.Duration(resp.EvaluationTimeMs * float64(time.Millisecond)),
	}, nil
}

// ListFlags lists the flags registered on the remote engine.
func (c *RemoteClient) ListFlags(ctx context.Context) ([]Flag, error) {
	var flags []Flag
	if err := c.doRequest(ctx, http.MethodGet, c.endpoint+"/flags", nil, &flags); err != nil {
		return nil, fmt.Errorf("failed to list flags: %w", err)
	}
	return flags, nil
}

// UpsertFlag creates or replaces a flag on the remote engine.
func (c *RemoteClient) UpsertFlag(ctx context.Context, flag Flag) (*Flag, error) {
	var stored Flag
	if err := c.doRequest(ctx, http.MethodPost, c.endpoint+"/flags", flag, &stored); err != nil {
		return nil, fmt.Errorf("failed to upsert flag %q: %w", flag.ID, err)
	}
	return &stored, nil
}

// DeleteFlag removes a flag on the remote engine.
func (c *RemoteClient) DeleteFlag(ctx context.Context, id string) (bool, error) {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	if err := c.doRequest(ctx, http.MethodDelete, c.endpoint+"/flags/"+url.PathEscape(id), nil, &resp); err != nil {
		return false, fmt.Errorf("failed to delete flag %q: %w", id, err)
	}
	return resp.Deleted, nil
}

// HealthCheck verifies the remote engine is reachable.
func (c *RemoteClient) HealthCheck(ctx context.Context) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := c.doRequest(ctx, http.MethodGet, c.endpoint+"/health", nil, &health); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if health.Status != "healthy" {
		return fmt.Errorf("unhealthy status: %s", health.Status)
	}
	return nil
}

// doRequest performs an HTTP request with retries.
func (c *RemoteClient) doRequest(ctx context.Context, method, rawURL string, body any, result any) error {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 500 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := c.doSingleRequest(ctx, method, rawURL, body, result)
		if err == nil {
			return nil
		}

		lastErr = err
		if !shouldRetry(err) {
			return lastErr
		}
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *RemoteClient) doSingleRequest(ctx context.Context, method, rawURL string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}

func shouldRetry(err error) bool {
	if httpErr, ok := err.(*HTTPError); ok {
		// Retry on 5xx and 429.
		return httpErr.StatusCode >= 500 || httpErr.StatusCode == http.StatusTooManyRequests
	}
	// Network errors are retryable.
	return true
}

// HTTPError represents a non-2xx response from the remote engine.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
