// Package api implements the authenticated client for the membership/billing
// backend: a transport that normalizes one HTTP exchange, a generic entity
// client with paginated fetch-all accumulation, and thin clients for the
// auth and checkout endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"vaad/internal/metrics"
	"vaad/internal/session"
)

// Transport performs one authenticated HTTP exchange against the backend
// and normalizes its outcome. It attaches the bearer credential from the
// session store when one is present and clears the store on a 401 before
// surfacing the failure. It never retries.
type Transport struct {
	baseURL   string
	client    *http.Client
	session   *session.Store
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewTransport creates a Transport. client may be nil, in which case
// http.DefaultClient is used; timeouts belong to the http.Client, not here.
func NewTransport(baseURL string, client *http.Client, sess *session.Store, logger *slog.Logger) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		session: sess,
		logger:  logger,
	}
}

// WithMetrics attaches a metrics collector recording request counts and
// latency.
func (t *Transport) WithMetrics(c *metrics.Collector) *Transport {
	t.collector = c
	return t
}

// Request performs one JSON exchange. A nil body sends no payload. The
// result is nil for 204 responses and for 2xx responses whose body is not
// valid JSON; callers must tolerate a nil payload on success.
func (t *Transport) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}
	return t.do(ctx, method, path, contentType, reader)
}

// RequestRaw performs one exchange with an opaque payload, e.g. a multipart
// form. The caller supplies the content type (multipart writers embed the
// boundary in it); outcome normalization is identical to Request.
func (t *Transport) RequestRaw(ctx context.Context, method, path, contentType string, body io.Reader) (json.RawMessage, error) {
	return t.do(ctx, method, path, contentType, body)
}

func (t *Transport) do(ctx context.Context, method, path, contentType string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := t.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		t.record(method, 0, start)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.record(method, resp.StatusCode, start)
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	t.record(method, resp.StatusCode, start)

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized {
			// Forced logout: must be visible to every subsequent call
			// before the failure reaches the caller.
			t.session.Clear()
			t.logger.Warn("Session expired, credential cleared", "method", method, "path", path)
		}
		return nil, newAPIError(resp.StatusCode, data)
	}
	if !json.Valid(data) {
		// Non-JSON success bodies resolve to no payload rather than an error.
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func (t *Transport) record(method string, status int, start time.Time) {
	if t.collector != nil {
		t.collector.RecordAPIRequest(method, status, time.Since(start))
	}
	t.logger.Debug("API request completed",
		"method", method,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds())
}
