// Package labels is the client for the calendar-label collaborator, which
// maps dates to display labels (holidays, Hebrew dates). The calendar math
// itself lives on the server; this client only looks labels up.
package labels

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vaad/internal/api"
	"vaad/internal/cache"
	"vaad/internal/core"
)

// Client looks up calendar labels through the shared transport. Labels for
// a date never change, so results are cached.
type Client struct {
	t     *api.Transport
	cache *cache.LRU[string]
}

// New creates a label client.
func New(t *api.Transport) *Client {
	return &Client{
		t:     t,
		cache: cache.New[string](512, 24*time.Hour),
	}
}

// Lookup returns the label for the given date, or "" when the calendar has
// none for it.
func (c *Client) Lookup(ctx context.Context, d core.Date) (string, error) {
	key := d.Format("2006-01-02")
	if label, ok := c.cache.Get(key); ok {
		return label, nil
	}
	raw, err := c.t.Request(ctx, http.MethodGet, "/calendar/labels?date="+url.QueryEscape(key), nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Label string `json:"label"`
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &out); err != nil {
			return "", fmt.Errorf("decode label response: %w", err)
		}
	}
	c.cache.Set(key, out.Label)
	return out.Label, nil
}
