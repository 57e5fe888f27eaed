package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// maxPageSize is the hard ceiling on a fetch-all page request, bounding
// memory and request cost regardless of caller input.
const maxPageSize = 1000

// Query is the page window for a single-page fetch. Zero values are
// omitted, leaving the server's defaults in effect. Limit is deliberately
// not clamped here: only the fetch-all loops enforce the ceiling.
type Query struct {
	Sort  string
	Limit int
	Page  int
}

func (q Query) encode() string {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Entity is the generic client for one named resource collection. It maps
// the resource onto the uniform CRUD + filter + bulk protocol and
// accumulates full result sets across server-side pagination.
type Entity struct {
	t    *Transport
	name string
}

// NewEntity creates a client for the named resource.
func NewEntity(t *Transport, resource string) *Entity {
	return &Entity{t: t, name: resource}
}

// Name returns the resource name this client is bound to.
func (e *Entity) Name() string {
	return e.name
}

func (e *Entity) path() string {
	return "/entities/" + url.PathEscape(e.name)
}

// List fetches a single page of records.
func (e *Entity) List(ctx context.Context, q Query) ([]Record, error) {
	raw, err := e.t.Request(ctx, http.MethodGet, e.path()+q.encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodePage(e.name, raw)
}

// Filter fetches a single page of records matching a structured predicate.
// The where clause is opaque to the client; the server interprets it.
func (e *Entity) Filter(ctx context.Context, where map[string]any, q Query) ([]Record, error) {
	raw, err := e.t.Request(ctx, http.MethodPost, e.path()+"/filter", filterBody(where, q))
	if err != nil {
		return nil, err
	}
	return decodePage(e.name, raw)
}

// ListAll fetches every record of the resource, walking pages of pageSize
// from page 1 until a short page signals end-of-data. pageSize is clamped
// to the hard ceiling; zero or negative means the ceiling. A transport
// failure on any page fails the whole call with no partial result.
func (e *Entity) ListAll(ctx context.Context, sort string, pageSize int) ([]Record, error) {
	return e.fetchAll(pageSize, func(page, size int) (json.RawMessage, error) {
		q := Query{Sort: sort, Limit: size, Page: page}
		return e.t.Request(ctx, http.MethodGet, e.path()+q.encode(), nil)
	})
}

// FilterAll is ListAll driven by a filter predicate instead of a plain list.
func (e *Entity) FilterAll(ctx context.Context, where map[string]any, sort string, pageSize int) ([]Record, error) {
	return e.fetchAll(pageSize, func(page, size int) (json.RawMessage, error) {
		return e.t.Request(ctx, http.MethodPost, e.path()+"/filter",
			filterBody(where, Query{Sort: sort, Limit: size, Page: page}))
	})
}

// fetchAll runs the accumulation loop shared by ListAll and FilterAll.
// Pages are requested strictly sequentially: page N+1 cannot be asked for
// before page N's length is known. A page that is missing or not an array
// terminates accumulation like a short page; it is not an error.
func (e *Entity) fetchAll(pageSize int, fetch func(page, size int) (json.RawMessage, error)) ([]Record, error) {
	size := clampPageSize(pageSize)
	var out []Record
	for page := 1; ; page++ {
		raw, err := fetch(page, size)
		if err != nil {
			return nil, err
		}
		var chunk []Record
		if raw == nil || json.Unmarshal(raw, &chunk) != nil {
			return out, nil
		}
		out = append(out, chunk...)
		if len(chunk) < size {
			return out, nil
		}
	}
}

func clampPageSize(n int) int {
	if n <= 0 || n > maxPageSize {
		return maxPageSize
	}
	return n
}

// Create posts one record and returns the created record.
func (e *Entity) Create(ctx context.Context, rec Record) (Record, error) {
	raw, err := e.t.Request(ctx, http.MethodPost, e.path(), rec)
	if err != nil {
		return nil, err
	}
	return decodeRecord(e.name, raw)
}

// Update patches the identified record and returns the updated record.
func (e *Entity) Update(ctx context.Context, id string, patch Record) (Record, error) {
	raw, err := e.t.Request(ctx, http.MethodPatch, e.path()+"/"+url.PathEscape(id), patch)
	if err != nil {
		return nil, err
	}
	return decodeRecord(e.name, raw)
}

// Delete removes the identified record.
func (e *Entity) Delete(ctx context.Context, id string) error {
	_, err := e.t.Request(ctx, http.MethodDelete, e.path()+"/"+url.PathEscape(id), nil)
	return err
}

// BulkCreate posts all records in a single request and returns the created
// records. The array is not chunked; callers whose payload may exceed a
// server size limit must pre-chunk it themselves.
func (e *Entity) BulkCreate(ctx context.Context, recs []Record) ([]Record, error) {
	raw, err := e.t.Request(ctx, http.MethodPost, e.path()+"/bulk", recs)
	if err != nil {
		return nil, err
	}
	return decodePage(e.name, raw)
}

func filterBody(where map[string]any, q Query) map[string]any {
	body := map[string]any{"where": where}
	if q.Sort != "" {
		body["sort"] = q.Sort
	}
	if q.Limit > 0 {
		body["limit"] = q.Limit
	}
	if q.Page > 0 {
		body["page"] = q.Page
	}
	return body
}

func decodePage(resource string, raw json.RawMessage) ([]Record, error) {
	if raw == nil {
		return nil, nil
	}
	var recs []Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("decode %s page: %w", resource, err)
	}
	return recs, nil
}

func decodeRecord(resource string, raw json.RawMessage) (Record, error) {
	if raw == nil {
		return nil, nil
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", resource, err)
	}
	return rec, nil
}
