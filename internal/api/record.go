package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Record is one entity record as returned by the backend. The client
// enforces no schema; every record is an opaque JSON object keyed by id.
// Typed domain wrappers belong in the layers above (see DecodeAll).
type Record map[string]any

// ID returns the record's identifier as a string. Numeric ids are
// formatted without an exponent.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// String returns the named field as a string, or "" when absent or not a
// string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Decimal returns the named field as a decimal, accepting JSON numbers and
// numeric strings. Absent or unparsable fields yield zero.
func (r Record) Decimal(key string) decimal.Decimal {
	switch v := r[key].(type) {
	case decimal.Decimal:
		return v
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero
		}
		return d
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// DecodeAll converts opaque records into typed domain values via a JSON
// round trip. This keeps schema knowledge out of the generic client.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode record %d (id %q): %w", i, rec.ID(), err)
		}
		out = append(out, v)
	}
	return out, nil
}
