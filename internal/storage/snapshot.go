// Package storage caches fetched entity records in a local SQLite database
// so statements can be rebuilt offline. Records are stored as raw JSON keyed
// by resource and id; like the API client, the cache knows no entity schema.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"vaad/internal/api"
)

type Snapshot struct {
	db *sql.DB
}

// Open opens (and if needed creates) the snapshot database at dbPath and
// runs pending migrations.
func Open(dbPath string) (*Snapshot, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Snapshot{db: db}, nil
}

func (s *Snapshot) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRecords replaces the cached snapshot of one resource with recs. The
// replacement is atomic: a failed save leaves the previous snapshot intact.
func (s *Snapshot) SaveRecords(ctx context.Context, resource string, recs []api.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE resource = ?`, resource); err != nil {
		return fmt.Errorf("clear %s snapshot: %w", resource, err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range recs {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s record %q: %w", resource, rec.ID(), err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO records (resource, record_id, payload, fetched_at) VALUES (?, ?, ?, ?)`,
			resource, rec.ID(), string(payload), now)
		if err != nil {
			return fmt.Errorf("insert %s record %q: %w", resource, rec.ID(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s snapshot: %w", resource, err)
	}

	slog.InfoContext(ctx, "Snapshot saved", "resource", resource, "records", len(recs))
	return nil
}

// LoadRecords returns the cached snapshot of one resource. An unknown
// resource yields an empty slice, not an error.
func (s *Snapshot) LoadRecords(ctx context.Context, resource string) ([]api.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM records WHERE resource = ? ORDER BY record_id`, resource)
	if err != nil {
		return nil, fmt.Errorf("query %s snapshot: %w", resource, err)
	}
	defer rows.Close()

	var recs []api.Record
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", resource, err)
		}
		var rec api.Record
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode cached %s record: %w", resource, err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FetchedAt returns when the resource's snapshot was taken. ok is false
// when no snapshot exists.
func (s *Snapshot) FetchedAt(ctx context.Context, resource string) (time.Time, bool, error) {
	var fetched sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(fetched_at) FROM records WHERE resource = ?`, resource).Scan(&fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("query %s snapshot age: %w", resource, err)
	}
	if !fetched.Valid || fetched.String == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339, fetched.String)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse %s snapshot timestamp: %w", resource, err)
	}
	return t, true, nil
}
