package statements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"vaad/internal/api"
	"vaad/internal/core"
	"vaad/internal/session"
	"vaad/internal/storage"
)

func TestSyncThenBuildOffline(t *testing.T) {
	data := map[string][]api.Record{
		ResourceMembers: {
			{"id": "m1", "name": "Ada"},
		},
		ResourceTransactions: {
			{"id": "t1", "ownerId": "m1", "type": "charge", "amount": "50",
				"date": "2024-03-01", "description": "Monthly Membership"},
			{"id": "t2", "ownerId": "m1", "type": "payment", "amount": "20",
				"date": "2024-03-10", "description": "cash"},
			{"id": "t3", "ownerId": "m2", "type": "charge", "amount": "99",
				"date": "2024-03-02", "description": "other member"},
		},
		ResourceObligations: {
			{"id": "o1", "ownerId": "m1", "amountPerMonth": "50", "active": true, "kind": "membership"},
		},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for resource, recs := range data {
			if r.URL.Path == "/entities/"+resource {
				json.NewEncoder(w).Encode(recs)
				return
			}
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	store, err := storage.Open(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	tr := api.NewTransport(srv.URL, srv.Client(), session.Open("", nil), nil)
	ctx := context.Background()
	if err := Sync(ctx, tr, store); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// From here on the server is out of the picture.
	srv.Close()

	b := NewBuilder(NewSnapshotSource(store), nil)
	st, err := b.Build(ctx, "m1", core.Month{Year: 2024, Month: time.March})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(st.Lines) != 2 {
		t.Fatalf("offline statement has %d lines, want m1's 2", len(st.Lines))
	}
	if !st.Snapshot.ProjectedBalance.Equal(d("30")) {
		t.Errorf("ProjectedBalance = %s, want 30", st.Snapshot.ProjectedBalance)
	}
}

func TestSnapshotSourceFiltersByOwner(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "snap.db"))
	if err != nil {
		t.Fatalf("storage.Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	recs := []api.Record{
		{"id": "t1", "ownerId": "m1", "type": "charge", "amount": "10", "date": "2024-03-01", "description": "x"},
		{"id": "t2", "ownerId": "m2", "type": "charge", "amount": "20", "date": "2024-03-01", "description": "y"},
	}
	if err := store.SaveRecords(ctx, ResourceTransactions, recs); err != nil {
		t.Fatalf("SaveRecords() error = %v", err)
	}

	src := NewSnapshotSource(store)
	txs, err := src.Transactions(ctx, "m2")
	if err != nil {
		t.Fatalf("Transactions() error = %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "t2" {
		t.Errorf("Transactions(m2) = %v, want only t2", txs)
	}
}
