package statements

import (
	"context"
	"fmt"

	"vaad/internal/api"
	"vaad/internal/core"
	"vaad/internal/storage"
)

// SnapshotSource serves statement data from the local snapshot cache so
// statements can be rebuilt without network access. Filtering to a single
// owner happens in memory; the cached collections are small.
type SnapshotSource struct {
	store *storage.Snapshot
}

// NewSnapshotSource creates a Source over the snapshot cache.
func NewSnapshotSource(store *storage.Snapshot) *SnapshotSource {
	return &SnapshotSource{store: store}
}

func (s *SnapshotSource) Transactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	recs, err := s.store.LoadRecords(ctx, ResourceTransactions)
	if err != nil {
		return nil, err
	}
	txs, err := api.DecodeAll[core.Transaction](recs)
	if err != nil {
		return nil, err
	}
	return filterByOwner(txs, func(tx core.Transaction) string { return tx.OwnerID }, ownerID), nil
}

func (s *SnapshotSource) Obligations(ctx context.Context, ownerID string) ([]core.RecurringObligation, error) {
	recs, err := s.store.LoadRecords(ctx, ResourceObligations)
	if err != nil {
		return nil, err
	}
	obs, err := api.DecodeAll[core.RecurringObligation](recs)
	if err != nil {
		return nil, err
	}
	return filterByOwner(obs, func(ob core.RecurringObligation) string { return ob.OwnerID }, ownerID), nil
}

func filterByOwner[T any](items []T, owner func(T) string, ownerID string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if owner(item) == ownerID {
			out = append(out, item)
		}
	}
	return out
}

// Sync refreshes the snapshot cache from the API, fetching each statement
// resource in full and replacing its cached copy.
func Sync(ctx context.Context, t *api.Transport, store *storage.Snapshot) error {
	for _, resource := range []string{ResourceMembers, ResourceTransactions, ResourceObligations} {
		recs, err := api.NewEntity(t, resource).ListAll(ctx, "", 0)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", resource, err)
		}
		if err := store.SaveRecords(ctx, resource, recs); err != nil {
			return fmt.Errorf("cache %s: %w", resource, err)
		}
	}
	return nil
}
