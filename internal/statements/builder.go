// Package statements builds monthly member statements from transaction and
// obligation data, either live from the API or from the local snapshot
// cache.
package statements

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"vaad/internal/api"
	"vaad/internal/billing"
	"vaad/internal/core"
)

// Resource names on the backend's uniform entity protocol.
const (
	ResourceTransactions = "Transaction"
	ResourceObligations  = "RecurringPayment"
	ResourceMembers      = "Member"
)

// Source provides the collections a statement is computed from. The two
// fetches carry no joint-snapshot guarantee; statements tolerate read skew.
type Source interface {
	Transactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	Obligations(ctx context.Context, ownerID string) ([]core.RecurringObligation, error)
}

// Statement is a member's month: computed totals plus the month's posted
// line items in date order.
type Statement struct {
	OwnerID  string
	Month    core.Month
	Snapshot core.PeriodSnapshot
	Lines    []core.Transaction
}

// Builder assembles statements from a Source.
type Builder struct {
	src    Source
	logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(src Source, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{src: src, logger: logger}
}

// Build fetches the owner's data and computes the statement for month.
// Transactions and obligations are fetched concurrently.
func (b *Builder) Build(ctx context.Context, ownerID string, month core.Month) (*Statement, error) {
	var (
		txs []core.Transaction
		obs []core.RecurringObligation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = b.src.Transactions(gctx, ownerID)
		return err
	})
	g.Go(func() error {
		var err error
		obs, err = b.src.Obligations(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch statement data for %s: %w", ownerID, err)
	}

	snap := billing.Snapshot(ownerID, month, txs, obs)
	lines := make([]core.Transaction, 0)
	for _, tx := range txs {
		if tx.OwnerID == ownerID && month.Contains(tx.Date.Time) {
			lines = append(lines, tx)
		}
	}
	slices.SortStableFunc(lines, func(a, b core.Transaction) int {
		return a.Date.Compare(b.Date.Time)
	})

	b.logger.Debug("Statement built",
		"owner", ownerID,
		"month", month.String(),
		"lines", len(lines),
		"projected_balance", snap.ProjectedBalance.String())

	return &Statement{
		OwnerID:  ownerID,
		Month:    month,
		Snapshot: snap,
		Lines:    lines,
	}, nil
}

// APISource fetches statement data live through the generic entity clients.
type APISource struct {
	transactions *api.Entity
	obligations  *api.Entity
}

// NewAPISource creates a Source backed by the remote API.
func NewAPISource(t *api.Transport) *APISource {
	return &APISource{
		transactions: api.NewEntity(t, ResourceTransactions),
		obligations:  api.NewEntity(t, ResourceObligations),
	}
}

// Transactions fetches the owner's full transaction history.
func (s *APISource) Transactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	recs, err := s.transactions.FilterAll(ctx, map[string]any{"ownerId": ownerID}, "date", 0)
	if err != nil {
		return nil, err
	}
	return api.DecodeAll[core.Transaction](recs)
}

// Obligations fetches the owner's recurring obligations.
func (s *APISource) Obligations(ctx context.Context, ownerID string) ([]core.RecurringObligation, error) {
	recs, err := s.obligations.FilterAll(ctx, map[string]any{"ownerId": ownerID}, "", 0)
	if err != nil {
		return nil, err
	}
	return api.DecodeAll[core.RecurringObligation](recs)
}
