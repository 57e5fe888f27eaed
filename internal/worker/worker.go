// Package worker materializes standing monthly obligations into posted
// charge transactions. Statements computed before the worker has run for a
// month still project the missing amount as owed; the worker is what turns
// that projection into real records.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"vaad/internal/amqp"
	"vaad/internal/api"
	"vaad/internal/billing"
	"vaad/internal/core"
	"vaad/internal/metrics"
	"vaad/internal/statements"
)

// chargeDescription is written on every materialized charge. It must match
// the recurring-charge labels the reconciler recognizes, otherwise reruns
// of the worker would double-post.
const chargeDescription = "Monthly Membership"

// bulkChunkSize bounds one bulk-create request. The entity client sends
// arrays unchunked, so the worker pre-chunks here.
const bulkChunkSize = 200

// Events publishes billing events. A nil Events disables publishing.
type Events interface {
	PublishChargePosted(ctx context.Context, msg *amqp.ChargePostedMessage) error
}

// Worker posts the month's missing recurring charges through the API.
type Worker struct {
	transactions *api.Entity
	obligations  *api.Entity
	events       Events
	collector    *metrics.Collector
	logger       *slog.Logger
}

// New creates a Worker. events may be nil.
func New(t *api.Transport, events Events, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		transactions: api.NewEntity(t, statements.ResourceTransactions),
		obligations:  api.NewEntity(t, statements.ResourceObligations),
		events:       events,
		logger:       logger,
	}
}

// WithMetrics attaches a metrics collector.
func (w *Worker) WithMetrics(c *metrics.Collector) *Worker {
	w.collector = c
	return w
}

// RunOnce posts every charge still missing for the given month and returns
// how many were created. Owners whose standing obligation is already fully
// posted are skipped, so the cycle is safe to rerun.
func (w *Worker) RunOnce(ctx context.Context, month core.Month) (int, error) {
	start := time.Now()

	obRecs, err := w.obligations.ListAll(ctx, "", 0)
	if err != nil {
		return 0, fmt.Errorf("fetch obligations: %w", err)
	}
	obs, err := api.DecodeAll[core.RecurringObligation](obRecs)
	if err != nil {
		return 0, fmt.Errorf("decode obligations: %w", err)
	}

	txRecs, err := w.transactions.FilterAll(ctx, map[string]any{
		"date": map[string]any{
			"$gte": month.Start().Format("2006-01-02"),
			"$lte": month.End().Format("2006-01-02"),
		},
	}, "", 0)
	if err != nil {
		return 0, fmt.Errorf("fetch month transactions: %w", err)
	}
	txs, err := api.DecodeAll[core.Transaction](txRecs)
	if err != nil {
		return 0, fmt.Errorf("decode month transactions: %w", err)
	}

	charges := w.missingCharges(month, obs, txs)
	if len(charges) == 0 {
		w.logger.Info("No missing recurring charges", "month", month.String())
		w.recordCycle(0)
		return 0, nil
	}

	for i := 0; i < len(charges); i += bulkChunkSize {
		end := min(i+bulkChunkSize, len(charges))
		if _, err := w.transactions.BulkCreate(ctx, charges[i:end]); err != nil {
			return 0, fmt.Errorf("post recurring charges: %w", err)
		}
	}

	w.publishEvents(ctx, month, charges)
	w.recordCycle(len(charges))

	w.logger.Info("Recurring charges posted",
		"month", month.String(),
		"charges", len(charges),
		"duration_ms", time.Since(start).Milliseconds())
	return len(charges), nil
}

// missingCharges builds one charge record per owner whose standing monthly
// obligation exceeds what is already posted for the month.
func (w *Worker) missingCharges(month core.Month, obs []core.RecurringObligation, txs []core.Transaction) []api.Record {
	var owners []string
	seen := make(map[string]bool)
	for _, ob := range obs {
		if ob.Active && !seen[ob.OwnerID] {
			seen[ob.OwnerID] = true
			owners = append(owners, ob.OwnerID)
		}
	}

	chargeDate := core.NewDate(month.Year, month.Month, 1)
	var charges []api.Record
	for _, owner := range owners {
		standing := billing.StandingMonthly(owner, obs)
		posted := billing.PostedRecurringThisMonth(owner, month, txs)
		missing := standing.Sub(posted)
		if !missing.IsPositive() {
			continue
		}
		charges = append(charges, api.Record{
			"ownerId":     owner,
			"type":        string(core.TxCharge),
			"amount":      missing,
			"date":        chargeDate,
			"description": chargeDescription,
		})
	}
	return charges
}

// publishEvents announces posted charges. Publish failures are logged and
// do not fail the cycle; the charges are already posted.
func (w *Worker) publishEvents(ctx context.Context, month core.Month, charges []api.Record) {
	if w.events == nil {
		return
	}
	for _, charge := range charges {
		msg := amqp.NewChargePostedMessage(charge.String("ownerId"), charge.Decimal("amount"), month)
		if err := w.events.PublishChargePosted(ctx, msg); err != nil {
			w.logger.Error("Failed to publish charge-posted event",
				"owner", msg.OwnerID, "error", err)
		}
	}
}

func (w *Worker) recordCycle(posted int) {
	if w.collector == nil {
		return
	}
	w.collector.RecordWorkerCycle()
	w.collector.RecordChargesPosted(posted)
}

// Start runs RunOnce on the given cron schedule until ctx is cancelled.
// The current month at each firing is the one charged.
func (w *Worker) Start(ctx context.Context, cronSpec string) error {
	c := cron.New()
	_, err := c.AddFunc(cronSpec, func() {
		month := core.MonthOf(time.Now())
		if _, err := w.RunOnce(ctx, month); err != nil {
			w.logger.Error("Recurring charge cycle failed", "month", month.String(), "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", cronSpec, err)
	}

	c.Start()
	w.logger.Info("Recurring charge worker started", "cron", cronSpec)
	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("Recurring charge worker stopped")
	return nil
}
