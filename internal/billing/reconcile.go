// Package billing computes end-of-month account balances. The functions are
// pure: they operate on transaction and obligation collections already
// fetched elsewhere and perform no I/O.
package billing

import (
	"strings"

	"github.com/shopspring/decimal"

	"vaad/internal/core"
)

// recurringChargeLabels marks a charge transaction as the materialized form
// of a standing monthly obligation. Matching is a case-insensitive substring
// check against exactly these phrases; a description that does not contain
// one of them is not counted as already-posted even if it is functionally a
// recurring charge. Statement math depends on the exact phrases, so changing
// them requires changing the data the charge jobs write.
var recurringChargeLabels = []string{
	"monthly membership",
	"additional monthly payment",
	"balance payoff plan",
}

// IsRecurringChargeLabel reports whether desc marks a posted recurring
// charge.
func IsRecurringChargeLabel(desc string) bool {
	d := strings.ToLower(desc)
	for _, label := range recurringChargeLabels {
		if strings.Contains(d, label) {
			return true
		}
	}
	return false
}

// ProjectedBalance computes the owner's balance as of the end of month.
// Obligations that have not yet been posted as a transaction in that month
// count as still owed, so a statement generated before the monthly charge
// job has run stays consistent with what will be charged. Transactions
// dated after the month's end are excluded entirely.
func ProjectedBalance(ownerID string, month core.Month, txs []core.Transaction, obligations []core.RecurringObligation) decimal.Decimal {
	charges, payments := upToMonthTotals(ownerID, month, txs)
	missing := missingMonthly(ownerID, month, txs, obligations)
	return charges.Sub(payments).Add(missing)
}

// PeriodTotals computes plain charge and payment totals for transactions
// dated within the month only. This is the "this month's activity" view and
// deliberately uses a different cutoff than ProjectedBalance, which
// accumulates everything up to the month's end.
func PeriodTotals(ownerID string, month core.Month, txs []core.Transaction) (charges, payments decimal.Decimal) {
	charges, payments = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.OwnerID != ownerID || !month.Contains(tx.Date.Time) {
			continue
		}
		switch tx.Type {
		case core.TxCharge:
			charges = charges.Add(tx.Amount)
		case core.TxPayment:
			payments = payments.Add(tx.Amount)
		}
	}
	return charges, payments
}

// Snapshot combines PeriodTotals and ProjectedBalance into the computed
// month view.
func Snapshot(ownerID string, month core.Month, txs []core.Transaction, obligations []core.RecurringObligation) core.PeriodSnapshot {
	charges, payments := PeriodTotals(ownerID, month, txs)
	return core.PeriodSnapshot{
		Month:            month,
		ChargesTotal:     charges,
		PaymentsTotal:    payments,
		ProjectedBalance: ProjectedBalance(ownerID, month, txs, obligations),
	}
}

// StandingMonthly sums the owner's active obligations: the amount expected
// every month regardless of whether it has been posted yet.
func StandingMonthly(ownerID string, obligations []core.RecurringObligation) decimal.Decimal {
	total := decimal.Zero
	for _, ob := range obligations {
		if ob.OwnerID == ownerID && ob.Active {
			total = total.Add(ob.AmountPerMonth)
		}
	}
	return total
}

// PostedRecurringThisMonth sums the owner's charges dated within the month
// whose descriptions mark them as materialized recurring charges.
func PostedRecurringThisMonth(ownerID string, month core.Month, txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.OwnerID != ownerID || tx.Type != core.TxCharge {
			continue
		}
		if month.Contains(tx.Date.Time) && IsRecurringChargeLabel(tx.Description) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// missingMonthly is the portion of the standing obligation not yet posted
// this month, floored at zero so duplicate postings never turn into credit.
func missingMonthly(ownerID string, month core.Month, txs []core.Transaction, obligations []core.RecurringObligation) decimal.Decimal {
	standing := StandingMonthly(ownerID, obligations)
	if standing.IsZero() {
		return decimal.Zero
	}
	missing := standing.Sub(PostedRecurringThisMonth(ownerID, month, txs))
	if missing.IsNegative() {
		return decimal.Zero
	}
	return missing
}

// upToMonthTotals sums the owner's charges and payments dated at or before
// the month's end. This is the accrual cutoff for the projected balance.
func upToMonthTotals(ownerID string, month core.Month, txs []core.Transaction) (charges, payments decimal.Decimal) {
	end := month.End()
	charges, payments = decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if tx.OwnerID != ownerID || tx.Date.After(end) {
			continue
		}
		switch tx.Type {
		case core.TxCharge:
			charges = charges.Add(tx.Amount)
		case core.TxPayment:
			payments = payments.Add(tx.Amount)
		}
	}
	return charges, payments
}
