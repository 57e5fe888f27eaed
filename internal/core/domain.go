package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TxCharge   TxType = "charge"
	TxPayment  TxType = "payment"
	TxDonation TxType = "donation"
)

type (
	// TxType is the direction of a posted transaction. Amounts are always
	// non-negative; the type alone decides whether an amount is owed or paid.
	TxType string

	// Date is a calendar date without a time-of-day component.
	Date struct {
		time.Time
	}

	// Transaction is a finalized charge, payment or donation posted against
	// an owner's account.
	Transaction struct {
		ID          string          `json:"id,omitempty"`
		OwnerID     string          `json:"ownerId"`
		Type        TxType          `json:"type"`
		Amount      decimal.Decimal `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
	}

	// RecurringObligation is a standing monthly charge that may or may not
	// have been materialized into a posted Transaction for a given month.
	RecurringObligation struct {
		ID             string          `json:"id,omitempty"`
		OwnerID        string          `json:"ownerId"`
		AmountPerMonth decimal.Decimal `json:"amountPerMonth"`
		Active         bool            `json:"active"`
		Kind           string          `json:"kind"`
	}

	// PeriodSnapshot is the computed view of one owner's month. It is derived
	// on demand from transactions and obligations and never persisted.
	PeriodSnapshot struct {
		Month            Month
		ChargesTotal     decimal.Decimal
		PaymentsTotal    decimal.Decimal
		ProjectedBalance decimal.Decimal
	}
)

var (
	ErrEmptyOwner       = errors.New("empty owner id")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidDate      = errors.New("invalid date")
)

// Valid reports whether t is one of the recognized transaction types.
func (t TxType) Valid() bool {
	switch t {
	case TxCharge, TxPayment, TxDonation:
		return true
	default:
		return false
	}
}

func (tx Transaction) Validate() error {
	if strings.TrimSpace(tx.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if !tx.Type.Valid() {
		return ErrInvalidType
	}
	if tx.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if tx.Date.IsZero() {
		return ErrInvalidDate
	}
	if strings.TrimSpace(tx.Description) == "" {
		return ErrEmptyDescription
	}
	return nil
}

func (o RecurringObligation) Validate() error {
	if strings.TrimSpace(o.OwnerID) == "" {
		return ErrEmptyOwner
	}
	if o.AmountPerMonth.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts "2006-01-02" and falls back to RFC 3339 timestamps,
// which some backends emit for date fields. The time-of-day is discarded.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return nil
}
