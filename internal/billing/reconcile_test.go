package billing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"vaad/internal/core"
)

func d(v string) decimal.Decimal {
	dec, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return dec
}

func tx(owner string, typ core.TxType, amount string, date core.Date, desc string) core.Transaction {
	return core.Transaction{
		OwnerID:     owner,
		Type:        typ,
		Amount:      d(amount),
		Date:        date,
		Description: desc,
	}
}

func obligation(owner, amount string, active bool) core.RecurringObligation {
	return core.RecurringObligation{
		OwnerID:        owner,
		AmountPerMonth: d(amount),
		Active:         active,
		Kind:           "membership",
	}
}

func TestIsRecurringChargeLabel(t *testing.T) {
	tests := []struct {
		name string
		desc string
		want bool
	}{
		{"exact label", "monthly membership", true},
		{"mixed case", "Monthly Membership", true},
		{"label inside longer description", "March Monthly Membership dues", true},
		{"additional payment label", "Additional Monthly Payment", true},
		{"payoff plan label", "Balance Payoff Plan installment", true},
		{"functionally recurring but unlabeled", "monthly dues", false},
		{"typo is not matched", "monthy membership", false},
		{"empty description", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRecurringChargeLabel(tt.desc); got != tt.want {
				t.Errorf("IsRecurringChargeLabel(%q) = %v, want %v", tt.desc, got, tt.want)
			}
		})
	}
}

func TestProjectedBalance(t *testing.T) {
	month := core.Month{Year: 2026, Month: time.March}

	tests := []struct {
		name        string
		txs         []core.Transaction
		obligations []core.RecurringObligation
		want        string
	}{
		{
			name: "charges minus payments, no obligations",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 1), "event fee"),
				tx("m1", core.TxPayment, "20", core.NewDate(2026, time.March, 15), "payment"),
			},
			want: "30",
		},
		{
			name:        "no transactions, one unposted obligation",
			obligations: []core.RecurringObligation{obligation("m1", "75", true)},
			want:        "75",
		},
		{
			name: "obligation already posted this month is not double-counted",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "75", core.NewDate(2026, time.March, 3), "Monthly Membership"),
			},
			obligations: []core.RecurringObligation{obligation("m1", "75", true)},
			want:        "75",
		},
		{
			name: "overposted recurring charges never go negative",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 2), "Monthly Membership"),
				tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 20), "Monthly Membership"),
			},
			obligations: []core.RecurringObligation{obligation("m1", "75", true)},
			want:        "100",
		},
		{
			name: "transaction after month end is excluded entirely",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 10), "event fee"),
				tx("m1", core.TxCharge, "999", core.NewDate(2026, time.April, 1), "event fee"),
			},
			want: "50",
		},
		{
			name: "prior months accrue into the balance",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "75", core.NewDate(2026, time.January, 1), "Monthly Membership"),
				tx("m1", core.TxPayment, "40", core.NewDate(2026, time.February, 10), "payment"),
			},
			obligations: []core.RecurringObligation{obligation("m1", "75", true)},
			// 75 charged - 40 paid + 75 still unposted for March
			want: "110",
		},
		{
			name: "inactive obligations are ignored",
			obligations: []core.RecurringObligation{
				obligation("m1", "75", false),
				obligation("m1", "25", true),
			},
			want: "25",
		},
		{
			name: "recurring charge posted in a prior month does not satisfy this month",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "75", core.NewDate(2026, time.February, 1), "Monthly Membership"),
			},
			obligations: []core.RecurringObligation{obligation("m1", "75", true)},
			// February's 75 accrues, March's 75 is still owed
			want: "150",
		},
		{
			name: "other owners' data is ignored",
			txs: []core.Transaction{
				tx("m2", core.TxCharge, "500", core.NewDate(2026, time.March, 1), "event fee"),
			},
			obligations: []core.RecurringObligation{obligation("m2", "75", true)},
			want: "0",
		},
		{
			name: "donations affect neither charges nor payments",
			txs: []core.Transaction{
				tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 1), "event fee"),
				tx("m1", core.TxDonation, "200", core.NewDate(2026, time.March, 5), "donation"),
			},
			want: "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectedBalance("m1", month, tt.txs, tt.obligations)
			if !got.Equal(d(tt.want)) {
				t.Errorf("ProjectedBalance() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPeriodTotalsUsesWithinMonthCutoff(t *testing.T) {
	month := core.Month{Year: 2026, Month: time.March}
	txs := []core.Transaction{
		tx("m1", core.TxCharge, "100", core.NewDate(2026, time.February, 20), "event fee"),
		tx("m1", core.TxCharge, "50", core.NewDate(2026, time.March, 1), "event fee"),
		tx("m1", core.TxPayment, "30", core.NewDate(2026, time.March, 31), "payment"),
		tx("m1", core.TxPayment, "500", core.NewDate(2026, time.April, 1), "payment"),
	}

	charges, payments := PeriodTotals("m1", month, txs)
	if !charges.Equal(d("50")) {
		t.Errorf("charges = %s, want 50 (February charge must not count)", charges)
	}
	if !payments.Equal(d("30")) {
		t.Errorf("payments = %s, want 30 (April payment must not count)", payments)
	}
}

func TestSnapshotCombinesBothCutoffs(t *testing.T) {
	month := core.Month{Year: 2026, Month: time.March}
	txs := []core.Transaction{
		tx("m1", core.TxCharge, "100", core.NewDate(2026, time.January, 5), "event fee"),
		tx("m1", core.TxPayment, "60", core.NewDate(2026, time.March, 10), "payment"),
	}
	obs := []core.RecurringObligation{obligation("m1", "75", true)}

	snap := Snapshot("m1", month, txs, obs)
	if !snap.ChargesTotal.Equal(d("0")) {
		t.Errorf("ChargesTotal = %s, want 0", snap.ChargesTotal)
	}
	if !snap.PaymentsTotal.Equal(d("60")) {
		t.Errorf("PaymentsTotal = %s, want 60", snap.PaymentsTotal)
	}
	// 100 - 60 + 75 unposted
	if !snap.ProjectedBalance.Equal(d("115")) {
		t.Errorf("ProjectedBalance = %s, want 115", snap.ProjectedBalance)
	}
}

func TestPostedRecurringThisMonth(t *testing.T) {
	month := core.Month{Year: 2026, Month: time.March}
	txs := []core.Transaction{
		tx("m1", core.TxCharge, "75", core.NewDate(2026, time.March, 1), "Monthly Membership"),
		tx("m1", core.TxCharge, "10", core.NewDate(2026, time.March, 2), "Additional Monthly Payment"),
		tx("m1", core.TxCharge, "30", core.NewDate(2026, time.March, 3), "event fee"),
		tx("m1", core.TxPayment, "75", core.NewDate(2026, time.March, 4), "Monthly Membership"),
		tx("m1", core.TxCharge, "75", core.NewDate(2026, time.February, 1), "Monthly Membership"),
	}

	got := PostedRecurringThisMonth("m1", month, txs)
	// Only the two labeled March charges; payments never count.
	if !got.Equal(d("85")) {
		t.Errorf("PostedRecurringThisMonth() = %s, want 85", got)
	}
}
