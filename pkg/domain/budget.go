package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget is a monthly spending ceiling. Each user has at most one.
//
// Invariant: LastAlertSent, once set, is never reset within the same calendar
// month. It is the sole deduplication key for alerting.
type Budget struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Amount        decimal.Decimal
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PercentUsed returns spend as a percentage of the budget ceiling. A zero or
// negative ceiling yields 0 rather than dividing by zero.
func (b *Budget) PercentUsed(spent decimal.Decimal) float64 {
	if !b.Amount.IsPositive() {
		return 0
	}
	pct, _ := spent.Div(b.Amount).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// AlertedThisMonth reports whether an alert was already sent in now's
// calendar month. Re-crossing the threshold inside one month never re-alerts.
func (b *Budget) AlertedThisMonth(now time.Time) bool {
	return b.LastAlertSent != nil && SameMonth(*b.LastAlertSent, now)
}
