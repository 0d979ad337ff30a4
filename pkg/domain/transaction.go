package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money coming in from money going out.
type TransactionKind string

const (
	KindIncome  TransactionKind = "INCOME"
	KindExpense TransactionKind = "EXPENSE"
)

// TransactionStatus is the processing state of a ledger entry.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
)

// NormalizeStatus canonicalizes a status value to its uppercase form.
// Historical records carry mixed-case values ("completed"), which the
// scheduler tolerates on reads while writing only canonical values.
func NormalizeStatus(s string) TransactionStatus {
	return TransactionStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// IsCompleted reports whether the status is COMPLETED, case-insensitively.
func (s TransactionStatus) IsCompleted() bool {
	return strings.EqualFold(string(s), string(StatusCompleted))
}

// RecurringSuffix marks transactions materialized from a recurring template.
const RecurringSuffix = " (Recurring)"

// Transaction is a single ledger entry. A transaction with IsRecurring set is
// a template: it defines a schedule and is never itself part of any balance;
// the scheduler materializes concrete copies from it as they come due.
//
// Invariants:
//   - A scheduled template always has both RecurringInterval and
//     NextRecurringDate populated.
//   - Once set, NextRecurringDate is strictly after LastProcessedAt.
//   - Amount is never negative; direction is carried by Kind.
type Transaction struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	AccountID         uuid.UUID
	Kind              TransactionKind
	Amount            decimal.Decimal
	Description       string
	Category          string
	OccurredAt        time.Time
	IsRecurring       bool
	RecurringInterval RecurringInterval
	NextRecurringDate *time.Time
	LastProcessedAt   *time.Time
	Status            TransactionStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Due reports whether a template is ready to be materialized. A template that
// has never been processed is always due; otherwise its next occurrence must
// have arrived.
func (t *Transaction) Due(now time.Time) bool {
	if t.LastProcessedAt == nil {
		return true
	}
	return t.NextRecurringDate != nil && !t.NextRecurringDate.After(now)
}

// SignedAmount returns the balance delta this transaction applies to its
// account: positive for INCOME, negative for EXPENSE.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Kind == KindExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Materialize builds the concrete, non-recurring copy of a template, dated
// now and marked with the recurring suffix. The copy gets a fresh identity;
// the template itself is never duplicated or deleted.
func (t *Transaction) Materialize(now time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		Kind:        t.Kind,
		Amount:      t.Amount,
		Description: t.Description + RecurringSuffix,
		Category:    t.Category,
		OccurredAt:  now,
		IsRecurring: false,
		Status:      StatusCompleted,
	}
}

// Advance moves the template past the occurrence just materialized:
// LastProcessedAt becomes now and NextRecurringDate becomes now plus one
// interval unit. Both fields move together or not at all; callers persist
// them inside the same atomic commit as the materialized copy.
func (t *Transaction) Advance(now time.Time) {
	next := t.RecurringInterval.Next(now)
	t.LastProcessedAt = &now
	t.NextRecurringDate = &next
}
