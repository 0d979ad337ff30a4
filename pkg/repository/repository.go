// Package repository defines the persistence contracts consumed by the
// scheduler. Implementations live under infra/repository.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennyflow/pennyflow/pkg/domain"
)

// TransactionRepository is the data access contract for ledger entries and
// recurring templates.
type TransactionRepository interface {
	// Get returns the transaction matching both id and owning user.
	// A missing record or an ownership mismatch both return domain.ErrNotFound.
	Get(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error)

	// Create persists a new transaction.
	Create(ctx context.Context, tx *domain.Transaction) error

	// Update persists changes to an existing transaction.
	Update(ctx context.Context, tx *domain.Transaction) error

	// ListDueRecurring returns all recurring templates whose next occurrence
	// has arrived: isRecurring, status COMPLETED (matched case-insensitively),
	// and never processed or nextRecurringDate <= now.
	ListDueRecurring(ctx context.Context, now time.Time) ([]*domain.Transaction, error)

	// SumExpenses totals EXPENSE amounts against an account in [from, to).
	SumExpenses(ctx context.Context, accountID uuid.UUID, from, to time.Time) (decimal.Decimal, error)

	// ListForUserBetween returns a user's transactions in [from, to].
	ListForUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Transaction, error)
}

// AccountRepository is the data access contract for accounts.
type AccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Account, error)

	// ApplyBalanceDelta adds delta to the account balance in place. Callers
	// invoke it inside a unit of work together with the transaction write
	// that justifies the delta.
	ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error

	// DefaultForUser returns the user's account flagged isDefault, or
	// domain.ErrNoDefaultAccount.
	DefaultForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
}

// BudgetWithAccount pairs a budget with its owner and the owner's default
// account, as loaded in one query by the evaluator.
type BudgetWithAccount struct {
	Budget  domain.Budget
	User    domain.User
	Account domain.Account
}

// BudgetRepository is the data access contract for budgets.
type BudgetRepository interface {
	// ListWithDefaultAccount returns every budget joined with its owning
	// user and that user's default account. Budgets whose owner has no
	// default account are omitted.
	ListWithDefaultAccount(ctx context.Context) ([]BudgetWithAccount, error)

	// UpdateAlertTimestamp stamps lastAlertSent on a budget.
	UpdateAlertTimestamp(ctx context.Context, budgetID uuid.UUID, when time.Time) error
}

// UserWithAccounts pairs a user with their accounts for report generation.
type UserWithAccounts struct {
	User     domain.User
	Accounts []domain.Account
}

// UserRepository is the data access contract for users.
type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// ListWithAccounts returns all users together with their accounts.
	ListWithAccounts(ctx context.Context) ([]UserWithAccounts, error)
}
