package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType classifies a balance-bearing account.
type AccountType string

const (
	AccountCurrent AccountType = "CURRENT"
	AccountSavings AccountType = "SAVINGS"
)

// Account is a balance-bearing container owned by exactly one user.
//
// Invariant: Balance equals the signed sum of all COMPLETED transactions
// referencing the account. Every scheduler mutation preserves this by
// writing the transaction row and the balance delta in one commit.
type Account struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      AccountType
	Balance   decimal.Decimal
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
