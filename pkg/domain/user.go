package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the ownership root for accounts, budgets and transactions.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
