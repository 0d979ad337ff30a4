package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennyflow/pennyflow/pkg/domain"
)

// User represents a user record in the database.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null;size:255"`
	Name      string    `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account represents an account record in the database.
type Account struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Name         string          `gorm:"not null;size:255"`
	Type         string          `gorm:"type:varchar(16);not null;default:'CURRENT'"`
	Balance      decimal.Decimal `gorm:"type:numeric(20,8);not null;default:0"`
	IsDefault    bool            `gorm:"not null;default:false"`
	Transactions []Transaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Transaction represents a persisted ledger entry or recurring template.
type Transaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	AccountID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	Kind              string          `gorm:"type:varchar(8);not null"`
	Amount            decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Description       string
	Category          string     `gorm:"size:128"`
	OccurredAt        time.Time  `gorm:"index"`
	IsRecurring       bool       `gorm:"index;not null;default:false"`
	RecurringInterval *string    `gorm:"type:varchar(8)"`
	NextRecurringDate *time.Time `gorm:"index"`
	LastProcessedAt   *time.Time
	Status            string `gorm:"type:varchar(16);not null;default:'COMPLETED'"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Budget represents a budget record in the database. The unique index on
// UserID enforces one budget per user.
type Budget struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Amount        decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	LastAlertSent *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m *User) toDomain() *domain.User {
	return &domain.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *Account) toDomain() *domain.Account {
	return &domain.Account{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		Type:      domain.AccountType(m.Type),
		Balance:   m.Balance,
		IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func (m *Transaction) toDomain() *domain.Transaction {
	tx := &domain.Transaction{
		ID:                m.ID,
		UserID:            m.UserID,
		AccountID:         m.AccountID,
		Kind:              domain.TransactionKind(m.Kind),
		Amount:            m.Amount,
		Description:       m.Description,
		Category:          m.Category,
		OccurredAt:        m.OccurredAt,
		IsRecurring:       m.IsRecurring,
		NextRecurringDate: m.NextRecurringDate,
		LastProcessedAt:   m.LastProcessedAt,
		Status:            domain.NormalizeStatus(m.Status),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if m.RecurringInterval != nil {
		tx.RecurringInterval = domain.RecurringInterval(*m.RecurringInterval)
	}
	return tx
}

func transactionModel(tx *domain.Transaction) *Transaction {
	m := &Transaction{
		ID:                tx.ID,
		UserID:            tx.UserID,
		AccountID:         tx.AccountID,
		Kind:              string(tx.Kind),
		Amount:            tx.Amount,
		Description:       tx.Description,
		Category:          tx.Category,
		OccurredAt:        tx.OccurredAt,
		IsRecurring:       tx.IsRecurring,
		NextRecurringDate: tx.NextRecurringDate,
		LastProcessedAt:   tx.LastProcessedAt,
		Status:            string(domain.NormalizeStatus(string(tx.Status))),
	}
	if tx.RecurringInterval != "" {
		interval := string(tx.RecurringInterval)
		m.RecurringInterval = &interval
	}
	return m
}

func (m *Budget) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:            m.ID,
		UserID:        m.UserID,
		Amount:        m.Amount,
		LastAlertSent: m.LastAlertSent,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
