package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pennyflow/pennyflow/pkg/domain"
)

// TransactionRepo is the gorm-backed transaction repository.
type TransactionRepo struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository bound to db,
// which may be a transaction session supplied by the unit of work.
func NewTransactionRepository(db *gorm.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

// Get returns the transaction matching both id and owning user. Ownership
// mismatches are indistinguishable from missing records on purpose.
func (r *TransactionRepo) Get(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return m.toDomain(), nil
}

// Create persists a new transaction.
func (r *TransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	if err := r.db.WithContext(ctx).Create(transactionModel(tx)).Error; err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an existing transaction.
func (r *TransactionRepo) Update(ctx context.Context, tx *domain.Transaction) error {
	res := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Where("id = ?", tx.ID).
		Updates(map[string]any{
			"status":              string(tx.Status),
			"last_processed_at":   tx.LastProcessedAt,
			"next_recurring_date": tx.NextRecurringDate,
		})
	if res.Error != nil {
		return fmt.Errorf("update transaction: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListDueRecurring returns recurring templates whose next occurrence has
// arrived. Status is matched case-insensitively: historical rows carry
// mixed-case values.
func (r *TransactionRepo) ListDueRecurring(ctx context.Context, now time.Time) ([]*domain.Transaction, error) {
	var ms []Transaction
	err := r.db.WithContext(ctx).
		Where("is_recurring = ?", true).
		Where("upper(status) = ?", string(domain.StatusCompleted)).
		Where("last_processed_at IS NULL OR next_recurring_date <= ?", now).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list due recurring: %w", err)
	}
	out := make([]*domain.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].toDomain())
	}
	return out, nil
}

// SumExpenses totals EXPENSE amounts against the account in [from, to).
func (r *TransactionRepo) SumExpenses(ctx context.Context, accountID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("coalesce(sum(amount), 0)").
		Where("account_id = ? AND kind = ?", accountID, string(domain.KindExpense)).
		Where("occurred_at >= ? AND occurred_at < ?", from, to).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// ListForUserBetween returns a user's transactions with occurredAt in [from, to].
func (r *TransactionRepo) ListForUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Transaction, error) {
	var ms []Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND occurred_at >= ? AND occurred_at <= ?", userID, from, to).
		Find(&ms).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions for user: %w", err)
	}
	out := make([]*domain.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, ms[i].toDomain())
	}
	return out, nil
}
