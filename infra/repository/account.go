package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pennyflow/pennyflow/pkg/domain"
)

// AccountRepo is the gorm-backed account repository.
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository bound to db.
func NewAccountRepository(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Get returns the account with the given id.
func (r *AccountRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return m.toDomain(), nil
}

// ApplyBalanceDelta adds delta to the account balance with a single
// relative update, so concurrent units never clobber each other's deltas.
func (r *AccountRepo) ApplyBalanceDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("apply balance delta: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DefaultForUser returns the user's default account.
func (r *AccountRepo) DefaultForUser(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNoDefaultAccount
	}
	if err != nil {
		return nil, fmt.Errorf("default account for user: %w", err)
	}
	return m.toDomain(), nil
}
