package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// UserRepo is the gorm-backed user repository.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepository creates a user repository bound to db.
func NewUserRepository(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Get returns the user with the given id.
func (r *UserRepo) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var m User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return m.toDomain(), nil
}

// ListWithAccounts returns all users together with their accounts.
func (r *UserRepo) ListWithAccounts(ctx context.Context) ([]repository.UserWithAccounts, error) {
	var users []User
	if err := r.db.WithContext(ctx).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]repository.UserWithAccounts, 0, len(users))
	for i := range users {
		u := &users[i]
		var accounts []Account
		if err := r.db.WithContext(ctx).Where("user_id = ?", u.ID).Find(&accounts).Error; err != nil {
			return nil, fmt.Errorf("list accounts for user: %w", err)
		}
		item := repository.UserWithAccounts{User: *u.toDomain()}
		for j := range accounts {
			item.Accounts = append(item.Accounts, *accounts[j].toDomain())
		}
		out = append(out, item)
	}
	return out, nil
}
