package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// BudgetRepo is the gorm-backed budget repository.
type BudgetRepo struct {
	db *gorm.DB
}

// NewBudgetRepository creates a budget repository bound to db.
func NewBudgetRepository(db *gorm.DB) *BudgetRepo {
	return &BudgetRepo{db: db}
}

// ListWithDefaultAccount returns every budget joined with its owning user
// and that user's default account. A budget whose owner has no default
// account is omitted, matching the evaluator's skip rule.
func (r *BudgetRepo) ListWithDefaultAccount(ctx context.Context) ([]repository.BudgetWithAccount, error) {
	var budgets []Budget
	if err := r.db.WithContext(ctx).Find(&budgets).Error; err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]repository.BudgetWithAccount, 0, len(budgets))
	for i := range budgets {
		b := &budgets[i]

		var user User
		if err := r.db.WithContext(ctx).Where("id = ?", b.UserID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("load budget owner: %w", err)
		}

		var account Account
		err := r.db.WithContext(ctx).
			Where("user_id = ? AND is_default = ?", b.UserID, true).
			First(&account).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load default account: %w", err)
		}

		out = append(out, repository.BudgetWithAccount{
			Budget:  *b.toDomain(),
			User:    *user.toDomain(),
			Account: *account.toDomain(),
		})
	}
	return out, nil
}

// UpdateAlertTimestamp stamps lastAlertSent on the budget.
func (r *BudgetRepo) UpdateAlertTimestamp(ctx context.Context, budgetID uuid.UUID, when time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&Budget{}).
		Where("id = ?", budgetID).
		UpdateColumn("last_alert_sent", when)
	if res.Error != nil {
		return fmt.Errorf("update alert timestamp: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrBudgetNotFound
	}
	return nil
}
