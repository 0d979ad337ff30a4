// Package budget implements the periodic budget-alert evaluator.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/notification"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// AlertThreshold is the percentage of budget spend at which an alert fires.
const AlertThreshold = 80.0

// Evaluator checks every budget against its owner's default account spend
// for the current calendar month and triggers at most one alert per budget
// per month.
type Evaluator struct {
	uow      repository.UnitOfWork
	notifier notification.Notifier
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewEvaluator creates an evaluator.
func NewEvaluator(uow repository.UnitOfWork, notifier notification.Notifier, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		uow:      uow,
		notifier: notifier,
		logger:   logger.With("service", "budget-evaluator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the evaluator's clock. For tests.
func (e *Evaluator) WithClock(now func() time.Time) *Evaluator {
	e.now = now
	return e
}

// Evaluate runs one tick over all budgets, returning the number of alerts
// sent. Budgets are evaluated independently: one budget's failure never
// blocks the others. Only the initial budget load can abort the tick.
func (e *Evaluator) Evaluate(ctx context.Context) (int, error) {
	now := e.now()

	budgetRepo, err := e.uow.BudgetRepository()
	if err != nil {
		return 0, fmt.Errorf("evaluator: %w", err)
	}
	items, err := budgetRepo.ListWithDefaultAccount(ctx)
	if err != nil {
		return 0, fmt.Errorf("evaluator: list budgets: %w", err)
	}

	sent := 0
	for i := range items {
		alerted, err := e.evaluateOne(ctx, &items[i], now)
		if err != nil {
			e.logger.Error("budget evaluation failed",
				"budget_id", items[i].Budget.ID, "user_id", items[i].User.ID, "error", err)
			continue
		}
		if alerted {
			sent++
		}
	}

	e.logger.Info("budget check complete", "budgets", len(items), "alerts", sent)
	return sent, nil
}

func (e *Evaluator) evaluateOne(ctx context.Context, item *repository.BudgetWithAccount, now time.Time) (bool, error) {
	txRepo, err := e.uow.TransactionRepository()
	if err != nil {
		return false, err
	}

	monthStart := domain.MonthStart(now)
	total, err := txRepo.SumExpenses(ctx, item.Account.ID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return false, fmt.Errorf("sum expenses: %w", err)
	}

	pct := item.Budget.PercentUsed(total)
	e.logger.Debug("budget usage",
		"budget_id", item.Budget.ID, "amount", item.Budget.Amount,
		"spent", total, "percentage_used", pct)

	if pct < AlertThreshold || item.Budget.AlertedThisMonth(now) {
		return false, nil
	}

	alert := notification.BudgetAlert{
		RecipientEmail: item.User.Email,
		RecipientName:  item.User.Name,
		AccountName:    item.Account.Name,
		BudgetAmount:   item.Budget.Amount,
		TotalExpenses:  total,
		PercentageUsed: pct,
	}
	if err := e.notifier.SendBudgetAlert(ctx, alert); err != nil {
		// The alert timestamp is only stamped after a successful send, so a
		// delivery failure leaves the budget eligible on the next tick.
		return false, fmt.Errorf("send alert: %w", err)
	}

	budgetRepo, err := e.uow.BudgetRepository()
	if err != nil {
		return false, err
	}
	if err := budgetRepo.UpdateAlertTimestamp(ctx, item.Budget.ID, now); err != nil {
		return false, fmt.Errorf("stamp alert: %w", err)
	}
	return true, nil
}
