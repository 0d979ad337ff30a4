// Package report implements the monthly report generator.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/insights"
	"github.com/pennyflow/pennyflow/pkg/notification"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// Generator produces one prior-month financial report per user with at
// least one account: ledger statistics plus narrative insights, delivered
// as a single notification.
type Generator struct {
	uow      repository.UnitOfWork
	notifier notification.Notifier
	insights insights.Generator
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewGenerator creates a report generator. gen may be nil, in which case
// the static fallback insights are always used.
func NewGenerator(uow repository.UnitOfWork, notifier notification.Notifier, gen insights.Generator, logger *slog.Logger) *Generator {
	return &Generator{
		uow:      uow,
		notifier: notifier,
		insights: gen,
		logger:   logger.With("service", "report-generator"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the generator's clock. For tests.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Run generates reports for all eligible users, returning how many were
// sent. Users are processed independently: one user's failure never blocks
// the others.
func (g *Generator) Run(ctx context.Context) (int, error) {
	now := g.now()

	userRepo, err := g.uow.UserRepository()
	if err != nil {
		return 0, fmt.Errorf("report: %w", err)
	}
	users, err := userRepo.ListWithAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("report: list users: %w", err)
	}

	sent := 0
	for i := range users {
		if len(users[i].Accounts) == 0 {
			continue
		}
		if err := g.reportFor(ctx, &users[i], now); err != nil {
			g.logger.Error("report generation failed", "user_id", users[i].User.ID, "error", err)
			continue
		}
		sent++
	}

	g.logger.Info("monthly reports complete", "users", len(users), "sent", sent)
	return sent, nil
}

func (g *Generator) reportFor(ctx context.Context, user *repository.UserWithAccounts, now time.Time) error {
	txRepo, err := g.uow.TransactionRepository()
	if err != nil {
		return err
	}

	// The report always covers the previous calendar month.
	thisMonth := domain.MonthStart(now)
	monthStart := domain.MonthStart(thisMonth.AddDate(0, 0, -1))
	monthEnd := thisMonth.Add(-time.Second)

	txs, err := txRepo.ListForUserBetween(ctx, user.User.ID, monthStart, monthEnd)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	stats := computeStats(txs)
	monthName := monthStart.Month().String()

	report := notification.MonthlyReport{
		RecipientEmail: user.User.Email,
		RecipientName:  user.User.Name,
		Month:          monthName,
		Stats:          stats,
		Insights:       g.generateInsights(ctx, stats, monthName),
	}
	if err := g.notifier.SendMonthlyReport(ctx, report); err != nil {
		return fmt.Errorf("send report: %w", err)
	}
	return nil
}

// generateInsights asks the configured generator for narrative insights and
// falls back to the static list on any failure. Insight generation is a
// best-effort garnish: it never fails a report.
func (g *Generator) generateInsights(ctx context.Context, stats notification.MonthlyStats, month string) []string {
	if g.insights == nil {
		return insights.Fallback()
	}
	out, err := g.insights.Generate(ctx, stats, month)
	if err != nil {
		g.logger.Warn("insight generation failed, using fallback", "error", err)
		return insights.Fallback()
	}
	return out
}

func computeStats(txs []*domain.Transaction) notification.MonthlyStats {
	stats := notification.MonthlyStats{
		ByCategory:       make(map[string]decimal.Decimal),
		TransactionCount: len(txs),
	}
	for _, tx := range txs {
		if tx.Kind == domain.KindExpense {
			stats.TotalExpenses = stats.TotalExpenses.Add(tx.Amount)
			stats.ByCategory[tx.Category] = stats.ByCategory[tx.Category].Add(tx.Amount)
			continue
		}
		stats.TotalIncome = stats.TotalIncome.Add(tx.Amount)
	}
	return stats
}
