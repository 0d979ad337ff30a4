// Package notification provides Notifier implementations. Delivery itself is
// an external capability; the log notifier records the handoff so operators
// can trace every emitted notification.
package notification

import (
	"context"
	"log/slog"

	"github.com/pennyflow/pennyflow/pkg/notification"
)

// LogNotifier writes each notification to the structured log. It stands in
// for the external delivery capability in deployments without one.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier backed by the structured log.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notifier")}
}

// SendBudgetAlert logs the alert payload.
func (n *LogNotifier) SendBudgetAlert(_ context.Context, alert notification.BudgetAlert) error {
	n.logger.Info("budget alert",
		"recipient", alert.RecipientEmail,
		"account", alert.AccountName,
		"budget_amount", alert.BudgetAmount,
		"total_expenses", alert.TotalExpenses,
		"percentage_used", alert.PercentageUsed,
	)
	return nil
}

// SendMonthlyReport logs the report payload.
func (n *LogNotifier) SendMonthlyReport(_ context.Context, report notification.MonthlyReport) error {
	n.logger.Info("monthly report",
		"recipient", report.RecipientEmail,
		"month", report.Month,
		"total_income", report.Stats.TotalIncome,
		"total_expenses", report.Stats.TotalExpenses,
		"insights", len(report.Insights),
	)
	return nil
}

var _ notification.Notifier = (*LogNotifier)(nil)
