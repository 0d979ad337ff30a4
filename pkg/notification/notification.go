// Package notification defines the outbound notification contract. Actual
// delivery (email rendering and transport) is an external capability; the
// scheduler only decides when a notification fires and with what payload.
package notification

import (
	"context"

	"github.com/shopspring/decimal"
)

// BudgetAlert is the payload for a budget-threshold notification.
type BudgetAlert struct {
	RecipientEmail string          `json:"recipient_email"`
	RecipientName  string          `json:"recipient_name"`
	AccountName    string          `json:"account_name"`
	BudgetAmount   decimal.Decimal `json:"budget_amount"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	PercentageUsed float64         `json:"percentage_used"`
}

// MonthlyStats summarizes one month of a user's ledger activity.
type MonthlyStats struct {
	TotalIncome      decimal.Decimal            `json:"total_income"`
	TotalExpenses    decimal.Decimal            `json:"total_expenses"`
	ByCategory       map[string]decimal.Decimal `json:"by_category"`
	TransactionCount int                        `json:"transaction_count"`
}

// MonthlyReport is the payload for a monthly report notification.
type MonthlyReport struct {
	RecipientEmail string       `json:"recipient_email"`
	RecipientName  string       `json:"recipient_name"`
	Month          string       `json:"month"`
	Stats          MonthlyStats `json:"stats"`
	Insights       []string     `json:"insights"`
}

// Notifier emits notifications. Implementations must not block the caller
// beyond the delivery attempt itself; failures are logged by callers and
// never cascade to sibling units of work.
type Notifier interface {
	SendBudgetAlert(ctx context.Context, alert BudgetAlert) error
	SendMonthlyReport(ctx context.Context, report MonthlyReport) error
}
