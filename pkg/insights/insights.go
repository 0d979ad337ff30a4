// Package insights defines the narrative-insight contract for monthly
// reports, with a static fallback used whenever generation fails.
package insights

import (
	"context"

	"github.com/pennyflow/pennyflow/pkg/notification"
)

// Generator produces a short list of narrative insights from one month of
// stats. Implementations may call external services; callers always fall
// back to Fallback() on error, so a Generator failure never blocks a report.
type Generator interface {
	Generate(ctx context.Context, stats notification.MonthlyStats, month string) ([]string, error)
}

// Fallback returns the static insight list used when generation fails or no
// generator is configured.
func Fallback() []string {
	return []string{
		"Your highest expense category this month might need attention.",
		"Consider setting up a budget for better financial management.",
		"Track your recurring expenses to identify potential savings.",
	}
}
