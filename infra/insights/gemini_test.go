package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/pennyflow/pennyflow/pkg/notification"
)

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain array", `["a", "b"]`, `["a", "b"]`},
		{"json fence", "```json\n[\"a\"]\n```", `["a"]`},
		{"bare fence", "```\n[\"a\"]\n```", `["a"]`},
		{"surrounding whitespace", "  [\"a\"]\n\n", `["a"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanModelJSON(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	stats := notification.MonthlyStats{
		TotalIncome:   decimal.NewFromInt(3000),
		TotalExpenses: decimal.NewFromInt(590),
		ByCategory: map[string]decimal.Decimal{
			"transport": decimal.NewFromInt(90),
			"groceries": decimal.NewFromInt(500),
		},
		TransactionCount: 4,
	}

	prompt := buildPrompt(stats, "March")
	assert.Contains(t, prompt, "Financial Data for March:")
	assert.Contains(t, prompt, "Total Income: 3000")
	assert.Contains(t, prompt, "Total Expenses: 590")
	assert.Contains(t, prompt, "Net Income: 2410")
	// Categories render in stable alphabetical order.
	assert.Contains(t, prompt, "groceries: 500, transport: 90")
	assert.Contains(t, prompt, "JSON array of strings")
}
