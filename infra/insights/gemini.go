// Package insights provides the Gemini-backed insight generator.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/pennyflow/pennyflow/pkg/notification"
)

// GeminiGenerator asks Gemini for three short, actionable insights about a
// month of spending. The prompt demands a strict JSON array of strings;
// anything else is an error and callers fall back to the static list.
type GeminiGenerator struct {
	model string
}

// NewGeminiGenerator creates a generator using the given model name.
// API credentials are read from the environment by the genai client.
func NewGeminiGenerator(model string) *GeminiGenerator {
	return &GeminiGenerator{model: model}
}

// Generate produces the insight list for one month of stats.
func (g *GeminiGenerator) Generate(ctx context.Context, stats notification.MonthlyStats, month string) ([]string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("insights: create genai client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(stats, month)}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("insights: generate content: %w", err)
	}
	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("insights: empty response from model")
	}

	var out []string
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &out); err != nil {
		return nil, fmt.Errorf("insights: decode response: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("insights: model returned no insights")
	}
	return out, nil
}

func buildPrompt(stats notification.MonthlyStats, month string) string {
	categories := make([]string, 0, len(stats.ByCategory))
	for category := range stats.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var byCategory strings.Builder
	for i, category := range categories {
		if i > 0 {
			byCategory.WriteString(", ")
		}
		fmt.Fprintf(&byCategory, "%s: %s", category, stats.ByCategory[category])
	}

	net := stats.TotalIncome.Sub(stats.TotalExpenses)
	return fmt.Sprintf(`Analyze this financial data and provide 3 concise, actionable insights.
Focus on spending patterns and practical advice.
Keep it friendly and conversational.

Financial Data for %s:
- Total Income: %s
- Total Expenses: %s
- Net Income: %s
- Expense Categories: %s

Format the response as a JSON array of strings, like this:
["insight 1", "insight 2", "insight 3"]`,
		month, stats.TotalIncome, stats.TotalExpenses, net, byCategory.String())
}

// cleanModelJSON strips Markdown code fences the model sometimes adds despite
// instructions.
func cleanModelJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
