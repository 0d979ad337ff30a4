package budget_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infranotification "github.com/pennyflow/pennyflow/infra/notification"
	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/repository/repotest"
	"github.com/pennyflow/pennyflow/pkg/service/budget"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type evaluatorFixture struct {
	store     *repotest.Store
	notifier  *infranotification.MemoryNotifier
	evaluator *budget.Evaluator
	now       time.Time
}

func newEvaluatorFixture(t *testing.T) *evaluatorFixture {
	t.Helper()
	now := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	f := &evaluatorFixture{
		store:    repotest.NewStore(),
		notifier: infranotification.NewMemoryNotifier(),
		now:      now,
	}
	f.evaluator = budget.NewEvaluator(repotest.NewUoW(f.store), f.notifier, testLogger()).
		WithClock(func() time.Time { return now })
	return f
}

// seedBudget creates a user with a default account, a budget with the given
// ceiling and this month's expenses against the account.
func (f *evaluatorFixture) seedBudget(ceiling, spent int64) domain.Budget {
	userID := uuid.New()
	accountID := uuid.New()
	f.store.AddUser(domain.User{ID: userID, Email: "user@example.com", Name: "Sam"})
	f.store.AddAccount(domain.Account{
		ID:        accountID,
		UserID:    userID,
		Name:      "Checking",
		Type:      domain.AccountCurrent,
		IsDefault: true,
	})
	b := domain.Budget{
		ID:     uuid.New(),
		UserID: userID,
		Amount: decimal.NewFromInt(ceiling),
	}
	f.store.AddBudget(b)
	if spent > 0 {
		f.store.AddTransaction(domain.Transaction{
			ID:         uuid.New(),
			UserID:     userID,
			AccountID:  accountID,
			Kind:       domain.KindExpense,
			Amount:     decimal.NewFromInt(spent),
			Category:   "groceries",
			OccurredAt: f.now.AddDate(0, 0, -3),
			Status:     domain.StatusCompleted,
		})
	}
	return b
}

func TestEvaluator_Evaluate_AlertsAtThreshold(t *testing.T) {
	f := newEvaluatorFixture(t)
	b := f.seedBudget(1000, 850)

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	alerts := f.notifier.SentAlerts()
	require.Len(t, alerts, 1)
	assert.Equal(t, "user@example.com", alerts[0].RecipientEmail)
	assert.Equal(t, "Checking", alerts[0].AccountName)
	assert.True(t, alerts[0].BudgetAmount.Equal(decimal.NewFromInt(1000)))
	assert.True(t, alerts[0].TotalExpenses.Equal(decimal.NewFromInt(850)))
	assert.InDelta(t, 85.0, alerts[0].PercentageUsed, 0.0001)

	stamped, ok := f.store.Budget(b.ID)
	require.True(t, ok)
	require.NotNil(t, stamped.LastAlertSent)
	assert.Equal(t, f.now, *stamped.LastAlertSent)
}

func TestEvaluator_Evaluate_BelowThresholdStaysQuiet(t *testing.T) {
	f := newEvaluatorFixture(t)
	b := f.seedBudget(1000, 799)

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.notifier.SentAlerts())

	unstamped, _ := f.store.Budget(b.ID)
	assert.Nil(t, unstamped.LastAlertSent)
}

func TestEvaluator_Evaluate_OneAlertPerMonth(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.seedBudget(1000, 900)

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	// Still over threshold, but the month is already stamped.
	sent, err = f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, f.notifier.SentAlerts(), 1)
}

func TestEvaluator_Evaluate_ReAlertsNextMonth(t *testing.T) {
	f := newEvaluatorFixture(t)
	b := f.seedBudget(1000, 900)
	lastMonth := time.Date(2024, time.February, 25, 0, 0, 0, 0, time.UTC)
	b.LastAlertSent = &lastMonth
	f.store.AddBudget(b)

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestEvaluator_Evaluate_ZeroCeilingNeverAlerts(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.seedBudget(0, 500)

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestEvaluator_Evaluate_OnlyCurrentMonthSpendCounts(t *testing.T) {
	f := newEvaluatorFixture(t)
	b := f.seedBudget(1000, 0)

	// Heavy spend, all of it last month.
	f.store.AddTransaction(domain.Transaction{
		ID:         uuid.New(),
		UserID:     b.UserID,
		AccountID:  accountOf(t, f.store, b.UserID),
		Kind:       domain.KindExpense,
		Amount:     decimal.NewFromInt(950),
		OccurredAt: time.Date(2024, time.February, 15, 0, 0, 0, 0, time.UTC),
		Status:     domain.StatusCompleted,
	})

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestEvaluator_Evaluate_BudgetWithoutDefaultAccountIsSkipped(t *testing.T) {
	f := newEvaluatorFixture(t)
	userID := uuid.New()
	f.store.AddUser(domain.User{ID: userID, Email: "noacct@example.com"})
	f.store.AddBudget(domain.Budget{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(100)})

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestEvaluator_Evaluate_DeliveryFailureLeavesBudgetEligible(t *testing.T) {
	f := newEvaluatorFixture(t)
	b := f.seedBudget(1000, 900)
	f.notifier.FailNext = true

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err, "a single budget failure never fails the tick")
	assert.Zero(t, sent)

	// No stamp on failure, so the next tick retries the alert.
	unstamped, _ := f.store.Budget(b.ID)
	assert.Nil(t, unstamped.LastAlertSent)

	sent, err = f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestEvaluator_Evaluate_OneFailureDoesNotBlockOthers(t *testing.T) {
	f := newEvaluatorFixture(t)
	f.seedBudget(1000, 900)
	f.seedBudget(500, 450)
	f.notifier.FailNext = true

	sent, err := f.evaluator.Evaluate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "the budget after the failed one still alerts")
	assert.Len(t, f.notifier.SentAlerts(), 1)
}

func accountOf(t *testing.T, store *repotest.Store, userID uuid.UUID) uuid.UUID {
	t.Helper()
	for id, a := range store.Accounts {
		if a.UserID == userID {
			return id
		}
	}
	t.Fatalf("no account for user %s", userID)
	return uuid.Nil
}
