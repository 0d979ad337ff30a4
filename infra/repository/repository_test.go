package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	infrarepo "github.com/pennyflow/pennyflow/infra/repository"
	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// setupDB opens a fresh in-memory sqlite database per test.
func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&infrarepo.User{},
		&infrarepo.Account{},
		&infrarepo.Transaction{},
		&infrarepo.Budget{},
	))
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, userID uuid.UUID, isDefault bool) uuid.UUID {
	t.Helper()
	account := infrarepo.Account{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "Checking",
		Type:      "CURRENT",
		Balance:   decimal.NewFromInt(500),
		IsDefault: isDefault,
	}
	require.NoError(t, db.Create(&account).Error)
	return account.ID
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	user := infrarepo.User{ID: uuid.New(), Email: uuid.NewString() + "@example.com", Name: "Sam"}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func dueTemplate(userID, accountID uuid.UUID, next time.Time) *domain.Transaction {
	last := next.AddDate(0, -1, 0)
	return &domain.Transaction{
		ID:                uuid.New(),
		UserID:            userID,
		AccountID:         accountID,
		Kind:              domain.KindExpense,
		Amount:            decimal.NewFromInt(100),
		Description:       "Rent",
		Category:          "housing",
		OccurredAt:        last,
		IsRecurring:       true,
		RecurringInterval: domain.IntervalMonthly,
		NextRecurringDate: &next,
		LastProcessedAt:   &last,
		Status:            domain.StatusCompleted,
	}
}

func TestTransactionRepo_GetIsScopedToOwner(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewTransactionRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)
	tpl := dueTemplate(userID, accountID, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Create(ctx, tpl))

	got, err := repo.Get(ctx, tpl.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, tpl.ID, got.ID)
	assert.True(t, got.Amount.Equal(tpl.Amount))
	assert.Equal(t, domain.IntervalMonthly, got.RecurringInterval)

	// Another user's id never resolves the record.
	_, err = repo.Get(ctx, tpl.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTransactionRepo_ListDueRecurring(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewTransactionRepository(db)
	ctx := context.Background()
	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)

	due := dueTemplate(userID, accountID, now.AddDate(0, 0, -5))
	require.NoError(t, repo.Create(ctx, due))

	notYet := dueTemplate(userID, accountID, now.AddDate(0, 1, 0))
	require.NoError(t, repo.Create(ctx, notYet))

	neverProcessed := dueTemplate(userID, accountID, now.AddDate(0, 1, 0))
	neverProcessed.LastProcessedAt = nil
	require.NoError(t, repo.Create(ctx, neverProcessed))

	plain := dueTemplate(userID, accountID, now.AddDate(0, 0, -5))
	plain.IsRecurring = false
	require.NoError(t, repo.Create(ctx, plain))

	pending := dueTemplate(userID, accountID, now.AddDate(0, 0, -5))
	pending.Status = domain.StatusPending
	require.NoError(t, repo.Create(ctx, pending))

	// Historical rows carry lowercase status values; insert one raw to
	// bypass the repository's canonicalization.
	legacy := dueTemplate(userID, accountID, now.AddDate(0, 0, -2))
	interval := string(legacy.RecurringInterval)
	require.NoError(t, db.Create(&infrarepo.Transaction{
		ID:                legacy.ID,
		UserID:            userID,
		AccountID:         accountID,
		Kind:              string(legacy.Kind),
		Amount:            legacy.Amount,
		OccurredAt:        legacy.OccurredAt,
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: legacy.NextRecurringDate,
		LastProcessedAt:   legacy.LastProcessedAt,
		Status:            "completed",
	}).Error)

	got, err := repo.ListDueRecurring(ctx, now)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(got))
	for _, tx := range got {
		ids = append(ids, tx.ID)
		assert.Equal(t, domain.StatusCompleted, tx.Status, "status is canonicalized on read")
	}
	assert.ElementsMatch(t, []uuid.UUID{due.ID, neverProcessed.ID, legacy.ID}, ids)
}

func TestTransactionRepo_Update(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewTransactionRepository(db)
	ctx := context.Background()
	now := time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC)

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)
	tpl := dueTemplate(userID, accountID, now.AddDate(0, 0, -5))
	require.NoError(t, repo.Create(ctx, tpl))

	tpl.Advance(now)
	require.NoError(t, repo.Update(ctx, tpl))

	got, err := repo.Get(ctx, tpl.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, got.LastProcessedAt)
	require.NotNil(t, got.NextRecurringDate)
	assert.True(t, got.LastProcessedAt.Equal(now))
	assert.True(t, got.NextRecurringDate.Equal(now.AddDate(0, 1, 0)))

	missing := dueTemplate(userID, accountID, now)
	assert.ErrorIs(t, repo.Update(ctx, missing), domain.ErrNotFound)
}

func TestTransactionRepo_SumExpenses(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewTransactionRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)
	otherAccount := seedAccount(t, db, userID, false)

	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	add := func(account uuid.UUID, kind domain.TransactionKind, amount int64, at time.Time) {
		tx := dueTemplate(userID, account, at)
		tx.IsRecurring = false
		tx.RecurringInterval = ""
		tx.NextRecurringDate = nil
		tx.LastProcessedAt = nil
		tx.Kind = kind
		tx.Amount = decimal.NewFromInt(amount)
		tx.OccurredAt = at
		require.NoError(t, repo.Create(ctx, tx))
	}

	add(accountID, domain.KindExpense, 300, monthStart.AddDate(0, 0, 5))
	add(accountID, domain.KindExpense, 200, monthStart.AddDate(0, 0, 10))
	add(accountID, domain.KindIncome, 1000, monthStart.AddDate(0, 0, 6))
	add(otherAccount, domain.KindExpense, 999, monthStart.AddDate(0, 0, 7))
	add(accountID, domain.KindExpense, 999, monthStart.AddDate(0, -1, 0))
	add(accountID, domain.KindExpense, 999, monthStart.AddDate(0, 1, 0))

	total, err := repo.SumExpenses(ctx, accountID, monthStart, monthStart.AddDate(0, 1, 0))
	require.NoError(t, err)
	assert.True(t, total.Equal(decimal.NewFromInt(500)), "total = %s", total)
}

func TestTransactionRepo_SumExpenses_EmptyAccount(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewTransactionRepository(db)

	total, err := repo.SumExpenses(context.Background(), uuid.New(),
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestAccountRepo_ApplyBalanceDelta(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewAccountRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)

	require.NoError(t, repo.ApplyBalanceDelta(ctx, accountID, decimal.NewFromInt(-75)))
	require.NoError(t, repo.ApplyBalanceDelta(ctx, accountID, decimal.NewFromInt(25)))

	account, err := repo.Get(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(450)), "balance = %s", account.Balance)

	assert.ErrorIs(t, repo.ApplyBalanceDelta(ctx, uuid.New(), decimal.NewFromInt(1)),
		domain.ErrAccountNotFound)
}

func TestAccountRepo_DefaultForUser(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewAccountRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	seedAccount(t, db, userID, false)
	defaultID := seedAccount(t, db, userID, true)

	got, err := repo.DefaultForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, defaultID, got.ID)

	_, err = repo.DefaultForUser(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNoDefaultAccount)
}

func TestBudgetRepo_ListWithDefaultAccount(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewBudgetRepository(db)
	ctx := context.Background()

	withAccount := seedUser(t, db)
	seedAccount(t, db, withAccount, true)
	budget := infrarepo.Budget{ID: uuid.New(), UserID: withAccount, Amount: decimal.NewFromInt(1000)}
	require.NoError(t, db.Create(&budget).Error)

	// A budget whose owner lacks a default account is omitted.
	withoutDefault := seedUser(t, db)
	seedAccount(t, db, withoutDefault, false)
	require.NoError(t, db.Create(&infrarepo.Budget{
		ID: uuid.New(), UserID: withoutDefault, Amount: decimal.NewFromInt(500),
	}).Error)

	got, err := repo.ListWithDefaultAccount(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, budget.ID, got[0].Budget.ID)
	assert.Equal(t, withAccount, got[0].User.ID)
	assert.True(t, got[0].Account.IsDefault)
}

func TestBudgetRepo_UpdateAlertTimestamp(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewBudgetRepository(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	seedAccount(t, db, userID, true)
	budget := infrarepo.Budget{ID: uuid.New(), UserID: userID, Amount: decimal.NewFromInt(1000)}
	require.NoError(t, db.Create(&budget).Error)

	when := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateAlertTimestamp(ctx, budget.ID, when))

	items, err := repo.ListWithDefaultAccount(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Budget.LastAlertSent)
	assert.True(t, items[0].Budget.LastAlertSent.Equal(when))

	assert.ErrorIs(t, repo.UpdateAlertTimestamp(ctx, uuid.New(), when), domain.ErrBudgetNotFound)
}

func TestUserRepo_ListWithAccounts(t *testing.T) {
	db := setupDB(t)
	repo := infrarepo.NewUserRepository(db)
	ctx := context.Background()

	withAccounts := seedUser(t, db)
	seedAccount(t, db, withAccounts, true)
	seedAccount(t, db, withAccounts, false)
	noAccounts := seedUser(t, db)

	got, err := repo.ListWithAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)

	byID := map[uuid.UUID]repository.UserWithAccounts{}
	for _, item := range got {
		byID[item.User.ID] = item
	}
	assert.Len(t, byID[withAccounts].Accounts, 2)
	assert.Empty(t, byID[noAccounts].Accounts)
}

func TestUoW_RollbackOnError(t *testing.T) {
	db := setupDB(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)

	wantErr := fmt.Errorf("unit failed")
	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		txRepo, err := u.TransactionRepository()
		if err != nil {
			return err
		}
		tpl := dueTemplate(userID, accountID, time.Now().UTC())
		if err := txRepo.Create(ctx, tpl); err != nil {
			return err
		}
		acctRepo, err := u.AccountRepository()
		if err != nil {
			return err
		}
		if err := acctRepo.ApplyBalanceDelta(ctx, accountID, decimal.NewFromInt(-100)); err != nil {
			return err
		}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// Both writes rolled back.
	var count int64
	require.NoError(t, db.Model(&infrarepo.Transaction{}).Count(&count).Error)
	assert.Zero(t, count)

	account, err := infrarepo.NewAccountRepository(db).Get(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(500)))
}

func TestUoW_CommitPersistsAllWrites(t *testing.T) {
	db := setupDB(t)
	uow := infrarepo.NewUoW(db)
	ctx := context.Background()

	userID := seedUser(t, db)
	accountID := seedAccount(t, db, userID, true)

	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		txRepo, err := u.TransactionRepository()
		if err != nil {
			return err
		}
		tpl := dueTemplate(userID, accountID, time.Now().UTC())
		if err := txRepo.Create(ctx, tpl); err != nil {
			return err
		}
		acctRepo, err := u.AccountRepository()
		if err != nil {
			return err
		}
		return acctRepo.ApplyBalanceDelta(ctx, accountID, decimal.NewFromInt(-100))
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&infrarepo.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	account, err := infrarepo.NewAccountRepository(db).Get(ctx, accountID)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(400)))
}
