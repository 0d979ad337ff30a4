// Package repotest provides an in-memory UnitOfWork and repository fakes
// for service tests. Do simulates transactional semantics by snapshotting
// the store and restoring it when the unit function fails.
package repotest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// Store is the backing state shared by the fake repositories. The Err
// fields, when set, make the corresponding operation fail.
type Store struct {
	mu sync.Mutex

	Users        map[uuid.UUID]*domain.User
	Accounts     map[uuid.UUID]*domain.Account
	Transactions map[uuid.UUID]*domain.Transaction
	Budgets      map[uuid.UUID]*domain.Budget

	ListDueErr           error
	CreateTransactionErr error
	UpdateTransactionErr error
	ApplyBalanceErr      error
	SumExpensesErr       error
	ListBudgetsErr       error
	UpdateAlertErr       error
	ListUsersErr         error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		Users:        make(map[uuid.UUID]*domain.User),
		Accounts:     make(map[uuid.UUID]*domain.Account),
		Transactions: make(map[uuid.UUID]*domain.Transaction),
		Budgets:      make(map[uuid.UUID]*domain.Budget),
	}
}

// AddUser stores a copy of u.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users[u.ID] = &u
}

// AddAccount stores a copy of a.
func (s *Store) AddAccount(a domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Accounts[a.ID] = &a
}

// AddTransaction stores a copy of t.
func (s *Store) AddTransaction(t domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Transactions[t.ID] = &t
}

// AddBudget stores a copy of b.
func (s *Store) AddBudget(b domain.Budget) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Budgets[b.ID] = &b
}

// Transaction returns a copy of the stored transaction, if present.
func (s *Store) Transaction(id uuid.UUID) (domain.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.Transactions[id]
	if !ok {
		return domain.Transaction{}, false
	}
	return *t, true
}

// Account returns a copy of the stored account, if present.
func (s *Store) Account(id uuid.UUID) (domain.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.Accounts[id]
	if !ok {
		return domain.Account{}, false
	}
	return *a, true
}

// Budget returns a copy of the stored budget, if present.
func (s *Store) Budget(id uuid.UUID) (domain.Budget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.Budgets[id]
	if !ok {
		return domain.Budget{}, false
	}
	return *b, true
}

// TransactionCount returns the number of stored transactions.
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Transactions)
}

func (s *Store) snapshot() *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := NewStore()
	for id, u := range s.Users {
		c := *u
		snap.Users[id] = &c
	}
	for id, a := range s.Accounts {
		c := *a
		snap.Accounts[id] = &c
	}
	for id, t := range s.Transactions {
		c := *t
		snap.Transactions[id] = &c
	}
	for id, b := range s.Budgets {
		c := *b
		snap.Budgets[id] = &c
	}
	return snap
}

func (s *Store) restore(snap *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users = snap.Users
	s.Accounts = snap.Accounts
	s.Transactions = snap.Transactions
	s.Budgets = snap.Budgets
}

// UoW is the fake unit of work over a Store.
type UoW struct {
	Store *Store
}

// NewUoW creates a fake unit of work.
func NewUoW(store *Store) *UoW {
	return &UoW{Store: store}
}

// Do runs fn and rolls the store back if fn fails, mimicking the atomic
// commit of the real implementation.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	snap := u.Store.snapshot()
	if err := fn(u); err != nil {
		u.Store.restore(snap)
		return err
	}
	return nil
}

func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepo{store: u.Store}, nil
}

func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return &accountRepo{store: u.Store}, nil
}

func (u *UoW) BudgetRepository() (repository.BudgetRepository, error) {
	return &budgetRepo{store: u.Store}, nil
}

func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return &userRepo{store: u.Store}, nil
}

var _ repository.UnitOfWork = (*UoW)(nil)

type transactionRepo struct {
	store *Store
}

func (r *transactionRepo) Get(_ context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.store.Transactions[id]
	if !ok || t.UserID != userID {
		return nil, domain.ErrNotFound
	}
	c := *t
	return &c, nil
}

func (r *transactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	if r.store.CreateTransactionErr != nil {
		return r.store.CreateTransactionErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c := *tx
	r.store.Transactions[tx.ID] = &c
	return nil
}

func (r *transactionRepo) Update(_ context.Context, tx *domain.Transaction) error {
	if r.store.UpdateTransactionErr != nil {
		return r.store.UpdateTransactionErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.Transactions[tx.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Status = tx.Status
	existing.LastProcessedAt = tx.LastProcessedAt
	existing.NextRecurringDate = tx.NextRecurringDate
	return nil
}

func (r *transactionRepo) ListDueRecurring(_ context.Context, now time.Time) ([]*domain.Transaction, error) {
	if r.store.ListDueErr != nil {
		return nil, r.store.ListDueErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range r.store.Transactions {
		if !t.IsRecurring || !strings.EqualFold(string(t.Status), string(domain.StatusCompleted)) {
			continue
		}
		if t.LastProcessedAt == nil || (t.NextRecurringDate != nil && !t.NextRecurringDate.After(now)) {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *transactionRepo) SumExpenses(_ context.Context, accountID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	if r.store.SumExpensesErr != nil {
		return decimal.Zero, r.store.SumExpensesErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.store.Transactions {
		if t.AccountID != accountID || t.Kind != domain.KindExpense {
			continue
		}
		if t.OccurredAt.Before(from) || !t.OccurredAt.Before(to) {
			continue
		}
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (r *transactionRepo) ListForUserBetween(_ context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*domain.Transaction
	for _, t := range r.store.Transactions {
		if t.UserID != userID || t.OccurredAt.Before(from) || t.OccurredAt.After(to) {
			continue
		}
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

type accountRepo struct {
	store *Store
}

func (r *accountRepo) Get(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.Accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	c := *a
	return &c, nil
}

func (r *accountRepo) ApplyBalanceDelta(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	if r.store.ApplyBalanceErr != nil {
		return r.store.ApplyBalanceErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.Accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	return nil
}

func (r *accountRepo) DefaultForUser(_ context.Context, userID uuid.UUID) (*domain.Account, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.Accounts {
		if a.UserID == userID && a.IsDefault {
			c := *a
			return &c, nil
		}
	}
	return nil, domain.ErrNoDefaultAccount
}

type budgetRepo struct {
	store *Store
}

func (r *budgetRepo) ListWithDefaultAccount(_ context.Context) ([]repository.BudgetWithAccount, error) {
	if r.store.ListBudgetsErr != nil {
		return nil, r.store.ListBudgetsErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []repository.BudgetWithAccount
	for _, b := range r.store.Budgets {
		user, ok := r.store.Users[b.UserID]
		if !ok {
			continue
		}
		var account *domain.Account
		for _, a := range r.store.Accounts {
			if a.UserID == b.UserID && a.IsDefault {
				account = a
				break
			}
		}
		if account == nil {
			continue
		}
		out = append(out, repository.BudgetWithAccount{
			Budget:  *b,
			User:    *user,
			Account: *account,
		})
	}
	return out, nil
}

func (r *budgetRepo) UpdateAlertTimestamp(_ context.Context, budgetID uuid.UUID, when time.Time) error {
	if r.store.UpdateAlertErr != nil {
		return r.store.UpdateAlertErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	b, ok := r.store.Budgets[budgetID]
	if !ok {
		return domain.ErrBudgetNotFound
	}
	b.LastAlertSent = &when
	return nil
}

type userRepo struct {
	store *Store
}

func (r *userRepo) Get(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.Users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (r *userRepo) ListWithAccounts(_ context.Context) ([]repository.UserWithAccounts, error) {
	if r.store.ListUsersErr != nil {
		return nil, r.store.ListUsersErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []repository.UserWithAccounts
	for _, u := range r.store.Users {
		item := repository.UserWithAccounts{User: *u}
		for _, a := range r.store.Accounts {
			if a.UserID == u.ID {
				item.Accounts = append(item.Accounts, *a)
			}
		}
		out = append(out, item)
	}
	return out, nil
}
