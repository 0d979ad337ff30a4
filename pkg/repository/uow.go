package repository

import "context"

// UnitOfWork is the transaction boundary for scheduler writes.
//
// Do runs fn inside one database transaction; repositories obtained from the
// UnitOfWork passed to fn all share that transaction's session, so either
// every write in fn commits or none do. This is what keeps "create
// materialized copy + apply balance delta + advance template" atomic.
type UnitOfWork interface {
	// Do executes fn within a transaction boundary. If fn returns an error,
	// every write made through the provided UnitOfWork is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	TransactionRepository() (TransactionRepository, error)
	AccountRepository() (AccountRepository, error)
	BudgetRepository() (BudgetRepository, error)
	UserRepository() (UserRepository, error)
}
