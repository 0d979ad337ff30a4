package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/pennyflow/pennyflow/pkg/repository"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. Repositories obtained inside Do share the transaction's
// session, which is what makes the processor's multi-write commit atomic.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a unit of work over the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// session returns the active transaction if one is open, otherwise the base
// connection, so read paths outside Do still work.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// Do runs fn inside one database transaction. If fn returns an error every
// write made through the provided UnitOfWork is rolled back.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// TransactionRepository returns a transaction repository bound to the
// current session.
func (u *UoW) TransactionRepository() (repository.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// AccountRepository returns an account repository bound to the current session.
func (u *UoW) AccountRepository() (repository.AccountRepository, error) {
	return NewAccountRepository(u.session()), nil
}

// BudgetRepository returns a budget repository bound to the current session.
func (u *UoW) BudgetRepository() (repository.BudgetRepository, error) {
	return NewBudgetRepository(u.session()), nil
}

// UserRepository returns a user repository bound to the current session.
func (u *UoW) UserRepository() (repository.UserRepository, error) {
	return NewUserRepository(u.session()), nil
}

var _ repository.UnitOfWork = (*UoW)(nil)
