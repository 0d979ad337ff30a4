package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist or is
	// not owned by the requesting user. Units of work hitting this error are
	// discarded, not retried.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when a record is malformed (missing interval,
	// negative amount). Units of work hitting this error are discarded.
	ErrValidation = errors.New("validation failed")

	// ErrAccountNotFound is returned when an account cannot be found.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoDefaultAccount is returned when a user has no account flagged as default.
	ErrNoDefaultAccount = errors.New("no default account")

	// ErrBudgetNotFound is returned when a budget cannot be found.
	ErrBudgetNotFound = errors.New("budget not found")
)
