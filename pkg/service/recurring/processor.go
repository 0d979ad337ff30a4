package recurring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pennyflow/pennyflow/pkg/domain"
	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// Processor consumes one due-template work unit: it materializes a concrete
// transaction, applies the balance delta and reschedules the template, all
// inside one atomic commit.
//
// Delivery may be delayed, duplicated or reordered, so the processor trusts
// nothing in the event beyond the identifiers: it re-loads the template and
// re-checks due-ness inside the transaction boundary. Combined with the
// atomic commit this guarantees at most one materialization per due cycle.
type Processor struct {
	uow      repository.UnitOfWork
	validate *validator.Validate
	inflight singleflight.Group
	logger   *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewProcessor creates a processor.
func NewProcessor(uow repository.UnitOfWork, logger *slog.Logger) *Processor {
	return &Processor{
		uow:      uow,
		validate: validator.New(),
		logger:   logger.With("service", "processor"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the processor's clock. For tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Handle adapts the processor to an event-bus handler.
func (p *Processor) Handle(ctx context.Context, e events.Event) error {
	due, ok := e.(*events.RecurringTransactionDue)
	if !ok {
		if v, ok2 := e.(events.RecurringTransactionDue); ok2 {
			due = &v
		} else {
			p.logger.Warn("unexpected event type", "type", e.Type())
			return nil
		}
	}
	if due.TransactionID == uuid.Nil || due.UserID == uuid.Nil {
		p.logger.Error("missing required event data", "event", due)
		return nil
	}
	return p.Process(ctx, due.TransactionID, due.UserID)
}

// Process executes one unit of work. Identical units arriving concurrently
// in this process are collapsed to a single execution; cross-process
// duplicates are handled by the in-transaction due re-check.
func (p *Processor) Process(ctx context.Context, transactionID, userID uuid.UUID) error {
	_, err, _ := p.inflight.Do(transactionID.String(), func() (any, error) {
		return nil, p.process(ctx, transactionID, userID)
	})
	return err
}

func (p *Processor) process(ctx context.Context, transactionID, userID uuid.UUID) error {
	now := p.now()
	logger := p.logger.With("transaction_id", transactionID, "user_id", userID)

	repo, err := p.uow.TransactionRepository()
	if err != nil {
		return fmt.Errorf("processor: %w", err)
	}

	tpl, err := repo.Get(ctx, transactionID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		// Deleted between scan and execution, or an ownership mismatch.
		// Either way the unit is void: discard, never retry.
		logger.Warn("template not found, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("processor: load template: %w", err)
	}

	if err := p.checkTemplate(tpl); err != nil {
		logger.Error("template failed validation, discarding", "error", err)
		return nil
	}

	if !tpl.Due(now) {
		logger.Debug("template not yet due, skipping")
		return nil
	}

	err = p.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		txRepo, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		// Idempotence guard: a concurrent or duplicate delivery may have
		// advanced the template after our read above. Re-check on the
		// transaction's own session before writing anything.
		current, err := txRepo.Get(ctx, transactionID, userID)
		if err != nil {
			return err
		}
		if !current.Due(now) {
			logger.Debug("template advanced by concurrent run, skipping")
			return nil
		}

		materialized := current.Materialize(now)
		if err := txRepo.Create(ctx, materialized); err != nil {
			return err
		}

		acctRepo, err := uow.AccountRepository()
		if err != nil {
			return err
		}
		if err := acctRepo.ApplyBalanceDelta(ctx, current.AccountID, current.SignedAmount()); err != nil {
			return err
		}

		current.Advance(now)
		return txRepo.Update(ctx, current)
	})
	if err != nil {
		// Nothing was applied: the commit rolled back, so the scanner will
		// re-offer this template on its next tick.
		return fmt.Errorf("processor: commit failed: %w", err)
	}

	logger.Info("recurring transaction processed", "processed_at", now)
	return nil
}

// checkTemplate rejects malformed templates: a unit referencing one is
// discarded rather than retried, since retrying cannot fix the data.
func (p *Processor) checkTemplate(tpl *domain.Transaction) error {
	if !tpl.IsRecurring {
		return fmt.Errorf("%w: transaction is not a recurring template", domain.ErrValidation)
	}
	if err := p.validate.Var(string(tpl.RecurringInterval), "required,oneof=DAILY WEEKLY MONTHLY YEARLY"); err != nil {
		return fmt.Errorf("%w: unknown recurring interval %q", domain.ErrValidation, tpl.RecurringInterval)
	}
	if err := p.validate.Var(string(tpl.Kind), "required,oneof=INCOME EXPENSE"); err != nil {
		return fmt.Errorf("%w: unknown transaction kind %q", domain.ErrValidation, tpl.Kind)
	}
	if tpl.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount", domain.ErrValidation)
	}
	return nil
}
