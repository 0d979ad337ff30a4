// Package recurring implements the due-transaction scanner and the
// recurring-transaction processor.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
	"github.com/pennyflow/pennyflow/pkg/repository"
)

// Scanner finds recurring templates whose next occurrence has arrived and
// emits one work unit per template. It never mutates the templates itself;
// all state advances happen in the processor's atomic commit.
type Scanner struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// NewScanner creates a scanner.
func NewScanner(uow repository.UnitOfWork, bus eventbus.Bus, logger *slog.Logger) *Scanner {
	return &Scanner{
		uow:    uow,
		bus:    bus,
		logger: logger.With("service", "scanner"),
	}
}

// Scan queries for due templates as of now and emits one
// RecurringTransactionDue event per match, returning the number emitted.
// A persistence read failure aborts the whole tick; the next scheduled tick
// re-discovers the same work because due-state is derived, not queued.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (int, error) {
	repo, err := s.uow.TransactionRepository()
	if err != nil {
		return 0, fmt.Errorf("scanner: %w", err)
	}

	due, err := repo.ListDueRecurring(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("scanner: list due recurring: %w", err)
	}
	if len(due) == 0 {
		s.logger.Info("no recurring transactions due", "now", now)
		return 0, nil
	}

	emitted := 0
	for _, tpl := range due {
		evt := events.RecurringTransactionDue{
			TransactionID: tpl.ID,
			UserID:        tpl.UserID,
			DueAt:         now,
		}
		if err := s.bus.Emit(ctx, evt); err != nil {
			// One failed emission must not block the rest of the batch.
			s.logger.Error("failed to emit due event",
				"transaction_id", tpl.ID, "user_id", tpl.UserID, "error", err)
			continue
		}
		emitted++
	}

	s.logger.Info("scan complete", "due", len(due), "emitted", emitted)
	return emitted, nil
}
