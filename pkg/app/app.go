// Package app wires the scheduler's services to their triggers. This is the
// composition root for everything except process-level concerns (config,
// signals), which live in cmd.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/pennyflow/pennyflow/pkg/config"
	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
	"github.com/pennyflow/pennyflow/pkg/insights"
	"github.com/pennyflow/pennyflow/pkg/notification"
	"github.com/pennyflow/pennyflow/pkg/repository"
	"github.com/pennyflow/pennyflow/pkg/scheduler"
	"github.com/pennyflow/pennyflow/pkg/service/budget"
	"github.com/pennyflow/pennyflow/pkg/service/recurring"
	"github.com/pennyflow/pennyflow/pkg/service/report"
)

// Job names registered with the dispatch shell.
const (
	JobRecurringScan = "recurring-scan"
	JobBudgetCheck   = "budget-check"
	JobMonthlyReport = "monthly-report"
)

// Deps are the infrastructure dependencies the app composes over.
type Deps struct {
	Uow      repository.UnitOfWork
	Bus      eventbus.Bus
	Notifier notification.Notifier
	Insights insights.Generator
	Logger   *slog.Logger
}

// App holds the composed scheduler and its services.
type App struct {
	Scheduler *scheduler.Scheduler
	Bus       eventbus.Bus

	scanner   *recurring.Scanner
	processor *recurring.Processor
	evaluator *budget.Evaluator
	reports   *report.Generator

	logger *slog.Logger
}

// New builds the application: services, scheduled jobs, and the bus
// subscription that feeds the processor.
func New(deps Deps, cfg *config.App) *App {
	logger := deps.Logger

	a := &App{
		Bus:       deps.Bus,
		scanner:   recurring.NewScanner(deps.Uow, deps.Bus, logger),
		processor: recurring.NewProcessor(deps.Uow, logger),
		evaluator: budget.NewEvaluator(deps.Uow, deps.Notifier, logger),
		reports:   report.NewGenerator(deps.Uow, deps.Notifier, deps.Insights, logger),
		logger:    logger,
	}

	retry := scheduler.RetryPolicy{
		MaxAttempts: cfg.Scheduler.RetryMaxAttempts,
		BaseDelay:   cfg.Scheduler.RetryBaseDelay,
	}
	a.Scheduler = scheduler.New(logger, retry)

	a.Scheduler.Register(scheduler.Job{
		Name:  JobRecurringScan,
		Every: cfg.Scheduler.ScanInterval,
		Run: func(ctx context.Context) error {
			_, err := a.scanner.Scan(ctx, time.Now().UTC())
			return err
		},
	})
	a.Scheduler.Register(scheduler.Job{
		Name:  JobBudgetCheck,
		Every: cfg.Scheduler.EvaluateInterval,
		Run: func(ctx context.Context) error {
			_, err := a.evaluator.Evaluate(ctx)
			return err
		},
	})
	a.Scheduler.Register(scheduler.Job{
		Name:  JobMonthlyReport,
		Every: cfg.Scheduler.ReportInterval,
		Run: func(ctx context.Context) error {
			// The job ticks daily but reports only on the first of the month.
			if time.Now().UTC().Day() != 1 {
				return nil
			}
			_, err := a.reports.Run(ctx)
			return err
		},
	})

	throttle := scheduler.NewThrottle(cfg.Scheduler.ThrottlePerUser, cfg.Scheduler.ThrottleWindow)
	deps.Bus.Register(events.RecurringTransactionDue{}.Type(),
		processorHandler(a.processor, throttle, retry, logger))

	return a
}

// processorHandler decorates the processor with the per-user throttle and
// the shell's retry policy. Throttled units wait, they are not dropped.
func processorHandler(p *recurring.Processor, throttle *scheduler.Throttle, retry scheduler.RetryPolicy, logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e events.Event) error {
		var key string
		switch due := e.(type) {
		case *events.RecurringTransactionDue:
			key = due.UserID.String()
		case events.RecurringTransactionDue:
			key = due.UserID.String()
		}
		if key != "" {
			if err := throttle.Wait(ctx, key); err != nil {
				return err
			}
		}
		run := scheduler.WithRetry(retry, logger.With("handler", "processor"),
			func(ctx context.Context) error { return p.Handle(ctx, e) })
		return run(ctx)
	}
}

// Start launches the job loops.
func (a *App) Start(ctx context.Context) {
	a.logger.Info("starting scheduler")
	a.Scheduler.Start(ctx)
}

// Wait blocks until all job loops have stopped.
func (a *App) Wait() {
	a.Scheduler.Wait()
}
