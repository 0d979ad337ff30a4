// Package scheduler is the dispatch shell: it owns the timers that fire the
// scanner, evaluator and report generator, the retry policy decorating every
// unit of execution, and the per-user throttle for processor work.
//
// There is no hidden global registration: one Scheduler is built at process
// startup holding every trigger definition and its handler.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is one scheduled trigger: a name, a cadence, and the unit of work the
// trigger fires.
type Job struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// RunInfo is the observable state of one registered job.
type RunInfo struct {
	Name      string        `json:"name"`
	Every     time.Duration `json:"every"`
	Runs      uint64        `json:"runs"`
	Failures  uint64        `json:"failures"`
	LastRun   time.Time     `json:"last_run"`
	LastError string        `json:"last_error,omitempty"`
}

type jobEntry struct {
	job  Job
	run  func(ctx context.Context) error
	mu   sync.Mutex
	info RunInfo
}

// Scheduler runs registered jobs on their cadence, each decorated with the
// bounded-retry policy. Jobs run concurrently with one another; a job never
// overlaps with itself because each job's loop is a single goroutine.
type Scheduler struct {
	logger *slog.Logger
	retry  RetryPolicy

	mu   sync.RWMutex
	jobs map[string]*jobEntry
	wg   sync.WaitGroup
}

// New creates a scheduler with the given retry policy.
func New(logger *slog.Logger, retry RetryPolicy) *Scheduler {
	return &Scheduler{
		logger: logger.With("component", "scheduler"),
		retry:  retry,
		jobs:   make(map[string]*jobEntry),
	}
}

// Register adds a job to the schedule. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.Name] = &jobEntry{
		job:  job,
		run:  WithRetry(s.retry, s.logger.With("job", job.Name), job.Run),
		info: RunInfo{Name: job.Name, Every: job.Every},
	}
}

// Start launches one loop per registered job. Each job runs once
// immediately, then on every tick of its cadence, until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, entry := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, entry)
	}
}

// Wait blocks until every job loop has exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, entry *jobEntry) {
	defer s.wg.Done()

	s.runOnce(ctx, entry)

	ticker := time.NewTicker(entry.job.Every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job loop stopped", "job", entry.job.Name)
			return
		case <-ticker.C:
			s.runOnce(ctx, entry)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, entry *jobEntry) {
	started := time.Now().UTC()
	err := entry.run(ctx)

	entry.mu.Lock()
	entry.info.Runs++
	entry.info.LastRun = started
	if err != nil {
		entry.info.Failures++
		entry.info.LastError = err.Error()
	} else {
		entry.info.LastError = ""
	}
	entry.mu.Unlock()

	if err != nil {
		// Retries are exhausted at this point; the tick is dropped and the
		// next scheduled tick re-discovers any unresolved work.
		s.logger.Error("job failed", "job", entry.job.Name, "error", err)
		return
	}
	s.logger.Debug("job completed", "job", entry.job.Name, "took", time.Since(started))
}

// Trigger runs a job by name outside its schedule.
func (s *Scheduler) Trigger(ctx context.Context, name string) error {
	s.mu.RLock()
	entry, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("scheduler: unknown job %q", name)
	}
	s.runOnce(ctx, entry)
	return nil
}

// Status returns a snapshot of every registered job's run state.
func (s *Scheduler) Status() []RunInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RunInfo, 0, len(s.jobs))
	for _, entry := range s.jobs {
		entry.mu.Lock()
		out = append(out, entry.info)
		entry.mu.Unlock()
	}
	return out
}
