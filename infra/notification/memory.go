package notification

import (
	"context"
	"errors"
	"sync"

	"github.com/pennyflow/pennyflow/pkg/notification"
)

// MemoryNotifier records every notification it is asked to send. For tests.
type MemoryNotifier struct {
	mu      sync.Mutex
	Alerts  []notification.BudgetAlert
	Reports []notification.MonthlyReport

	// FailNext makes the next send attempt fail, then resets.
	FailNext bool
}

// NewMemoryNotifier creates a recording notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

func (n *MemoryNotifier) SendBudgetAlert(_ context.Context, alert notification.BudgetAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailNext {
		n.FailNext = false
		return errors.New("notifier: simulated delivery failure")
	}
	n.Alerts = append(n.Alerts, alert)
	return nil
}

func (n *MemoryNotifier) SendMonthlyReport(_ context.Context, report notification.MonthlyReport) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.FailNext {
		n.FailNext = false
		return errors.New("notifier: simulated delivery failure")
	}
	n.Reports = append(n.Reports, report)
	return nil
}

// SentAlerts returns a copy of the recorded budget alerts.
func (n *MemoryNotifier) SentAlerts() []notification.BudgetAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.BudgetAlert, len(n.Alerts))
	copy(out, n.Alerts)
	return out
}

// SentReports returns a copy of the recorded monthly reports.
func (n *MemoryNotifier) SentReports() []notification.MonthlyReport {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]notification.MonthlyReport, len(n.Reports))
	copy(out, n.Reports)
	return out
}

var _ notification.Notifier = (*MemoryNotifier)(nil)
