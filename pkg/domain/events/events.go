// Package events defines the work-unit events exchanged between the
// scheduler's scanner and its processors.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the marker interface for all scheduler events.
type Event interface {
	// Type returns the stable event type name used for routing and decoding.
	Type() string
}

// RecurringTransactionDue is emitted by the scanner once per due template.
// It carries only identifiers: the processor re-loads and re-checks the
// template itself, so delayed, duplicated or reordered delivery is safe.
type RecurringTransactionDue struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	UserID        uuid.UUID `json:"user_id"`
	DueAt         time.Time `json:"due_at"`
}

// Type implements Event.
func (RecurringTransactionDue) Type() string { return "transaction.recurring.due" }

// EventTypes maps type names to factories so wire transports (Redis, Kafka)
// can decode envelopes back into concrete events.
var EventTypes = map[string]func() Event{
	"transaction.recurring.due": func() Event { return &RecurringTransactionDue{} },
}
