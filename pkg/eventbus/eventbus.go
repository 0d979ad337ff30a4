// Package eventbus defines the contract for dispatching scheduler work units.
package eventbus

import (
	"context"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
)

// HandlerFunc consumes one event. A non-nil error tells the dispatching
// shell the unit failed; whether it is retried is the shell's decision,
// not the transport's.
type HandlerFunc func(ctx context.Context, e events.Event) error

// Bus is the contract for publishing and subscribing to scheduler events.
// Delivery is at-least-once: handlers must be idempotent.
type Bus interface {
	// Emit publishes an event to all handlers registered for its type.
	Emit(ctx context.Context, e events.Event) error

	// Register subscribes a handler to an event type.
	Register(eventType string, handler HandlerFunc)
}
