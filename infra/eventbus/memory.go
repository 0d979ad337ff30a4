package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pennyflow/pennyflow/pkg/domain/events"
	"github.com/pennyflow/pennyflow/pkg/eventbus"
)

// MemoryBus is an in-process, synchronous implementation of eventbus.Bus.
// It is the default transport for single-instance deployments and the one
// used by tests, which can inspect everything that was published.
type MemoryBus struct {
	handlers  map[string][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		handlers: make(map[string][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register subscribes a handler to an event type.
func (b *MemoryBus) Register(eventType string, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event synchronously to every handler registered for
// its type. Handler failures are logged, not propagated: retry policy lives
// in the dispatch shell's decorator, not in the transport.
func (b *MemoryBus) Emit(ctx context.Context, e events.Event) error {
	b.mu.RLock()
	handlers := b.handlers[e.Type()]
	b.mu.RUnlock()

	b.mu.Lock()
	b.published = append(b.published, e)
	b.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, e); err != nil {
			b.logger.Error("handler failed", "event_type", e.Type(), "error", err)
		}
	}
	return nil
}

// Published returns every event emitted so far. For tests.
func (b *MemoryBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]events.Event, len(b.published))
	copy(out, b.published)
	return out
}

// ClearPublished resets the recorded events. For tests.
func (b *MemoryBus) ClearPublished() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
}

var _ eventbus.Bus = (*MemoryBus)(nil)
