// Package bus decouples order mutations from notification delivery: the
// handlers and the admin API publish order lifecycle events, the
// notification worker consumes them.
package bus

import (
	"log/slog"
	"sync"
	"time"

	"shopbot/internal/domain"
)

const publishTimeout = 5 * time.Second

// InMemoryBus is a Go-channel based event bus for in-process delivery.
type InMemoryBus struct {
	events chan domain.OrderEvent
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

// New creates an InMemoryBus with the given buffer size.
func New(bufferSize int, logger *slog.Logger) *InMemoryBus {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &InMemoryBus{
		events: make(chan domain.OrderEvent, bufferSize),
		logger: logger,
	}
}

// Publish enqueues an event. Blocks up to publishTimeout when the bus is
// full instead of dropping immediately; a stuck consumer eventually drops
// the event with an error log rather than wedging the order flow.
func (b *InMemoryBus) Publish(evt domain.OrderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.logger.Warn("attempted to publish to closed bus")
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	select {
	case b.events <- evt:
	default:
		b.logger.Warn("event bus full, waiting", "type", evt.Type, "order", evt.Order.Number)
		timer := time.NewTimer(publishTimeout)
		defer timer.Stop()
		select {
		case b.events <- evt:
		case <-timer.C:
			b.logger.Error("order event dropped: bus full",
				"type", evt.Type,
				"order", evt.Order.Number,
			)
		}
	}
}

func (b *InMemoryBus) Subscribe() <-chan domain.OrderEvent {
	return b.events
}

// Close shuts the bus down. Publish becomes a no-op and the subscriber
// channel is closed once drained.
func (b *InMemoryBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.events)
}
