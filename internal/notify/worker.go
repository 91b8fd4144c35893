// Package notify delivers order lifecycle notifications. Delivery is
// best-effort: a failed channel is logged and counted, the order flow
// never waits on it.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
	"shopbot/internal/store"
)

// Worker consumes order events from the bus and fans them out to the
// configured notifiers using the session's stored contact details.
type Worker struct {
	bus       domain.EventBus
	catalog   domain.Catalog
	notifiers []domain.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewWorker(bus domain.EventBus, catalog domain.Catalog, notifiers []domain.Notifier, m *metrics.Metrics, logger *slog.Logger) *Worker {
	return &Worker{
		bus:       bus,
		catalog:   catalog,
		notifiers: notifiers,
		metrics:   m,
		logger:    logger.With("component", "notify"),
	}
}

// Run processes events until the context is cancelled or the bus closes.
func (w *Worker) Run(ctx context.Context) {
	events := w.bus.Subscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			w.deliver(ctx, evt)
		}
	}
}

func (w *Worker) deliver(ctx context.Context, evt domain.OrderEvent) {
	if len(w.notifiers) == 0 {
		return
	}

	sessionID := evt.SessionID
	if sessionID == "" {
		sessionID = evt.Order.SessionID
	}
	if sessionID == "" {
		return
	}

	contact, err := w.catalog.GetContact(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			w.logger.Warn("contact lookup failed", "session", sessionID, "err", err)
		}
		return
	}

	for _, n := range w.notifiers {
		if !n.CanReach(*contact) {
			continue
		}
		if err := n.Notify(*contact, evt); err != nil {
			w.metrics.NotificationsSent.WithLabelValues(n.Name(), "error").Inc()
			w.logger.Warn("notification failed",
				"channel", n.Name(),
				"order", evt.Order.Number,
				"err", err,
			)
			continue
		}
		w.metrics.NotificationsSent.WithLabelValues(n.Name(), "ok").Inc()
		w.logger.Info("notification sent",
			"channel", n.Name(),
			"order", evt.Order.Number,
			"type", evt.Type,
		)
	}
}
