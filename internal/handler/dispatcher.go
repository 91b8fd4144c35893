// Package handler maps intent events to replies. One handler runs per
// event; the dispatcher owns the cross-cutting behavior handlers used to
// duplicate: error recovery, the non-empty reply invariant, context decay,
// and instrumentation.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
	"shopbot/internal/replies"
)

// Func is one intent handler. It reads the event, queries the catalog,
// and accumulates into reply. Returned errors never reach the channel:
// the dispatcher maps them to the generic apology.
type Func func(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error

// Dispatcher routes intent events to handlers.
type Dispatcher struct {
	catalog  domain.Catalog
	contexts domain.ContextStore
	bus      domain.EventBus
	fallback domain.Completer
	replies  *replies.Catalog
	metrics  *metrics.Metrics
	logger   *slog.Logger
	handlers map[string]Func
}

type Deps struct {
	Catalog  domain.Catalog
	Contexts domain.ContextStore
	Bus      domain.EventBus
	Fallback domain.Completer
	Replies  *replies.Catalog
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func New(deps Deps) *Dispatcher {
	d := &Dispatcher{
		catalog:  deps.Catalog,
		contexts: deps.Contexts,
		bus:      deps.Bus,
		fallback: deps.Fallback,
		replies:  deps.Replies,
		metrics:  deps.Metrics,
		logger:   deps.Logger.With("component", "dispatcher"),
	}
	d.handlers = map[string]Func{
		"greeting":             d.handleGreeting,
		"product.search":       d.handleProductSearch,
		"product.details":      d.handleProductDetails,
		"cart.view":            d.handleCartView,
		"cart.add":             d.handleCartAdd,
		"cart.remove":          d.handleCartRemove,
		"order.place":          d.handleOrderPlace,
		"order.status":         d.handleOrderStatus,
		"order.history":        d.handleOrderHistory,
		"order.repeat":         d.handleOrderRepeat,
		"order.cancel":         d.handleOrderCancel,
		"order.cancel.confirm": d.handleOrderCancelConfirm,
		"order.cancel.decline": d.handleOrderCancelDecline,
		"shipping.info":        d.handleShippingInfo,
		"recommend":            d.handleRecommend,
		"promotion.list":       d.handlePromotionList,
		"coupon.check":         d.handleCouponCheck,
		"store.locator":        d.handleStoreLocator,
		"contact.phone":        d.handleContactPhone,
		"contact.email":        d.handleContactEmail,
	}
	return d
}

// Intents returns the known intent names.
func (d *Dispatcher) Intents() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// Dispatch runs exactly one handler for the event and always returns a
// usable reply: handler errors and panics degrade to the generic apology
// instead of failing the request, so the channel never sees a 5xx and
// never retry-storms.
func (d *Dispatcher) Dispatch(ctx context.Context, evt domain.IntentEvent) *domain.Reply {
	start := time.Now()
	reply := &domain.Reply{}

	// One turn passed for this session: age its context slots before the
	// handler runs, so a slot set this turn starts with a full lifespan.
	if err := d.contexts.Decay(ctx, evt.SessionID); err != nil {
		d.logger.Warn("context decay failed", "session", evt.SessionID, "err", err)
	}

	h, known := d.handlers[evt.Intent]
	intentLabel := evt.Intent
	if !known {
		h = d.handleFallback
		intentLabel = "fallback"
	}
	d.metrics.IntentDispatches.WithLabelValues(intentLabel).Inc()

	err := d.safeCall(ctx, h, evt, reply)
	if err != nil {
		d.metrics.HandlerErrors.WithLabelValues(intentLabel).Inc()
		d.logger.Error("handler failed",
			"intent", evt.Intent,
			"session", evt.SessionID,
			"err", err,
		)
		reply = &domain.Reply{}
		reply.Say(d.replies.Text("apology"))
		reply.Suggest(d.replies.Suggestions("default")...)
	}

	// A reply with no text and no rich content would render as an empty
	// bubble; inject the fallback apology instead.
	if reply.Empty() {
		d.logger.Warn("handler produced empty reply", "intent", evt.Intent)
		reply.Say(d.replies.Text("fallback_apology"))
		reply.Suggest(d.replies.Suggestions("default")...)
	}

	d.metrics.HandlerDuration.WithLabelValues(intentLabel).Observe(time.Since(start).Seconds())
	return reply
}

// safeCall invokes h, converting a panic into an error.
func (d *Dispatcher) safeCall(ctx context.Context, h Func, evt domain.IntentEvent, reply *domain.Reply) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()
	return h(ctx, evt, reply)
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("handler panicked: %v", e.value)
}

func (d *Dispatcher) handleGreeting(_ context.Context, _ domain.IntentEvent, reply *domain.Reply) error {
	reply.Say(d.replies.Text("greeting"))
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}
