package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shopbot/internal/domain"
	"shopbot/internal/store"
)

// awaitingCancelSlot keeps the order number between the cancel request and
// the follow-up confirmation. Two turns: the confirmation itself plus one
// clarification.
const (
	awaitingCancelSlot     = "awaiting_cancel"
	awaitingCancelLifespan = 2
)

func (d *Dispatcher) handleOrderStatus(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	number := orderNumberParam(evt.Parameters)
	if number == "" {
		reply.Say(d.replies.Text("order_which"))
		reply.Suggest(d.replies.Suggestions("order")...)
		return nil
	}

	o, err := d.catalog.GetOrder(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		reply.Say(d.replies.Text("order_not_found"))
		reply.Suggest(d.replies.Suggestions("order")...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order %s: %w", number, err)
	}

	msg := fmt.Sprintf("Order %s is %s.", o.Number, statusLabel(o.Status))
	if o.ETA != "" && o.Status != domain.StatusDelivered && o.Status != domain.StatusCancelled {
		msg += " Estimated delivery: " + o.ETA + "."
	}
	reply.Say(msg)
	reply.AddBlock(orderCard(*o))
	reply.Suggest(d.replies.Suggestions("order")...)
	return nil
}

func (d *Dispatcher) handleOrderHistory(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	orders, err := d.catalog.OrdersBySession(ctx, evt.SessionID, domain.MaxListItems)
	if err != nil {
		return fmt.Errorf("orders by session: %w", err)
	}
	if len(orders) == 0 {
		reply.Say("You don't have any orders yet.")
		reply.Suggest("Browse products")
		return nil
	}

	reply.Say(fmt.Sprintf("Here are your last %d orders:", len(orders)))
	sections := make([]domain.AccordionSection, 0, len(orders))
	for _, o := range orders {
		sections = append(sections, domain.AccordionSection{
			Title: fmt.Sprintf("%s — %s", o.Number, statusLabel(o.Status)),
			Text:  orderSummary(o),
		})
	}
	reply.AddBlock(domain.Block{Type: domain.BlockAccordion, Sections: sections})
	reply.Suggest("Repeat my last order", "Track my order")
	return nil
}

func (d *Dispatcher) handleOrderRepeat(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	orders, err := d.catalog.OrdersBySession(ctx, evt.SessionID, 1)
	if err != nil {
		return fmt.Errorf("orders by session: %w", err)
	}
	if len(orders) == 0 || len(orders[0].Items) == 0 {
		reply.Say("I couldn't find a previous order to repeat.")
		reply.Suggest("Browse products")
		return nil
	}

	last := orders[0]
	for _, it := range last.Items {
		item := domain.CartItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
		if err := d.catalog.AddToCart(ctx, evt.SessionID, item); err != nil {
			return fmt.Errorf("add to cart: %w", err)
		}
	}

	items, err := d.catalog.GetCart(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	reply.Say(fmt.Sprintf("I've added the items from order %s back to your cart.", last.Number))
	d.sayCart(reply, items)
	reply.Suggest(d.replies.Suggestions("cart")...)
	return nil
}

func (d *Dispatcher) handleOrderPlace(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	items, err := d.catalog.GetCart(ctx, evt.SessionID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if len(items) == 0 {
		reply.Say(d.replies.Text("cart_empty"))
		reply.Suggest(d.replies.Suggestions("default")...)
		return nil
	}

	order := domain.Order{
		Number:    "ORD-" + strings.ToUpper(uuid.NewString()[:8]),
		SessionID: evt.SessionID,
		Status:    domain.StatusPending,
		Total:     domain.CartTotal(items),
		ETA:       "3-5 business days",
	}
	for _, it := range items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	if err := d.catalog.PlaceOrder(ctx, order); err != nil {
		return fmt.Errorf("place order: %w", err)
	}
	if err := d.catalog.ClearCart(ctx, evt.SessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	d.bus.Publish(domain.OrderEvent{Type: domain.OrderPlaced, Order: order, SessionID: evt.SessionID})

	reply.Say(fmt.Sprintf("Your order %s is placed! Total $%.2f, estimated delivery %s.", order.Number, order.Total, order.ETA))
	reply.AddBlock(orderCard(order))

	// Ask for contact details when we can't notify this session yet.
	if _, err := d.catalog.GetContact(ctx, evt.SessionID); errors.Is(err, store.ErrNotFound) {
		reply.Say("Share your phone number or email if you'd like order updates.")
	}
	reply.Suggest(d.replies.Suggestions("order")...)
	return nil
}

// handleOrderCancel is phase 1 of the cancellation flow: validate
// eligibility and stash the order number in a context slot awaiting the
// follow-up confirmation intent.
func (d *Dispatcher) handleOrderCancel(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	number := orderNumberParam(evt.Parameters)
	if number == "" {
		reply.Say(d.replies.Text("cancel_unknown_order"))
		reply.Suggest(d.replies.Suggestions("order")...)
		return nil
	}

	o, err := d.catalog.GetOrder(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		reply.Say(d.replies.Text("order_not_found"))
		reply.Suggest(d.replies.Suggestions("order")...)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order %s: %w", number, err)
	}

	if !o.Status.Cancellable() {
		reply.Say(d.replies.Text("cancel_not_eligible", o.Number, statusLabel(o.Status)))
		reply.Suggest("Start a return", "Track my order")
		return nil
	}

	err = d.contexts.Set(ctx, evt.SessionID, domain.ContextSlot{
		Name:     awaitingCancelSlot,
		Params:   map[string]any{"order_number": o.Number},
		Lifespan: awaitingCancelLifespan,
	})
	if err != nil {
		return fmt.Errorf("set context slot: %w", err)
	}

	reply.Say(d.replies.Text("cancel_confirm_question", o.Number))
	reply.Suggest(d.replies.Suggestions("cancel")...)
	return nil
}

// handleOrderCancelConfirm is phase 2: read the slot, cancel, clear.
// A missing or malformed slot means the confirmation arrived without a
// live cancel request (expired or never made), so ask again instead of
// failing.
func (d *Dispatcher) handleOrderCancelConfirm(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	slot, err := d.contexts.Get(ctx, evt.SessionID, awaitingCancelSlot)
	if err != nil {
		return fmt.Errorf("get context slot: %w", err)
	}
	number := slotOrderNumber(slot)
	if number == "" {
		reply.Say(d.replies.Text("cancel_unknown_order"))
		reply.Suggest(d.replies.Suggestions("order")...)
		return nil
	}

	o, err := d.catalog.GetOrder(ctx, number)
	if errors.Is(err, store.ErrNotFound) {
		reply.Say(d.replies.Text("order_not_found"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get order %s: %w", number, err)
	}
	if !o.Status.Cancellable() {
		// Status moved on between the two turns.
		reply.Say(d.replies.Text("cancel_not_eligible", o.Number, statusLabel(o.Status)))
		_ = d.contexts.Delete(ctx, evt.SessionID, awaitingCancelSlot)
		return nil
	}

	if err := d.catalog.SetOrderStatus(ctx, number, domain.StatusCancelled); err != nil {
		return fmt.Errorf("cancel order %s: %w", number, err)
	}
	if err := d.contexts.Delete(ctx, evt.SessionID, awaitingCancelSlot); err != nil {
		d.logger.Warn("clearing cancel slot failed", "session", evt.SessionID, "err", err)
	}

	o.Status = domain.StatusCancelled
	d.bus.Publish(domain.OrderEvent{Type: domain.OrderCancelled, Order: *o, SessionID: evt.SessionID})

	reply.Say(d.replies.Text("cancel_done", number))
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}

func (d *Dispatcher) handleOrderCancelDecline(ctx context.Context, evt domain.IntentEvent, reply *domain.Reply) error {
	if err := d.contexts.Delete(ctx, evt.SessionID, awaitingCancelSlot); err != nil {
		d.logger.Warn("clearing cancel slot failed", "session", evt.SessionID, "err", err)
	}
	reply.Say(d.replies.Text("cancel_declined"))
	reply.Suggest(d.replies.Suggestions("default")...)
	return nil
}

// orderNumberParam accepts both string and numeric order parameters, since
// the NLU extracts numbers as float64.
func orderNumberParam(p domain.Params) string {
	if s := p.String("order_number"); s != "" {
		return s
	}
	if n, ok := p.Number("order_number"); ok {
		return fmt.Sprintf("%.0f", n)
	}
	return ""
}

func slotOrderNumber(slot *domain.ContextSlot) string {
	if slot == nil || slot.Params == nil {
		return ""
	}
	s, _ := slot.Params["order_number"].(string)
	return s
}

func orderCard(o domain.Order) domain.Block {
	return domain.Block{
		Type: domain.BlockInfoCard,
		Info: &domain.InfoCard{
			Title:    "Order " + o.Number,
			Subtitle: fmt.Sprintf("%s · $%.2f", statusLabel(o.Status), o.Total),
		},
	}
}

func orderSummary(o domain.Order) string {
	parts := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
	}
	return fmt.Sprintf("%s — total $%.2f", strings.Join(parts, ", "), o.Total)
}

func statusLabel(s domain.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}
