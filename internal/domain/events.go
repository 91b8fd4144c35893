package domain

import "time"

// OrderEventType classifies an order lifecycle event.
type OrderEventType string

const (
	OrderPlaced        OrderEventType = "placed"
	OrderStatusChanged OrderEventType = "status_changed"
	OrderCancelled     OrderEventType = "cancelled"
)

// OrderEvent is published on the event bus when an order changes state.
// The notification worker is the only consumer today.
type OrderEvent struct {
	Type      OrderEventType
	Order     Order
	SessionID string
	Timestamp time.Time
}

// EventBus decouples order mutations from notification delivery.
type EventBus interface {
	Publish(evt OrderEvent)
	Subscribe() <-chan OrderEvent
	Close()
}

// Notifier delivers an order event over one outbound channel (email, SMS).
// Delivery failures are reported but must never fail the order flow.
// CanReach reports whether the contact carries the channel's endpoint, so
// a phone-only contact never counts as an email delivery failure.
type Notifier interface {
	Name() string
	CanReach(contact Contact) bool
	Notify(contact Contact, evt OrderEvent) error
}
