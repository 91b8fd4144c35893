package domain

import "time"

// OrderStatus is the single status enumeration shared by the webhook
// handlers and the admin API. Lifecycle: pending → processing → shipped →
// out_for_delivery → delivered; cancelled is terminal from pending or
// processing.
type OrderStatus string

const (
	StatusPending        OrderStatus = "pending"
	StatusProcessing     OrderStatus = "processing"
	StatusShipped        OrderStatus = "shipped"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// ValidStatus reports whether s is a known order status.
func ValidStatus(s OrderStatus) bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped,
		StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == StatusPending || s == StatusProcessing
}

type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Color    string  `json:"color,omitempty"`
	Size     string  `json:"size,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
	Rating   float64 `json:"rating"`
	Stock    int     `json:"stock"`
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Color     string  `json:"color,omitempty"`
	Size      string  `json:"size,omitempty"`
	ImageURL  string  `json:"image_url,omitempty"`
}

// CartTotal sums price × quantity over all items. Totals are always
// recomputed from a freshly fetched cart, never cached.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

type Order struct {
	Number    string      `json:"number"`
	SessionID string      `json:"session_id,omitempty"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	PlacedAt  time.Time   `json:"placed_at"`
	ETA       string      `json:"eta,omitempty"`
}

type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	Hours   string `json:"hours"`
	Phone   string `json:"phone"`
	MapURL  string `json:"map_url,omitempty"`
}

type Promotion struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ValidUntil  time.Time `json:"valid_until"`
}

// CouponResult is the outcome of validating a coupon code.
type CouponResult struct {
	Code         string   `json:"code"`
	Valid        bool     `json:"valid"`
	Discount     string   `json:"discount,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Contact holds a session's notification endpoints.
type Contact struct {
	SessionID string `json:"session_id"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

// SalesByDate is one row of the sales-by-date analytics query.
type SalesByDate struct {
	Date       string  `json:"date"`
	TotalSales float64 `json:"total_sales"`
	OrderCount int     `json:"order_count"`
}

// LoyalCustomer is one row of the loyal-customers analytics query.
type LoyalCustomer struct {
	SessionID  string `json:"session_id"`
	OrderCount int    `json:"order_count"`
}
