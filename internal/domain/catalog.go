package domain

import "context"

// ProductFilter narrows a catalog search. Empty fields match everything.
type ProductFilter struct {
	Query    string
	Category string
	Color    string
	MaxPrice float64
	Limit    int
}

// Catalog is the data-access boundary. Implementations must return
// store.ErrNotFound for missing identifiers and store.ErrConflict for
// unique-constraint violations rather than inventing zero values.
type Catalog interface {
	// Products
	SearchProducts(ctx context.Context, f ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductByName(ctx context.Context, name string) (*Product, error)
	TopRatedProducts(ctx context.Context, limit int) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) error
	UpdateProduct(ctx context.Context, p Product) error
	DeleteProduct(ctx context.Context, id string) error

	// Carts (keyed by session)
	GetCart(ctx context.Context, sessionID string) ([]CartItem, error)
	AddToCart(ctx context.Context, sessionID string, item CartItem) error
	RemoveFromCart(ctx context.Context, sessionID, productID string, qty int) error
	ClearCart(ctx context.Context, sessionID string) error

	// Orders
	GetOrder(ctx context.Context, number string) (*Order, error)
	OrdersBySession(ctx context.Context, sessionID string, limit int) ([]Order, error)
	ListOrders(ctx context.Context) ([]Order, error)
	PlaceOrder(ctx context.Context, o Order) error
	SetOrderStatus(ctx context.Context, number string, status OrderStatus) error

	// Stores, promotions, coupons
	StoresByCity(ctx context.Context, city string, limit int) ([]Store, error)
	ActivePromotions(ctx context.Context) ([]Promotion, error)
	ValidateCoupon(ctx context.Context, code string) (*CouponResult, error)

	// Contacts
	GetContact(ctx context.Context, sessionID string) (*Contact, error)
	SetContact(ctx context.Context, c Contact) error

	// Analytics
	SalesByDate(ctx context.Context, days int) ([]SalesByDate, error)
	TotalRevenue(ctx context.Context) (float64, error)
	LoyalCustomers(ctx context.Context, limit int) ([]LoyalCustomer, error)
}
