package store

import (
	"context"
	"time"

	"shopbot/internal/domain"
)

// Seed loads the demo catalog into an empty database. Existing data is
// left untouched so repeated startups are safe.
func (s *SQLiteStore) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, p := range seedProducts {
		if err := s.CreateProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, st := range seedStores {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO stores (id, name, address, city, hours, phone, map_url) VALUES (?, ?, ?, ?, ?, ?, ?)",
			st.ID, st.Name, st.Address, st.City, st.Hours, st.Phone, st.MapURL); err != nil {
			return err
		}
	}
	for _, p := range seedPromotions() {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO promotions (id, title, description, valid_until) VALUES (?, ?, ?, ?)",
			p.ID, p.Title, p.Description, p.ValidUntil); err != nil {
			return err
		}
	}
	for code, discount := range seedCoupons {
		if _, err := s.db.ExecContext(ctx,
			"INSERT INTO coupons (code, discount) VALUES (?, ?)", code, discount); err != nil {
			return err
		}
	}
	for _, o := range seedOrders() {
		if err := s.PlaceOrder(ctx, o); err != nil {
			return err
		}
	}

	s.logger.Info("seeded demo catalog",
		"products", len(seedProducts),
		"stores", len(seedStores),
		"coupons", len(seedCoupons),
	)
	return nil
}

var seedProducts = []domain.Product{
	{ID: "p-1001", Name: "Classic White Sneakers", Category: "shoes", Price: 59.99, Color: "white", Size: "42", ImageURL: "https://img.example.com/p/1001.jpg", Rating: 4.7, Stock: 34},
	{ID: "p-1002", Name: "Trail Running Shoes", Category: "shoes", Price: 89.99, Color: "blue", Size: "43", ImageURL: "https://img.example.com/p/1002.jpg", Rating: 4.5, Stock: 18},
	{ID: "p-1003", Name: "Leather Ankle Boots", Category: "shoes", Price: 129.00, Color: "brown", Size: "41", ImageURL: "https://img.example.com/p/1003.jpg", Rating: 4.8, Stock: 9},
	{ID: "p-2001", Name: "Denim Jacket", Category: "jackets", Price: 79.50, Color: "blue", Size: "M", ImageURL: "https://img.example.com/p/2001.jpg", Rating: 4.4, Stock: 22},
	{ID: "p-2002", Name: "Waterproof Rain Jacket", Category: "jackets", Price: 99.00, Color: "green", Size: "L", ImageURL: "https://img.example.com/p/2002.jpg", Rating: 4.6, Stock: 15},
	{ID: "p-3001", Name: "Cotton Crewneck T-Shirt", Category: "shirts", Price: 19.99, Color: "black", Size: "M", ImageURL: "https://img.example.com/p/3001.jpg", Rating: 4.2, Stock: 120},
	{ID: "p-3002", Name: "Oxford Button-Down Shirt", Category: "shirts", Price: 44.90, Color: "white", Size: "L", ImageURL: "https://img.example.com/p/3002.jpg", Rating: 4.3, Stock: 47},
	{ID: "p-4001", Name: "Slim Fit Chinos", Category: "pants", Price: 54.00, Color: "beige", Size: "32", ImageURL: "https://img.example.com/p/4001.jpg", Rating: 4.1, Stock: 38},
	{ID: "p-4002", Name: "Stretch Denim Jeans", Category: "pants", Price: 64.99, Color: "blue", Size: "33", ImageURL: "https://img.example.com/p/4002.jpg", Rating: 4.5, Stock: 52},
	{ID: "p-5001", Name: "Canvas Weekender Bag", Category: "accessories", Price: 74.00, Color: "grey", ImageURL: "https://img.example.com/p/5001.jpg", Rating: 4.9, Stock: 11},
}

var seedStores = []domain.Store{
	{ID: "s-01", Name: "Downtown Flagship", Address: "12 Market Street", City: "Springfield", Hours: "Mon-Sat 9:00-21:00", Phone: "+1 555 010 0001", MapURL: "https://maps.example.com/s-01"},
	{ID: "s-02", Name: "Riverside Mall", Address: "200 Riverside Avenue", City: "Springfield", Hours: "Daily 10:00-22:00", Phone: "+1 555 010 0002", MapURL: "https://maps.example.com/s-02"},
	{ID: "s-03", Name: "Airport Outlet", Address: "Terminal 2, Gate B", City: "Shelbyville", Hours: "Daily 6:00-23:00", Phone: "+1 555 010 0003", MapURL: "https://maps.example.com/s-03"},
	{ID: "s-04", Name: "Old Town Corner", Address: "3 Cobble Lane", City: "Springfield", Hours: "Tue-Sun 10:00-19:00", Phone: "+1 555 010 0004", MapURL: "https://maps.example.com/s-04"},
}

var seedCoupons = map[string]string{
	"SUMMER40":  "40% off selected items",
	"WELCOME10": "10% off your first order",
	"FREESHIP":  "free standard shipping",
}

func seedPromotions() []domain.Promotion {
	return []domain.Promotion{
		{ID: "promo-01", Title: "Summer Sale", Description: "Up to 40% off selected summer styles.", ValidUntil: time.Now().AddDate(0, 1, 0)},
		{ID: "promo-02", Title: "Free Shipping Weekend", Description: "Free standard shipping on all orders, no minimum.", ValidUntil: time.Now().AddDate(0, 0, 14)},
	}
}

func seedOrders() []domain.Order {
	return []domain.Order{
		{
			Number: "ORD-1001", SessionID: "demo-session", Status: domain.StatusProcessing,
			Total: 139.48, PlacedAt: time.Now().Add(-26 * time.Hour), ETA: "3-5 business days",
			Items: []domain.OrderItem{
				{ProductID: "p-1001", Name: "Classic White Sneakers", Price: 59.99, Quantity: 1},
				{ProductID: "p-2001", Name: "Denim Jacket", Price: 79.50, Quantity: 1},
			},
		},
		{
			Number: "ORD-1002", SessionID: "demo-session", Status: domain.StatusDelivered,
			Total: 39.98, PlacedAt: time.Now().AddDate(0, 0, -12),
			Items: []domain.OrderItem{
				{ProductID: "p-3001", Name: "Cotton Crewneck T-Shirt", Price: 19.99, Quantity: 2},
			},
		},
		{
			Number: "ORD-1003", SessionID: "other-session", Status: domain.StatusShipped,
			Total: 89.99, PlacedAt: time.Now().AddDate(0, 0, -2), ETA: "2 business days",
			Items: []domain.OrderItem{
				{ProductID: "p-1002", Name: "Trail Running Shoes", Price: 89.99, Quantity: 1},
			},
		},
	}
}
