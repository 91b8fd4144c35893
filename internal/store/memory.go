package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shopbot/internal/domain"
)

// MemoryStore is an in-memory domain.Catalog used in tests and as a
// standalone demo backend. Same contract as SQLiteStore, deterministic
// ordering.
type MemoryStore struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	carts      map[string][]domain.CartItem
	orders     map[string]domain.Order
	orderSeq   []string
	stores     []domain.Store
	promotions []domain.Promotion
	coupons    map[string]string
	contacts   map[string]domain.Contact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]domain.Product),
		carts:    make(map[string][]domain.CartItem),
		orders:   make(map[string]domain.Order),
		coupons:  make(map[string]string),
		contacts: make(map[string]domain.Contact),
	}
}

// NewSeededMemoryStore returns a MemoryStore pre-loaded with the demo
// catalog, stores, promotions, coupons, and orders.
func NewSeededMemoryStore() *MemoryStore {
	m := NewMemoryStore()
	for _, p := range seedProducts {
		m.products[p.ID] = p
	}
	m.stores = append(m.stores, seedStores...)
	m.promotions = append(m.promotions, seedPromotions()...)
	for code, discount := range seedCoupons {
		m.coupons[strings.ToUpper(code)] = discount
	}
	for _, o := range seedOrders() {
		m.orders[o.Number] = o
		m.orderSeq = append(m.orderSeq, o.Number)
	}
	return m
}

func (m *MemoryStore) SearchProducts(_ context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Product
	for _, p := range m.products {
		if f.Query != "" {
			q := strings.ToLower(f.Query)
			if !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Category), q) {
				continue
			}
		}
		if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
			continue
		}
		if f.Color != "" && !strings.EqualFold(p.Color, f.Color) {
			continue
		}
		if f.MaxPrice > 0 && p.Price > f.MaxPrice {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].Name < out[j].Name
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemoryStore) GetProductByName(_ context.Context, name string) (*domain.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) TopRatedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = domain.MaxListItems
	}
	all, err := m.SearchProducts(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range all {
		if p.Stock > 0 {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.products {
		if strings.EqualFold(existing.Name, p.Name) {
			return ErrConflict
		}
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return ErrNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) GetCart(_ context.Context, sessionID string) ([]domain.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.carts[sessionID]
	out := make([]domain.CartItem, len(items))
	copy(out, items)
	return out, nil
}

func (m *MemoryStore) AddToCart(_ context.Context, sessionID string, item domain.CartItem) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[sessionID]
	for i := range items {
		if items[i].ProductID == item.ProductID {
			items[i].Quantity += item.Quantity
			return nil
		}
	}
	m.carts[sessionID] = append(items, item)
	return nil
}

func (m *MemoryStore) RemoveFromCart(_ context.Context, sessionID, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.carts[sessionID]
	for i := range items {
		if items[i].ProductID != productID {
			continue
		}
		if qty <= 0 || qty >= items[i].Quantity {
			m.carts[sessionID] = append(items[:i], items[i+1:]...)
		} else {
			items[i].Quantity -= qty
		}
		return nil
	}
	return ErrNotFound
}

func (m *MemoryStore) ClearCart(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}

func (m *MemoryStore) GetOrder(_ context.Context, number string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[number]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *MemoryStore) OrdersBySession(_ context.Context, sessionID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Order
	for _, number := range m.orderSeq {
		o := m.orders[number]
		if o.SessionID == sessionID {
			out = append(out, o)
		}
	}
	sortOrdersNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) ListOrders(_ context.Context) ([]domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0, len(m.orderSeq))
	for _, number := range m.orderSeq {
		out = append(out, m.orders[number])
	}
	sortOrdersNewestFirst(out)
	return out, nil
}

func sortOrdersNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].PlacedAt.After(orders[j].PlacedAt)
	})
}

func (m *MemoryStore) PlaceOrder(_ context.Context, o domain.Order) error {
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[o.Number]; ok {
		return ErrConflict
	}
	m.orders[o.Number] = o
	m.orderSeq = append(m.orderSeq, o.Number)
	return nil
}

func (m *MemoryStore) SetOrderStatus(_ context.Context, number string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[number]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	m.orders[number] = o
	return nil
}

func (m *MemoryStore) StoresByCity(_ context.Context, city string, limit int) ([]domain.Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Store
	for _, st := range m.stores {
		if city != "" && !strings.EqualFold(st.City, city) {
			continue
		}
		out = append(out, st)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ActivePromotions(_ context.Context) ([]domain.Promotion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	var out []domain.Promotion
	for _, p := range m.promotions {
		if p.ValidUntil.After(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemoryStore) ValidateCoupon(_ context.Context, code string) (*domain.CouponResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if discount, ok := m.coupons[strings.ToUpper(code)]; ok {
		return &domain.CouponResult{Code: code, Valid: true, Discount: discount}, nil
	}
	codes := make([]string, 0, len(m.coupons))
	for c := range m.coupons {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	if len(codes) > 2 {
		codes = codes[:2]
	}
	return &domain.CouponResult{Code: code, Valid: false, Alternatives: codes}, nil
}

func (m *MemoryStore) GetContact(_ context.Context, sessionID string) (*domain.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contacts[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) SetContact(_ context.Context, c domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.contacts[c.SessionID]
	if c.Phone == "" {
		c.Phone = existing.Phone
	}
	if c.Email == "" {
		c.Email = existing.Email
	}
	m.contacts[c.SessionID] = c
	return nil
}

func (m *MemoryStore) SalesByDate(_ context.Context, days int) ([]domain.SalesByDate, error) {
	if days <= 0 {
		days = 7
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	byDay := make(map[string]*domain.SalesByDate)
	for _, o := range m.orders {
		day := o.PlacedAt.Format("2006-01-02")
		row, ok := byDay[day]
		if !ok {
			row = &domain.SalesByDate{Date: day}
			byDay[day] = row
		}
		row.TotalSales += o.Total
		row.OrderCount++
	}
	var out []domain.SalesByDate
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if len(out) > days {
		out = out[len(out)-days:]
	}
	return out, nil
}

func (m *MemoryStore) TotalRevenue(_ context.Context) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total float64
	for _, o := range m.orders {
		if o.Status != domain.StatusCancelled {
			total += o.Total
		}
	}
	return total, nil
}

func (m *MemoryStore) LoyalCustomers(_ context.Context, limit int) ([]domain.LoyalCustomer, error) {
	if limit <= 0 {
		limit = 5
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, o := range m.orders {
		if o.SessionID != "" {
			counts[o.SessionID]++
		}
	}
	var out []domain.LoyalCustomer
	for session, n := range counts {
		out = append(out, domain.LoyalCustomer{SessionID: session, OrderCount: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrderCount != out[j].OrderCount {
			return out[i].OrderCount > out[j].OrderCount
		}
		return out[i].SessionID < out[j].SessionID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
