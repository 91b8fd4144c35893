package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shopbot/internal/domain"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements domain.Catalog using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE COLLATE NOCASE,
		category   TEXT NOT NULL,
		price      REAL NOT NULL,
		color      TEXT,
		size       TEXT,
		image_url  TEXT,
		rating     REAL DEFAULT 0,
		stock      INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_products_category ON products(category);

	CREATE TABLE IF NOT EXISTS cart_items (
		session_id TEXT NOT NULL,
		product_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		price      REAL NOT NULL,
		quantity   INTEGER NOT NULL,
		color      TEXT,
		size       TEXT,
		image_url  TEXT,
		PRIMARY KEY (session_id, product_id)
	);

	CREATE TABLE IF NOT EXISTS orders (
		number     TEXT PRIMARY KEY,
		session_id TEXT,
		status     TEXT NOT NULL,
		total      REAL NOT NULL,
		placed_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
		eta        TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_id, placed_at);

	CREATE TABLE IF NOT EXISTS order_items (
		order_number TEXT NOT NULL REFERENCES orders(number) ON DELETE CASCADE,
		product_id   TEXT NOT NULL,
		name         TEXT NOT NULL,
		price        REAL NOT NULL,
		quantity     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_number);

	CREATE TABLE IF NOT EXISTS stores (
		id      TEXT PRIMARY KEY,
		name    TEXT NOT NULL,
		address TEXT NOT NULL,
		city    TEXT NOT NULL COLLATE NOCASE,
		hours   TEXT,
		phone   TEXT,
		map_url TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_stores_city ON stores(city);

	CREATE TABLE IF NOT EXISTS promotions (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		description TEXT,
		valid_until DATETIME
	);

	CREATE TABLE IF NOT EXISTS coupons (
		code     TEXT PRIMARY KEY COLLATE NOCASE,
		discount TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS contacts (
		session_id TEXT PRIMARY KEY,
		phone      TEXT,
		email      TEXT
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- Products ---

func (s *SQLiteStore) SearchProducts(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	var (
		where []string
		args  []any
	)
	if f.Query != "" {
		where = append(where, "(name LIKE ? OR category LIKE ?)")
		like := "%" + f.Query + "%"
		args = append(args, like, like)
	}
	if f.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, f.Category)
	}
	if f.Color != "" {
		where = append(where, "color = ? COLLATE NOCASE")
		args = append(args, f.Color)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.MaxPrice)
	}

	q := "SELECT id, name, category, price, color, size, image_url, rating, stock FROM products"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rating DESC, name"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRow(ctx, "id = ?", id)
}

func (s *SQLiteStore) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	return s.productRow(ctx, "name = ? COLLATE NOCASE", name)
}

func (s *SQLiteStore) productRow(ctx context.Context, cond string, arg any) (*domain.Product, error) {
	var p domain.Product
	var color, size, imageURL sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, category, price, color, size, image_url, rating, stock FROM products WHERE "+cond, arg,
	).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &color, &size, &imageURL, &p.Rating, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Color, p.Size, p.ImageURL = color.String, size.String, imageURL.String
	return &p, nil
}

func (s *SQLiteStore) TopRatedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = domain.MaxListItems
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, price, color, size, image_url, rating, stock
		 FROM products WHERE stock > 0 ORDER BY rating DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProducts(rows)
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p domain.Product) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, name, category, price, color, size, image_url, rating, stock)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.Price, p.Color, p.Size, p.ImageURL, p.Rating, p.Stock,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return fmt.Errorf("product %q: %w", p.Name, ErrConflict)
	}
	return err
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, p domain.Product) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE products SET name=?, category=?, price=?, color=?, size=?, image_url=?, rating=?, stock=? WHERE id=?`,
		p.Name, p.Category, p.Price, p.Color, p.Size, p.ImageURL, p.Rating, p.Stock, p.ID,
	)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func scanProducts(rows *sql.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		var color, size, imageURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &color, &size, &imageURL, &p.Rating, &p.Stock); err != nil {
			return nil, err
		}
		p.Color, p.Size, p.ImageURL = color.String, size.String, imageURL.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- Carts ---

func (s *SQLiteStore) GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, name, price, quantity, color, size, image_url
		 FROM cart_items WHERE session_id = ? ORDER BY rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var it domain.CartItem
		var color, size, imageURL sql.NullString
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity, &color, &size, &imageURL); err != nil {
			return nil, err
		}
		it.Color, it.Size, it.ImageURL = color.String, size.String, imageURL.String
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) AddToCart(ctx context.Context, sessionID string, item domain.CartItem) error {
	if item.Quantity <= 0 {
		item.Quantity = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (session_id, product_id, name, price, quantity, color, size, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		sessionID, item.ProductID, item.Name, item.Price, item.Quantity, item.Color, item.Size, item.ImageURL,
	)
	return err
}

func (s *SQLiteStore) RemoveFromCart(ctx context.Context, sessionID, productID string, qty int) error {
	var current int
	err := s.db.QueryRowContext(ctx,
		"SELECT quantity FROM cart_items WHERE session_id = ? AND product_id = ?",
		sessionID, productID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if qty <= 0 || qty >= current {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM cart_items WHERE session_id = ? AND product_id = ?", sessionID, productID)
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE cart_items SET quantity = quantity - ? WHERE session_id = ? AND product_id = ?",
		qty, sessionID, productID)
	return err
}

func (s *SQLiteStore) ClearCart(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE session_id = ?", sessionID)
	return err
}

// --- Orders ---

// sqliteTimeLayout keeps placed_at in a form SQLite's date functions can
// group and compare on. Driver-default time.Time binding writes RFC3339
// with nanoseconds, which date() silently treats as NULL.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func parsePlacedAt(s string) time.Time {
	t, err := time.Parse(sqliteTimeLayout, s)
	if err != nil {
		// Rows written before the layout was pinned down.
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

func (s *SQLiteStore) GetOrder(ctx context.Context, number string) (*domain.Order, error) {
	var o domain.Order
	var sessionID, eta sql.NullString
	var placedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT number, session_id, status, total, placed_at, eta FROM orders WHERE number = ?", number,
	).Scan(&o.Number, &sessionID, &o.Status, &o.Total, &placedAt, &eta)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.SessionID, o.ETA = sessionID.String, eta.String
	o.PlacedAt = parsePlacedAt(placedAt)

	items, err := s.orderItems(ctx, o.Number)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *SQLiteStore) orderItems(ctx context.Context, number string) ([]domain.OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT product_id, name, price, quantity FROM order_items WHERE order_number = ? ORDER BY rowid", number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Quantity); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) OrdersBySession(ctx context.Context, sessionID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT number, status, total, placed_at, eta FROM orders
		 WHERE session_id = ? ORDER BY placed_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var eta sql.NullString
		var placedAt string
		if err := rows.Scan(&o.Number, &o.Status, &o.Total, &placedAt, &eta); err != nil {
			return nil, err
		}
		o.SessionID, o.ETA = sessionID, eta.String
		o.PlacedAt = parsePlacedAt(placedAt)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].Number)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *SQLiteStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT number, session_id, status, total, placed_at, eta FROM orders ORDER BY placed_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var o domain.Order
		var sessionID, eta sql.NullString
		var placedAt string
		if err := rows.Scan(&o.Number, &sessionID, &o.Status, &o.Total, &placedAt, &eta); err != nil {
			return nil, err
		}
		o.SessionID, o.ETA = sessionID.String, eta.String
		o.PlacedAt = parsePlacedAt(placedAt)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].Number)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *SQLiteStore) PlaceOrder(ctx context.Context, o domain.Order) error {
	if o.PlacedAt.IsZero() {
		o.PlacedAt = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO orders (number, session_id, status, total, placed_at, eta) VALUES (?, ?, ?, ?, ?, ?)",
		o.Number, o.SessionID, o.Status, o.Total, o.PlacedAt.UTC().Format(sqliteTimeLayout), o.ETA)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return fmt.Errorf("order %s: %w", o.Number, ErrConflict)
		}
		return err
	}
	for _, it := range o.Items {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_number, product_id, name, price, quantity) VALUES (?, ?, ?, ?, ?)",
			o.Number, it.ProductID, it.Name, it.Price, it.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SetOrderStatus(ctx context.Context, number string, status domain.OrderStatus) error {
	res, err := s.db.ExecContext(ctx, "UPDATE orders SET status = ? WHERE number = ?", status, number)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// --- Stores, promotions, coupons ---

func (s *SQLiteStore) StoresByCity(ctx context.Context, city string, limit int) ([]domain.Store, error) {
	q := "SELECT id, name, address, city, hours, phone, map_url FROM stores"
	var args []any
	if city != "" {
		q += " WHERE city = ?"
		args = append(args, city)
	}
	q += " ORDER BY name"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Store
	for rows.Next() {
		var st domain.Store
		var hours, phone, mapURL sql.NullString
		if err := rows.Scan(&st.ID, &st.Name, &st.Address, &st.City, &hours, &phone, &mapURL); err != nil {
			return nil, err
		}
		st.Hours, st.Phone, st.MapURL = hours.String, phone.String, mapURL.String
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ActivePromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, description, valid_until FROM promotions WHERE valid_until > ? ORDER BY valid_until",
		time.Now())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		var desc sql.NullString
		if err := rows.Scan(&p.ID, &p.Title, &desc, &p.ValidUntil); err != nil {
			return nil, err
		}
		p.Description = desc.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ValidateCoupon(ctx context.Context, code string) (*domain.CouponResult, error) {
	var discount string
	err := s.db.QueryRowContext(ctx, "SELECT discount FROM coupons WHERE code = ?", code).Scan(&discount)
	if err == nil {
		return &domain.CouponResult{Code: code, Valid: true, Discount: discount}, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	// Invalid code: suggest a couple of real ones instead.
	rows, err := s.db.QueryContext(ctx, "SELECT code FROM coupons ORDER BY code LIMIT 2")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := &domain.CouponResult{Code: code, Valid: false}
	for rows.Next() {
		var alt string
		if err := rows.Scan(&alt); err != nil {
			return nil, err
		}
		result.Alternatives = append(result.Alternatives, alt)
	}
	return result, rows.Err()
}

// --- Contacts ---

func (s *SQLiteStore) GetContact(ctx context.Context, sessionID string) (*domain.Contact, error) {
	var c domain.Contact
	var phone, email sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, phone, email FROM contacts WHERE session_id = ?", sessionID,
	).Scan(&c.SessionID, &phone, &email)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Phone, c.Email = phone.String, email.String
	return &c, nil
}

func (s *SQLiteStore) SetContact(ctx context.Context, c domain.Contact) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (session_id, phone, email) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE contacts.phone END,
		   email = CASE WHEN excluded.email != '' THEN excluded.email ELSE contacts.email END`,
		c.SessionID, c.Phone, c.Email)
	return err
}

// --- Analytics ---

func (s *SQLiteStore) SalesByDate(ctx context.Context, days int) ([]domain.SalesByDate, error) {
	if days <= 0 {
		days = 7
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT date(placed_at) AS day, SUM(total), COUNT(*)
		 FROM orders GROUP BY day ORDER BY day DESC LIMIT ?`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SalesByDate
	for rows.Next() {
		var r domain.SalesByDate
		if err := rows.Scan(&r.Date, &r.TotalSales, &r.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Oldest first for charting.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *SQLiteStore) TotalRevenue(ctx context.Context) (float64, error) {
	var revenue sql.NullFloat64
	err := s.db.QueryRowContext(ctx, "SELECT SUM(total) FROM orders WHERE status != ?", domain.StatusCancelled).Scan(&revenue)
	if err != nil {
		return 0, err
	}
	return revenue.Float64, nil
}

func (s *SQLiteStore) LoyalCustomers(ctx context.Context, limit int) ([]domain.LoyalCustomer, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, COUNT(*) AS n FROM orders
		 WHERE session_id IS NOT NULL AND session_id != ''
		 GROUP BY session_id ORDER BY n DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LoyalCustomer
	for rows.Next() {
		var c domain.LoyalCustomer
		if err := rows.Scan(&c.SessionID, &c.OrderCount); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
