package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
	"shopbot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testBus struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (b *testBus) Publish(evt domain.OrderEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, evt)
}

func (b *testBus) Subscribe() <-chan domain.OrderEvent { return nil }
func (b *testBus) Close()                              {}

func newTestAPI(t *testing.T) (http.Handler, *store.MemoryStore, *testBus) {
	t.Helper()
	catalog := store.NewSeededMemoryStore()
	bus := &testBus{}
	s := NewServer(Config{
		Logger:  testLogger(),
		Metrics: metrics.New("test"),
	}, catalog, bus)
	return s.Router(), catalog, bus
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdmin_ListOrders(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/orders", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var orders []domain.Order
	if err := json.Unmarshal(rec.Body.Bytes(), &orders); err != nil {
		t.Fatal(err)
	}
	if len(orders) != 3 {
		t.Errorf("expected 3 seeded orders, got %d", len(orders))
	}
}

func TestAdmin_UpdateOrderStatus(t *testing.T) {
	h, catalog, bus := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPut, "/api/orders/ORD-1001/status", map[string]string{"status": "shipped"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	o, err := catalog.GetOrder(context.Background(), "ORD-1001")
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != domain.StatusShipped {
		t.Errorf("expected shipped, got %s", o.Status)
	}

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 || bus.events[0].Type != domain.OrderStatusChanged {
		t.Errorf("expected one status-changed event, got %v", bus.events)
	}
}

func TestAdmin_UpdateOrderStatusValidation(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPut, "/api/orders/ORD-1001/status", map[string]string{"status": "teleported"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status should 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/orders/ORD-0000/status", map[string]string{"status": "shipped"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order should 404, got %d", rec.Code)
	}
}

func TestAdmin_CancelViaStatusPublishesCancelEvent(t *testing.T) {
	h, _, bus := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPut, "/api/orders/ORD-1001/status", map[string]string{"status": "cancelled"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if len(bus.events) != 1 || bus.events[0].Type != domain.OrderCancelled {
		t.Errorf("expected an OrderCancelled event, got %v", bus.events)
	}
}

func TestAdmin_ExportOrdersCSV(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/orders/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %s", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("expected attachment disposition, got %s", cd)
	}

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 4 { // header + 3 orders
		t.Fatalf("expected 4 CSV lines, got %d: %q", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "number,session_id,status,total") {
		t.Errorf("unexpected CSV header: %s", lines[0])
	}
}

func TestAdmin_ProductCRUD(t *testing.T) {
	h, catalog, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/api/menu", domain.Product{Name: "Wool Beanie", Category: "accessories", Price: 14.90, Stock: 40})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Product
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.ID == "" {
		t.Fatal("expected a generated product ID")
	}

	rec = doJSON(t, h, http.MethodPut, "/api/menu/"+created.ID, domain.Product{Name: "Wool Beanie", Category: "accessories", Price: 12.90, Stock: 40})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on update, got %d: %s", rec.Code, rec.Body.String())
	}
	p, _ := catalog.GetProduct(context.Background(), created.ID)
	if p.Price != 12.90 {
		t.Errorf("update not applied: %+v", p)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/menu/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on delete, got %d", rec.Code)
	}
	if _, err := catalog.GetProduct(context.Background(), created.ID); err == nil {
		t.Error("product should be gone after delete")
	}
}

func TestAdmin_ProductValidation(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodPost, "/api/menu", domain.Product{Name: "", Price: 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name should 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/menu", domain.Product{Name: "Denim Jacket", Price: 10})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate name should 409, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/menu/p-0000", domain.Product{Name: "Ghost", Price: 1})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown product should 404, got %d", rec.Code)
	}
}

func TestAdmin_Analytics(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/api/analytics/total-revenue", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var revenue map[string]float64
	json.Unmarshal(rec.Body.Bytes(), &revenue)
	if revenue["total_revenue"] <= 0 {
		t.Errorf("expected positive revenue, got %v", revenue)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/analytics/sales-by-date?days=30", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/analytics/sales-by-date?days=9999", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range days should 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/analytics/loyal-customers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var loyal []domain.LoyalCustomer
	json.Unmarshal(rec.Body.Bytes(), &loyal)
	if len(loyal) == 0 || loyal[0].SessionID != "demo-session" {
		t.Errorf("expected demo-session as top customer, got %v", loyal)
	}
}

func TestAdmin_MetricsAndHealth(t *testing.T) {
	h, _, _ := newTestAPI(t)

	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz should 200, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("metrics should 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Go runtime metrics in scrape output")
	}
}

func TestAdmin_CreateProductDuplicateOrderConflict(t *testing.T) {
	// Regression guard: ErrConflict from the catalog maps to 409, not 500.
	h, catalog, _ := newTestAPI(t)

	if err := catalog.CreateProduct(context.Background(), domain.Product{ID: "p-x", Name: "One Off", Price: 5}); err != nil {
		t.Fatal(err)
	}
	rec := doJSON(t, h, http.MethodPost, "/api/menu", domain.Product{Name: "one off", Price: 5})
	if rec.Code != http.StatusConflict {
		t.Errorf("case-insensitive duplicate should 409, got %d", rec.Code)
	}
}
