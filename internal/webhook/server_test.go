package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// echoDispatcher returns a canned reply and records the event it saw.
type echoDispatcher struct {
	lastEvent domain.IntentEvent
	reply     func() *domain.Reply
}

func (e *echoDispatcher) Dispatch(_ context.Context, evt domain.IntentEvent) *domain.Reply {
	e.lastEvent = evt
	if e.reply != nil {
		return e.reply()
	}
	r := &domain.Reply{}
	r.Say("hello there")
	r.Suggest("Browse products")
	return r
}

func fulfillmentBody(intent, session, query string) []byte {
	body, _ := json.Marshal(map[string]any{
		"responseId": "r-1",
		"session":    session,
		"queryResult": map[string]any{
			"queryText":  query,
			"parameters": map[string]any{"product": "jacket"},
			"intent":     map[string]any{"name": "projects/x/agent/intents/i-1", "displayName": intent},
		},
	})
	return body
}

func newTestServer(secret string) (*Server, *echoDispatcher) {
	d := &echoDispatcher{}
	s := NewServer(Config{
		Path:    "/webhook",
		Secret:  secret,
		Logger:  testLogger(),
		Metrics: metrics.New("test"),
	}, d)
	return s, d
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyHMAC(t *testing.T) {
	body := []byte(`{"a":1}`)
	if !verifyHMAC(body, "secret", sign(body, "secret")) {
		t.Error("valid signature should verify")
	}
	if verifyHMAC(body, "secret", "sha256=deadbeef") {
		t.Error("invalid signature should not verify")
	}
	if verifyHMAC(body, "secret", "") {
		t.Error("empty signature should not verify")
	}
}

func TestFulfillment_DispatchesEvent(t *testing.T) {
	s, d := newTestServer("")

	body := fulfillmentBody("product.search", "projects/x/agent/sessions/sess-42", "show me jackets")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if d.lastEvent.Intent != "product.search" {
		t.Errorf("unexpected intent: %s", d.lastEvent.Intent)
	}
	if d.lastEvent.SessionID != "sess-42" {
		t.Errorf("session path should be reduced to the ID, got %s", d.lastEvent.SessionID)
	}
	if d.lastEvent.QueryText != "show me jackets" {
		t.Errorf("unexpected query text: %s", d.lastEvent.QueryText)
	}
	if d.lastEvent.Parameters.String("product") != "jacket" {
		t.Errorf("parameters not passed through: %v", d.lastEvent.Parameters)
	}

	var resp fulfillmentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.FulfillmentText != "hello there" {
		t.Errorf("unexpected fulfillment text: %s", resp.FulfillmentText)
	}
}

func TestFulfillment_RejectsMissingSignature(t *testing.T) {
	s, _ := newTestServer("top-secret")

	body := fulfillmentBody("greeting", "s", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestFulfillment_RejectsBadSignature(t *testing.T) {
	s, _ := newTestServer("top-secret")

	body := fulfillmentBody("greeting", "s", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature-256", "sha256=0000")
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestFulfillment_AcceptsValidSignature(t *testing.T) {
	s, _ := newTestServer("top-secret")

	body := fulfillmentBody("greeting", "s", "hi")
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("X-Signature-256", sign(body, "top-secret"))
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestFulfillment_RejectsInvalidJSON(t *testing.T) {
	s, _ := newTestServer("")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFulfillment_RejectsGet(t *testing.T) {
	s, _ := newTestServer("")

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	s.Handler()(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestEncodeReply_RichContentAndChips(t *testing.T) {
	r := &domain.Reply{}
	r.Say("Here's what I found for you:")
	r.AddBlock(domain.Block{Type: domain.BlockProductList, Products: []domain.ProductCard{
		{Title: "Denim Jacket", Subtitle: "$79.50", LinkURL: "https://shop.example.com/p/p-2001"},
		{Title: "Rain Jacket", Subtitle: "$99.00"},
	}})
	r.Suggest("Add to cart", "View cart")

	resp := encodeReply(r)
	if resp.FulfillmentText != "Here's what I found for you:" {
		t.Errorf("unexpected text: %s", resp.FulfillmentText)
	}

	// Last message carries the rich payload.
	payload := resp.FulfillmentMessages[len(resp.FulfillmentMessages)-1].Payload
	if payload == nil {
		t.Fatal("expected a rich payload message")
	}
	columns, ok := payload["richContent"].([]any)
	if !ok || len(columns) != 1 {
		t.Fatalf("expected one richContent column, got %v", payload["richContent"])
	}
	items := columns[0].([]map[string]any)

	// Two info cards separated by a divider, then the chips row.
	if len(items) != 4 {
		t.Fatalf("expected 4 items (info, divider, info, chips), got %d", len(items))
	}
	if items[0]["type"] != "info" || items[1]["type"] != "divider" || items[3]["type"] != "chips" {
		t.Errorf("unexpected item layout: %v", items)
	}
	if items[0]["actionLink"] != "https://shop.example.com/p/p-2001" {
		t.Errorf("missing action link: %v", items[0])
	}
}

func TestEncodeReply_AccordionAndButtons(t *testing.T) {
	r := &domain.Reply{}
	r.Say("Here are our current promotions:")
	r.AddBlock(domain.Block{Type: domain.BlockAccordion, Sections: []domain.AccordionSection{
		{Title: "Summer Sale", Text: "Up to 40% off."},
	}})
	r.AddBlock(domain.Block{Type: domain.BlockButtonList, Buttons: []domain.Button{
		{Text: "View more", URL: "https://shop.example.com/sale"},
	}})

	resp := encodeReply(r)
	payload := resp.FulfillmentMessages[len(resp.FulfillmentMessages)-1].Payload
	items := payload["richContent"].([]any)[0].([]map[string]any)
	if items[0]["type"] != "accordion" || items[1]["type"] != "button" {
		t.Errorf("unexpected layout: %v", items)
	}
}

func TestHealth_PlainTextAvailability(t *testing.T) {
	s, _ := newTestServer("")

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "shopbot is up") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}
