package handler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"shopbot/internal/convo"
	"shopbot/internal/domain"
	"shopbot/internal/metrics"
	"shopbot/internal/replies"
	"shopbot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testBus records published events instead of delivering them.
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

func (b *testBus) published() []domain.OrderEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.OrderEvent(nil), b.events...)
}

// fakeCompleter is the fallback double.
type fakeCompleter struct {
	text   string
	err    error
	prompt string
}

func (f *fakeCompleter) Name() string                        { return "fake" }
func (f *fakeCompleter) Healthy(ctx context.Context) error   { return f.err }
func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type testEnv struct {
	dispatcher *Dispatcher
	catalog    *store.MemoryStore
	contexts   *convo.MemoryContextStore
	bus        *testBus
	completer  *fakeCompleter
	replies    *replies.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()
	cat, err := replies.Load("", logger)
	if err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		catalog:   store.NewSeededMemoryStore(),
		contexts:  convo.NewMemoryContextStore(time.Minute),
		bus:       &testBus{},
		completer: &fakeCompleter{text: "fallback answer"},
		replies:   cat,
	}
	env.dispatcher = New(Deps{
		Catalog:  env.catalog,
		Contexts: env.contexts,
		Bus:      env.bus,
		Fallback: env.completer,
		Replies:  cat,
		Metrics:  metrics.New("test"),
		Logger:   logger,
	})
	return env
}

func (e *testEnv) dispatch(intent, session string, params domain.Params) *domain.Reply {
	return e.dispatcher.Dispatch(context.Background(), domain.IntentEvent{
		Intent:     intent,
		Parameters: params,
		SessionID:  session,
		QueryText:  intent,
		Timestamp:  time.Now(),
	})
}

func replyText(r *domain.Reply) string {
	return strings.Join(r.Fragments(), " ")
}

func TestDispatch_Greeting(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("greeting", "sess-1", nil)
	if !strings.Contains(replyText(reply), "help you find products") {
		t.Errorf("unexpected greeting: %s", replyText(reply))
	}
	if len(reply.Suggestions()) == 0 {
		t.Error("greeting should carry quick replies")
	}
}

func TestDispatch_UnknownIntentUsesFallbackCompleter(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatcher.Dispatch(context.Background(), domain.IntentEvent{
		Intent:    "smalltalk.weather",
		SessionID: "sess-1",
		QueryText: "will it rain tomorrow?",
	})
	if replyText(reply) != "fallback answer" {
		t.Errorf("expected completer answer, got %s", replyText(reply))
	}
	if env.completer.prompt != "will it rain tomorrow?" {
		t.Errorf("completer got wrong prompt: %s", env.completer.prompt)
	}
}

func TestDispatch_FallbackCompleterDownStillReplies(t *testing.T) {
	env := newTestEnv(t)
	env.completer.err = errors.New("all providers down")

	reply := env.dispatch("smalltalk.weather", "sess-1", nil)
	if reply.Empty() {
		t.Fatal("reply must not be empty when the completer is down")
	}
	if !strings.Contains(replyText(reply), "didn't quite get that") {
		t.Errorf("expected the fallback apology, got %s", replyText(reply))
	}
}

// brokenCatalog fails cart reads to exercise the dispatcher's error path.
type brokenCatalog struct {
	*store.MemoryStore
}

func (b *brokenCatalog) GetCart(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	return nil, errors.New("disk on fire")
}

func TestDispatch_HandlerErrorBecomesApology(t *testing.T) {
	env := newTestEnv(t)
	d := New(Deps{
		Catalog:  &brokenCatalog{env.catalog},
		Contexts: env.contexts,
		Bus:      env.bus,
		Fallback: env.completer,
		Replies:  env.replies,
		Metrics:  metrics.New("test"),
		Logger:   testLogger(),
	})

	reply := d.Dispatch(context.Background(), domain.IntentEvent{Intent: "cart.view", SessionID: "s"})
	if !strings.Contains(replyText(reply), "something went wrong") {
		t.Errorf("expected the apology, got %s", replyText(reply))
	}
	if len(reply.Suggestions()) == 0 {
		t.Error("apology should still carry quick replies")
	}
}

func TestDispatch_ProductSearch(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("product.search", "sess-1", domain.Params{"product": "jacket"})
	blocks := reply.Blocks()
	if len(blocks) == 0 || blocks[0].Type != domain.BlockProductList {
		t.Fatalf("expected a product carousel, got %+v", blocks)
	}
	if len(blocks[0].Products) != 2 {
		t.Errorf("expected 2 jackets, got %d", len(blocks[0].Products))
	}
}

func TestDispatch_ProductSearchTruncatesWithViewMore(t *testing.T) {
	env := newTestEnv(t)

	// No filters matches the whole 10-product catalog.
	reply := env.dispatch("product.search", "sess-1", nil)
	blocks := reply.Blocks()
	if len(blocks) < 2 {
		t.Fatalf("expected carousel plus view-more block, got %d blocks", len(blocks))
	}
	if got := len(blocks[0].Products); got != domain.MaxListItems {
		t.Errorf("carousel should be capped at %d, got %d", domain.MaxListItems, got)
	}
	if blocks[1].Type != domain.BlockButtonList {
		t.Errorf("expected a view-more button block, got %s", blocks[1].Type)
	}
}

func TestDispatch_ProductSearchNoResultsSuggestsTopRated(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("product.search", "sess-1", domain.Params{"product": "submarine"})
	if !strings.Contains(replyText(reply), "couldn't find") {
		t.Errorf("expected not-found copy, got %s", replyText(reply))
	}
	blocks := reply.Blocks()
	if len(blocks) == 0 || blocks[0].Type != domain.BlockProductList || len(blocks[0].Products) == 0 {
		t.Error("no-result search should still show popular picks")
	}
}

func TestDispatch_CartAddViewRemove(t *testing.T) {
	env := newTestEnv(t)
	const sess = "cart-sess"

	reply := env.dispatch("cart.add", sess, domain.Params{"product": "Denim Jacket", "quantity": float64(2)})
	text := replyText(reply)
	if !strings.Contains(text, "Added 2x Denim Jacket") {
		t.Errorf("unexpected add reply: %s", text)
	}
	if !strings.Contains(text, "Total: $159.00") {
		t.Errorf("expected fresh total in reply: %s", text)
	}

	reply = env.dispatch("cart.view", sess, nil)
	if !strings.Contains(replyText(reply), "2x Denim Jacket") {
		t.Errorf("unexpected cart view: %s", replyText(reply))
	}

	reply = env.dispatch("cart.remove", sess, domain.Params{"product": "Denim Jacket"})
	if !strings.Contains(replyText(reply), "cart is empty") {
		t.Errorf("expected empty cart after removal: %s", replyText(reply))
	}
}

func TestDispatch_CartAddUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("cart.add", "sess-1", domain.Params{"product": "invisibility cloak"})
	if !strings.Contains(replyText(reply), "couldn't find that item") {
		t.Errorf("unexpected reply: %s", replyText(reply))
	}

	items, _ := env.catalog.GetCart(context.Background(), "sess-1")
	if len(items) != 0 {
		t.Error("unknown product must not be added to the cart")
	}
}

func TestDispatch_CouponCheck(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("coupon.check", "sess-1", domain.Params{"coupon_code": "summer40"})
	if !strings.Contains(replyText(reply), "40% off selected items") {
		t.Errorf("expected the coupon discount, got %s", replyText(reply))
	}

	reply = env.dispatch("coupon.check", "sess-1", domain.Params{"coupon_code": "NOPE1"})
	text := replyText(reply)
	if !strings.Contains(text, "doesn't look valid") {
		t.Errorf("expected invalid-coupon copy, got %s", text)
	}
	if len(reply.Suggestions()) == 0 {
		t.Error("invalid coupon should suggest alternatives")
	}
}

func TestDispatch_StoreLocator(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("store.locator", "sess-1", domain.Params{"city": "Springfield"})
	if !strings.Contains(replyText(reply), "Downtown Flagship") {
		t.Errorf("expected a Springfield store, got %s", replyText(reply))
	}

	reply = env.dispatch("store.locator", "sess-1", domain.Params{"city": "Atlantis"})
	if !strings.Contains(replyText(reply), "couldn't find a store in Atlantis") {
		t.Errorf("unexpected no-store reply: %s", replyText(reply))
	}
}

func TestDispatch_ContactSaved(t *testing.T) {
	env := newTestEnv(t)

	env.dispatch("contact.phone", "sess-1", domain.Params{"phone_number": "+1 555 987"})
	env.dispatch("contact.email", "sess-1", domain.Params{"email": "me@example.com"})

	c, err := env.catalog.GetContact(context.Background(), "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if c.Phone != "+1 555 987" || c.Email != "me@example.com" {
		t.Errorf("contact not saved correctly: %+v", c)
	}
}

func TestDispatch_OrderPlaceFromCart(t *testing.T) {
	env := newTestEnv(t)
	const sess = "buy-sess"

	env.dispatch("cart.add", sess, domain.Params{"product": "Denim Jacket"})
	reply := env.dispatch("order.place", sess, nil)

	if !strings.Contains(replyText(reply), "is placed") {
		t.Fatalf("unexpected place reply: %s", replyText(reply))
	}

	items, _ := env.catalog.GetCart(context.Background(), sess)
	if len(items) != 0 {
		t.Error("cart should be cleared after placing the order")
	}

	events := env.bus.published()
	if len(events) != 1 || events[0].Type != domain.OrderPlaced {
		t.Errorf("expected one OrderPlaced event, got %v", events)
	}

	orders, _ := env.catalog.OrdersBySession(context.Background(), sess, 5)
	if len(orders) != 1 || orders[0].Status != domain.StatusPending {
		t.Errorf("expected one pending order, got %v", orders)
	}
}

func TestDispatch_OrderPlaceEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	reply := env.dispatch("order.place", "empty-sess", nil)
	if !strings.Contains(replyText(reply), "cart is empty") {
		t.Errorf("unexpected reply: %s", replyText(reply))
	}
	if len(env.bus.published()) != 0 {
		t.Error("no event should be published for an empty cart")
	}
}
