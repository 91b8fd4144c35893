package notify

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"shopbot/internal/domain"
	"shopbot/internal/metrics"
	"shopbot/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeNotifier struct {
	name  string
	reach func(domain.Contact) bool
	err   error
	calls int
}

func (f *fakeNotifier) Name() string                   { return f.name }
func (f *fakeNotifier) CanReach(c domain.Contact) bool { return f.reach(c) }

func (f *fakeNotifier) Notify(domain.Contact, domain.OrderEvent) error {
	f.calls++
	return f.err
}

func emailLike() *fakeNotifier {
	return &fakeNotifier{name: "email", reach: func(c domain.Contact) bool { return c.Email != "" }}
}

func smsLike() *fakeNotifier {
	return &fakeNotifier{name: "sms", reach: func(c domain.Contact) bool { return c.Phone != "" }}
}

func newTestWorker(t *testing.T, contact domain.Contact, notifiers ...domain.Notifier) (*Worker, *metrics.Metrics) {
	t.Helper()
	catalog := store.NewMemoryStore()
	if contact.SessionID != "" {
		if err := catalog.SetContact(context.Background(), contact); err != nil {
			t.Fatal(err)
		}
	}
	m := metrics.New("test")
	return NewWorker(nil, catalog, notifiers, m, testLogger()), m
}

func orderEvent(sessionID string) domain.OrderEvent {
	return domain.OrderEvent{
		Type:      domain.OrderPlaced,
		SessionID: sessionID,
		Order:     domain.Order{Number: "ORD-7001", SessionID: sessionID},
	}
}

func TestWorker_SkipsChannelsTheContactCannotReceive(t *testing.T) {
	email, sms := emailLike(), smsLike()
	w, _ := newTestWorker(t,
		domain.Contact{SessionID: "sess-1", Phone: "+15550100"},
		email, sms)

	w.deliver(context.Background(), orderEvent("sess-1"))

	if email.calls != 0 {
		t.Errorf("phone-only contact must not be emailed, got %d calls", email.calls)
	}
	if sms.calls != 1 {
		t.Errorf("expected one sms delivery, got %d", sms.calls)
	}
}

func TestWorker_DeliversAllReachableChannels(t *testing.T) {
	email, sms := emailLike(), smsLike()
	w, _ := newTestWorker(t,
		domain.Contact{SessionID: "sess-1", Phone: "+15550100", Email: "a@example.com"},
		email, sms)

	w.deliver(context.Background(), orderEvent("sess-1"))

	if email.calls != 1 || sms.calls != 1 {
		t.Errorf("expected both channels delivered, got email=%d sms=%d", email.calls, sms.calls)
	}
}

func TestWorker_RealFailureStillDelivered(t *testing.T) {
	email := emailLike()
	email.err = errors.New("smtp down")
	sms := smsLike()
	w, _ := newTestWorker(t,
		domain.Contact{SessionID: "sess-1", Phone: "+15550100", Email: "a@example.com"},
		email, sms)

	w.deliver(context.Background(), orderEvent("sess-1"))

	// A failing channel is attempted and does not block the others.
	if email.calls != 1 || sms.calls != 1 {
		t.Errorf("expected both channels attempted, got email=%d sms=%d", email.calls, sms.calls)
	}
}

func TestWorker_NoContactNoDelivery(t *testing.T) {
	email := emailLike()
	w, _ := newTestWorker(t, domain.Contact{}, email)

	w.deliver(context.Background(), orderEvent("sess-unknown"))

	if email.calls != 0 {
		t.Errorf("expected no delivery without a stored contact, got %d", email.calls)
	}
}
