package domain

import "context"

// ContextSlot is one named per-session conversational slot. Lifespan counts
// remaining turns: the dispatcher decays every slot of a session once per
// inbound event, and a slot whose lifespan reaches zero is dropped. The
// wall-clock TTL is a backstop for abandoned sessions.
type ContextSlot struct {
	Name     string         `json:"name"`
	Params   map[string]any `json:"params"`
	Lifespan int            `json:"lifespan"`
}

// ContextStore keeps short-lived conversational state per session. It
// replaces the NLU platform's opaque output-context mechanism with an
// explicit store the dispatcher passes into handlers.
type ContextStore interface {
	Set(ctx context.Context, sessionID string, slot ContextSlot) error
	Get(ctx context.Context, sessionID, name string) (*ContextSlot, error)
	Delete(ctx context.Context, sessionID, name string) error
	// Decay decrements the lifespan of every slot in the session, removing
	// the ones that expire. Called once per dispatched event.
	Decay(ctx context.Context, sessionID string) error
}
