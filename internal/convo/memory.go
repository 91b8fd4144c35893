// Package convo holds short-lived conversational state per session. It is
// the explicit replacement for the NLU platform's output-context feature:
// the dispatcher decays slots once per turn and handlers read and write
// them through the domain.ContextStore interface.
package convo

import (
	"context"
	"sync"
	"time"

	"shopbot/internal/domain"
)

type memoryEntry struct {
	slot      domain.ContextSlot
	expiresAt time.Time
}

// MemoryContextStore is the in-process context store. Suitable for a
// single instance; use RedisContextStore when running more than one.
type MemoryContextStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]memoryEntry
	ttl      time.Duration
}

func NewMemoryContextStore(ttl time.Duration) *MemoryContextStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryContextStore{
		sessions: make(map[string]map[string]memoryEntry),
		ttl:      ttl,
	}
}

func (m *MemoryContextStore) Set(_ context.Context, sessionID string, slot domain.ContextSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots, ok := m.sessions[sessionID]
	if !ok {
		slots = make(map[string]memoryEntry)
		m.sessions[sessionID] = slots
	}
	slots[slot.Name] = memoryEntry{slot: slot, expiresAt: time.Now().Add(m.ttl)}
	return nil
}

func (m *MemoryContextStore) Get(_ context.Context, sessionID, name string) (*domain.ContextSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[sessionID][name]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	slot := entry.slot
	return &slot, nil
}

func (m *MemoryContextStore) Delete(_ context.Context, sessionID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions[sessionID], name)
	return nil
}

func (m *MemoryContextStore) Decay(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	slots := m.sessions[sessionID]
	now := time.Now()
	for name, entry := range slots {
		// A slot at lifespan 0 is still readable this turn; it drops on
		// the next decay. Lifespan N survives N follow-up turns.
		entry.slot.Lifespan--
		if entry.slot.Lifespan < 0 || now.After(entry.expiresAt) {
			delete(slots, name)
			continue
		}
		slots[name] = entry
	}
	if len(slots) == 0 {
		delete(m.sessions, sessionID)
	}
	return nil
}
