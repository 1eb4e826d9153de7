// Package session keeps the per-conversation turn state: which sender,
// at which trust level, caused the turn now in flight. The mapping is
// process-wide, in-memory, and not durable.
package session

import (
	"sync"

	"wasp/internal/types"
)

// DefaultKey is the sentinel used when the host supplies no session key.
// Calls using the sentinel from genuinely different conversations are
// indistinguishable and must not be relied upon for isolation.
const DefaultKey = "__default__"

// Turn is the state bound to one session key. Platform rides along so
// tool-call decisions can be audited against the sender that caused the
// turn.
type Turn struct {
	Trust    types.TrustLevel
	Sender   string
	Platform types.Platform
}

// Manager owns the session-key to turn-state map. Operations on distinct
// keys never observe each other's state; operations on the same key are
// linearizable under the mutex.
type Manager struct {
	mu    sync.RWMutex
	turns map[string]Turn
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{turns: make(map[string]Turn)}
}

// Normalize substitutes the sentinel for an empty session key.
func Normalize(key string) string {
	if key == "" {
		return DefaultKey
	}
	return key
}

// SetTurn binds a session key to the sender and trust of the inbound
// event that scheduled the turn.
func (m *Manager) SetTurn(key string, trust types.TrustLevel, sender string, platform types.Platform) {
	key = Normalize(key)
	m.mu.Lock()
	m.turns[key] = Turn{Trust: trust, Sender: sender, Platform: platform}
	m.mu.Unlock()
}

// GetTurn reads the current turn state. A key with no entry yields the
// empty state (unknown trust, no sender).
func (m *Manager) GetTurn(key string) Turn {
	key = Normalize(key)
	m.mu.RLock()
	turn := m.turns[key]
	m.mu.RUnlock()
	return turn
}

// ClearTurn removes the session's state at turn end.
func (m *Manager) ClearTurn(key string) {
	key = Normalize(key)
	m.mu.Lock()
	delete(m.turns, key)
	m.mu.Unlock()
}

// Active returns the number of bound sessions. Diagnostic only.
func (m *Manager) Active() int {
	m.mu.RLock()
	n := len(m.turns)
	m.mu.RUnlock()
	return n
}
