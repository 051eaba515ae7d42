// Package session provides the server session model and the session store
// contract consumed by the dispatch core, together with an in-memory
// manager suitable for single-process hosts.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session represents one authenticated client session. The session id is
// generated client-side at first logon and is the key under which the
// session is stored.
type Session struct {
	ID        uuid.UUID
	Identity  string
	CreatedAt time.Time

	mu        sync.RWMutex
	timestamp time.Time
	variables map[string]any
}

// NewSession creates a session bound to an authenticated identity. The
// activity timestamp starts at the creation time.
func NewSession(id uuid.UUID, identity string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Identity:  identity,
		CreatedAt: now,
		timestamp: now,
		variables: make(map[string]any),
	}
}

// Timestamp returns the last-activity timestamp.
func (s *Session) Timestamp() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timestamp
}

// Touch refreshes the last-activity timestamp. Concurrent refreshes race
// benignly; last write wins.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timestamp = time.Now()
}

// SetVariable stores a session-scoped variable.
func (s *Session) SetVariable(name string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variables[name] = value
}

// Variable retrieves a session-scoped variable.
func (s *Session) Variable(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.variables[name]
	return value, ok
}

// UnsetVariable removes a session-scoped variable.
func (s *Session) UnsetVariable(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.variables, name)
}

// expired reports whether the session has been idle longer than the limit.
func (s *Session) expired(ageLimit time.Duration, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.timestamp) > ageLimit
}
