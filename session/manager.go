package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/errors"
)

// Manager is the session store contract consumed by the dispatcher. A
// session id not present in the store is invalid; every call bearing it is
// rejected before dispatch. Implementations must be safe under concurrent
// access from many simultaneous calls.
type Manager interface {
	// ExistSession reports whether a live session exists for the id.
	ExistSession(id uuid.UUID) bool

	// GetSessionBySessionID retrieves the session for the id. The boolean
	// is false when the session is absent or expired. Existence check and
	// retrieval are a single atomic operation.
	GetSessionBySessionID(id uuid.UUID) (*Session, bool)

	// StoreSession stores a session under its id, replacing any previous
	// session stored under the same id.
	StoreSession(sess *Session)

	// RemoveSession removes the session for the id. Removing an absent
	// session is not an error.
	RemoveSession(id uuid.UUID)

	// SessionAgeLimit returns the configured maximum session idle time.
	SessionAgeLimit() time.Duration

	// SetSessionAgeLimit reconfigures the maximum session idle time.
	SetSessionAgeLimit(limit time.Duration)
}

// InMemoryManager keeps sessions in a process-local map and sweeps expired
// sessions on a fixed interval. It follows the lifecycle pattern
// Start(ctx) / Stop(timeout); the sweep goroutine runs between the two.
type InMemoryManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	ageLimit time.Duration

	sweepInterval time.Duration
	logger        *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// InMemoryManagerOption is a functional option for configuring InMemoryManager
type InMemoryManagerOption func(*InMemoryManager)

// WithSessionAgeLimit sets the maximum session idle time.
func WithSessionAgeLimit(limit time.Duration) InMemoryManagerOption {
	return func(m *InMemoryManager) { m.ageLimit = limit }
}

// WithSweepInterval sets how often the expiry sweep runs.
func WithSweepInterval(interval time.Duration) InMemoryManagerOption {
	return func(m *InMemoryManager) { m.sweepInterval = interval }
}

// NewInMemoryManager creates an in-memory session manager. Defaults: 4 hour
// age limit, 5 minute sweep interval.
func NewInMemoryManager(logger *slog.Logger, opts ...InMemoryManagerOption) *InMemoryManager {
	m := &InMemoryManager{
		sessions:      make(map[uuid.UUID]*Session),
		ageLimit:      4 * time.Hour,
		sweepInterval: 5 * time.Minute,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ExistSession reports whether a live, unexpired session exists for the id.
func (m *InMemoryManager) ExistSession(id uuid.UUID) bool {
	_, ok := m.GetSessionBySessionID(id)
	return ok
}

// GetSessionBySessionID retrieves the session for the id. Expired sessions
// are treated as absent even before the sweep removes them.
func (m *InMemoryManager) GetSessionBySessionID(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	ageLimit := m.ageLimit
	m.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if sess.expired(ageLimit, time.Now()) {
		return nil, false
	}
	return sess, true
}

// StoreSession stores a session under its id.
func (m *InMemoryManager) StoreSession(sess *Session) {
	if sess == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
}

// RemoveSession removes the session for the id.
func (m *InMemoryManager) RemoveSession(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// SessionAgeLimit returns the configured maximum session idle time.
func (m *InMemoryManager) SessionAgeLimit() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ageLimit
}

// SetSessionAgeLimit reconfigures the maximum session idle time.
func (m *InMemoryManager) SetSessionAgeLimit(limit time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ageLimit = limit
}

// Count returns the number of stored sessions, including any that expired
// since the last sweep.
func (m *InMemoryManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// SweepExpiredSessions removes every session idle beyond the age limit and
// returns how many were removed.
func (m *InMemoryManager) SweepExpiredSessions() int {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.expired(m.ageLimit, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Start launches the background expiry sweep. The sweep stops when Stop is
// called or the context is canceled.
func (m *InMemoryManager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.done != nil {
		return errors.WrapInvalidArgument(
			errors.New("session manager already started"),
			"InMemoryManager", "Start", "lifecycle check")
	}

	sweepCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.sweepLoop(sweepCtx, m.done)
	return nil
}

// Stop halts the background sweep, waiting up to timeout for the sweep
// goroutine to exit. Stopping a manager that was never started is a no-op.
func (m *InMemoryManager) Stop(timeout time.Duration) error {
	m.mu.Lock()
	cancel := m.cancel
	done := m.done
	m.cancel = nil
	m.done = nil
	m.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.WrapInternal(
			errors.New("session sweep did not stop in time"),
			"InMemoryManager", "Stop", "sweep shutdown")
	}
}

func (m *InMemoryManager) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := m.SweepExpiredSessions(); removed > 0 {
				m.logger.Debug("Removed expired sessions", "count", removed)
			}
		}
	}
}
