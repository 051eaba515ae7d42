package testutil

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/auth"
	"github.com/zyanfx/zyango/callctx"
	"github.com/zyanfx/zyango/dispatch"
)

// NewTestLogger returns a logger that discards output, for wiring into
// constructors under test.
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ContextWithSession returns a context carrying a call envelope for the
// given session id.
func ContextWithSession(sessionID uuid.UUID) context.Context {
	return callctx.WithData(context.Background(), callctx.Data{SessionID: sessionID})
}

// ContextWithTransaction returns a context carrying a call envelope for
// the given session id and transaction token.
func ContextWithTransaction(sessionID uuid.UUID, token string) context.Context {
	return callctx.WithData(context.Background(), callctx.Data{
		SessionID:   sessionID,
		Transaction: token,
	})
}

// RecordingAuthProvider records every authentication request and answers
// from a configurable response.
type RecordingAuthProvider struct {
	mu       sync.Mutex
	requests []auth.Request
	Response auth.Response
}

// NewRecordingAuthProvider creates a provider that accepts everyone as
// the given identity until Response is changed.
func NewRecordingAuthProvider(identity string) *RecordingAuthProvider {
	return &RecordingAuthProvider{
		Response: auth.Response{Success: true, Identity: identity},
	}
}

// Authenticate records the request and returns the configured response.
func (p *RecordingAuthProvider) Authenticate(req auth.Request) auth.Response {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.Response
}

// Requests returns a copy of the recorded requests.
func (p *RecordingAuthProvider) Requests() []auth.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]auth.Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// ScriptedScope records the outcome of one transaction participation.
type ScriptedScope struct {
	Token     string
	mu        sync.Mutex
	completed bool
	disposed  bool

	CompleteErr error
}

// Complete marks the scope as committed.
func (s *ScriptedScope) Complete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CompleteErr != nil {
		return s.CompleteErr
	}
	s.completed = true
	return nil
}

// Dispose releases the scope.
func (s *ScriptedScope) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

// Completed reports whether Complete succeeded.
func (s *ScriptedScope) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Disposed reports whether Dispose ran.
func (s *ScriptedScope) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// ScriptedTransactionManager produces recording scopes, one per Join.
type ScriptedTransactionManager struct {
	mu     sync.Mutex
	scopes []*ScriptedScope

	JoinErr     error
	CompleteErr error
}

// Join records the token and hands out a fresh scope.
func (m *ScriptedTransactionManager) Join(_ context.Context, token string) (dispatch.TransactionScope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.JoinErr != nil {
		return nil, m.JoinErr
	}
	scope := &ScriptedScope{Token: token, CompleteErr: m.CompleteErr}
	m.scopes = append(m.scopes, scope)
	return scope, nil
}

// Scopes returns the scopes handed out so far.
func (m *ScriptedTransactionManager) Scopes() []*ScriptedScope {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ScriptedScope, len(m.scopes))
	copy(out, m.scopes)
	return out
}
