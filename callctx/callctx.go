// Package callctx carries per-logical-call data through the dispatch
// pipeline. The transport collaborator attaches a Data envelope to the
// context of every inbound call; the dispatcher reads it to resolve the
// session and transaction scope, then publishes the resolved session back
// into the same context so application code can observe the caller.
//
// Call data always travels inside a context.Context. It is never stored in
// package-level or thread-local state, so concurrently executing calls on
// shared worker goroutines cannot observe each other's session.
package callctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/session"
)

type contextKey int

const (
	dataKey contextKey = iota
	currentSessionKey
)

// Data is the logical call context envelope carried with one call from the
// client to the server. A call with an empty envelope is legitimate; a call
// with no envelope at all is rejected by the dispatcher.
type Data struct {
	// SessionID identifies the caller's server session. uuid.Nil means the
	// call is unauthenticated.
	SessionID uuid.UUID

	// Transaction is an opaque distributed transaction token. Empty means
	// the call is not transactional.
	Transaction string

	// Values holds additional transport-defined entries flowing with the
	// call. May be nil.
	Values map[string]any
}

// WithData attaches a call data envelope to the context. Every inbound call
// handed to the dispatcher must pass through here, even when the envelope
// is empty.
func WithData(ctx context.Context, data Data) context.Context {
	return context.WithValue(ctx, dataKey, data)
}

// FromContext extracts the call data envelope from the context. The second
// return value is false when the call carries no envelope at all.
func FromContext(ctx context.Context) (Data, bool) {
	data, ok := ctx.Value(dataKey).(Data)
	return data, ok
}

// WithCurrentSession publishes the resolved session for the duration of the
// call. The dispatcher calls this after session validation; application
// code invoked further down the call path reads it via CurrentSession.
func WithCurrentSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, currentSessionKey, sess)
}

// CurrentSession returns the session published for this call, if any.
func CurrentSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(currentSessionKey).(*session.Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}
