package dispatch

import "context"

// TransactionScope is one call's participation in a distributed
// transaction. Complete marks the call's work as committed; Dispose
// releases the scope. Disposing without completing implies rollback.
type TransactionScope interface {
	Complete() error
	Dispose()
}

// TransactionManager is the collaborator joining calls to distributed
// transactions identified by opaque tokens. Each call joins independently;
// scopes are never shared across calls.
type TransactionManager interface {
	Join(ctx context.Context, token string) (TransactionScope, error)
}

// NoopTransactionManager ignores transaction tokens. It is the default for
// hosts without a transaction collaborator.
type NoopTransactionManager struct{}

// Join returns a scope that does nothing.
func (NoopTransactionManager) Join(_ context.Context, _ string) (TransactionScope, error) {
	return noopScope{}, nil
}

type noopScope struct{}

func (noopScope) Complete() error { return nil }
func (noopScope) Dispose()        {}
