package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeString(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeInvalidArgument, "invalid_argument"},
		{CodeNotFound, "not_found"},
		{CodeTypeMismatch, "type_mismatch"},
		{CodeInvalidSession, "invalid_session"},
		{CodeSecurityViolation, "security_violation"},
		{CodeCanceledInvocation, "canceled_invocation"},
		{CodeObjectDisposed, "object_disposed"},
		{CodeInternal, "internal"},
		{Code(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String())
	}
}

func TestWrapFormatsContext(t *testing.T) {
	err := Wrap(ErrUnknownComponent, "Catalog", "GetRegistration", "name lookup")
	require.Error(t, err)
	assert.Equal(t, "Catalog.GetRegistration: name lookup failed: component name not registered", err.Error())
	assert.True(t, Is(err, ErrUnknownComponent))
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Catalog", "Dispose", "cleanup"))
	assert.NoError(t, WrapNotFound(nil, "Catalog", "GetRegistration", "lookup"))
	assert.NoError(t, WrapCode(CodeInternal, nil, "Dispatcher", "Invoke", "resolve"))
}

func TestCodedWrappersCarryCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		pred func(error) bool
	}{
		{"invalid argument", WrapInvalidArgument(ErrNotInterface, "Catalog", "RegisterComponent", "interface validation"), CodeInvalidArgument, IsInvalidArgument},
		{"not found", WrapNotFound(ErrUnknownComponent, "Catalog", "GetRegistration", "lookup"), CodeNotFound, IsNotFound},
		{"type mismatch", WrapTypeMismatch(New("missing method Echo"), "Catalog", "RegisterComponent", "member check"), CodeTypeMismatch, IsTypeMismatch},
		{"invalid session", WrapInvalidSession(ErrSessionMissing, "Dispatcher", "Invoke", "session check"), CodeInvalidSession, IsInvalidSession},
		{"security violation", WrapSecurityViolation(ErrNoCallContext, "Dispatcher", "Invoke", "context check"), CodeSecurityViolation, IsSecurityViolation},
		{"canceled", WrapCanceledInvocation(ErrCallCanceled, "Dispatcher", "Invoke", "before-invoke"), CodeCanceledInvocation, IsCanceledInvocation},
		{"disposed", WrapObjectDisposed(ErrCatalogDisposed, "Catalog", "GetRegistration", "disposal check"), CodeObjectDisposed, IsObjectDisposed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.code, CodeOf(tt.err))
			assert.True(t, tt.pred(tt.err))
			assert.False(t, HasCode(tt.err, CodeInternal))
		})
	}
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(New("boom")))
}

func TestHasCodeNil(t *testing.T) {
	assert.False(t, HasCode(nil, CodeNotFound))
	assert.False(t, IsNotFound(nil))
}

func TestDispatchErrorUnwrapChain(t *testing.T) {
	inner := fmt.Errorf("session %q: %w", "abc", ErrSessionMissing)
	err := WrapInvalidSession(inner, "Dispatcher", "RenewSession", "session lookup")

	var de *DispatchError
	require.True(t, As(err, &de))
	assert.Equal(t, "Dispatcher", de.Component)
	assert.Equal(t, "RenewSession", de.Operation)
	assert.True(t, Is(err, ErrSessionMissing))
}

func TestCodeSurvivesOuterWrapping(t *testing.T) {
	err := WrapNotFound(ErrUnknownComponent, "Catalog", "GetRegistration", "lookup")
	outer := fmt.Errorf("dispatch failed: %w", err)

	assert.True(t, IsNotFound(outer))
	assert.Equal(t, CodeNotFound, CodeOf(outer))
}
