// Package errors provides standardized error handling patterns for the
// zyango dispatch core. It includes dispatch error codes, standard error
// variables, and helper functions for consistent error wrapping and
// classification across the system.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a dispatch error for handling purposes
type Code int

const (
	// CodeInvalidArgument represents malformed or missing required input
	CodeInvalidArgument Code = iota
	// CodeNotFound represents a request for an unregistered component name
	CodeNotFound
	// CodeTypeMismatch represents an implementation that does not satisfy
	// the registered interface's member set
	CodeTypeMismatch
	// CodeInvalidSession represents a session id that is absent from the
	// session store or has expired
	CodeInvalidSession
	// CodeSecurityViolation represents missing call context or failed
	// authentication
	CodeSecurityViolation
	// CodeCanceledInvocation represents a call vetoed by a before-invoke
	// subscriber
	CodeCanceledInvocation
	// CodeObjectDisposed represents an operation on a torn-down catalog
	// or host
	CodeObjectDisposed
	// CodeInternal represents an unexpected internal inconsistency
	CodeInternal
)

// String returns the string representation of Code
func (c Code) String() string {
	switch c {
	case CodeInvalidArgument:
		return "invalid_argument"
	case CodeNotFound:
		return "not_found"
	case CodeTypeMismatch:
		return "type_mismatch"
	case CodeInvalidSession:
		return "invalid_session"
	case CodeSecurityViolation:
		return "security_violation"
	case CodeCanceledInvocation:
		return "canceled_invocation"
	case CodeObjectDisposed:
		return "object_disposed"
	case CodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Registration errors
	ErrNotInterface     = errors.New("registered type is not an interface")
	ErrNotConcrete      = errors.New("implementation type is not concrete")
	ErrNoCreationPath   = errors.New("no creation strategy configured")
	ErrUnknownComponent = errors.New("component name not registered")

	// Activation errors
	ErrUnknownActivation = errors.New("unknown activation type")

	// Session and security errors
	ErrSessionMissing = errors.New("session not found in session store")
	ErrNoCallContext  = errors.New("call carries no logical call context")
	ErrAuthFailed     = errors.New("authentication failed")

	// Lifecycle errors
	ErrCatalogDisposed = errors.New("component catalog is disposed")
	ErrHostClosed      = errors.New("component host is closed")

	// Invocation errors
	ErrCallCanceled   = errors.New("invocation canceled by subscriber")
	ErrUnknownMethod  = errors.New("method not found on component")
	ErrArgumentShape  = errors.New("argument count or type does not match method")
	ErrMemberNotFound = errors.New("delegate member not found on component")
)

// DispatchError wraps an error with its dispatch error code and the
// component/operation context it was raised in.
type DispatchError struct {
	Code      Code
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (de *DispatchError) Error() string {
	if de.Message != "" {
		return de.Message
	}
	return de.Err.Error()
}

// Unwrap returns the underlying error
func (de *DispatchError) Unwrap() error {
	return de.Err
}

// CodeOf returns the dispatch error code for an error. Errors that did not
// originate from this package report CodeInternal.
func CodeOf(err error) Code {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given dispatch error code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsInvalidArgument checks if an error is due to malformed or missing input
func IsInvalidArgument(err error) bool { return HasCode(err, CodeInvalidArgument) }

// IsNotFound checks if an error is due to an unregistered component name
func IsNotFound(err error) bool { return HasCode(err, CodeNotFound) }

// IsTypeMismatch checks if an error is due to an unsatisfied interface
func IsTypeMismatch(err error) bool { return HasCode(err, CodeTypeMismatch) }

// IsInvalidSession checks if an error is due to an unknown or expired session
func IsInvalidSession(err error) bool { return HasCode(err, CodeInvalidSession) }

// IsSecurityViolation checks if an error is due to missing call context or
// failed authentication
func IsSecurityViolation(err error) bool { return HasCode(err, CodeSecurityViolation) }

// IsCanceledInvocation checks if an error is due to a vetoed call
func IsCanceledInvocation(err error) bool { return HasCode(err, CodeCanceledInvocation) }

// IsObjectDisposed checks if an error is due to a torn-down catalog or host
func IsObjectDisposed(err error) bool { return HasCode(err, CodeObjectDisposed) }

// newCoded creates a new coded dispatch error.
// This is an internal helper - use the Wrap* constructors instead.
func newCoded(code Code, err error, component, operation, message string) *DispatchError {
	return &DispatchError{
		Code:      code,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapCode wraps an error with an explicit dispatch error code and context
func WrapCode(code Code, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newCoded(code, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalidArgument wraps an error as an invalid-argument failure with context
func WrapInvalidArgument(err error, component, method, action string) error {
	return WrapCode(CodeInvalidArgument, err, component, method, action)
}

// WrapNotFound wraps an error as a not-found failure with context
func WrapNotFound(err error, component, method, action string) error {
	return WrapCode(CodeNotFound, err, component, method, action)
}

// WrapTypeMismatch wraps an error as a type-mismatch failure with context
func WrapTypeMismatch(err error, component, method, action string) error {
	return WrapCode(CodeTypeMismatch, err, component, method, action)
}

// WrapInvalidSession wraps an error as an invalid-session failure with context
func WrapInvalidSession(err error, component, method, action string) error {
	return WrapCode(CodeInvalidSession, err, component, method, action)
}

// WrapSecurityViolation wraps an error as a security-violation failure with context
func WrapSecurityViolation(err error, component, method, action string) error {
	return WrapCode(CodeSecurityViolation, err, component, method, action)
}

// WrapCanceledInvocation wraps an error as a canceled-invocation failure with context
func WrapCanceledInvocation(err error, component, method, action string) error {
	return WrapCode(CodeCanceledInvocation, err, component, method, action)
}

// WrapObjectDisposed wraps an error as an object-disposed failure with context
func WrapObjectDisposed(err error, component, method, action string) error {
	return WrapCode(CodeObjectDisposed, err, component, method, action)
}

// WrapInternal wraps an error as an internal inconsistency with context
func WrapInternal(err error, component, method, action string) error {
	return WrapCode(CodeInternal, err, component, method, action)
}

// New constructs a plain error.
// Re-exported from the standard library for single-import convenience.
func New(text string) error {
	return errors.New(text)
}

// Is reports whether any error in err's chain matches target.
// Re-exported from the standard library for single-import convenience.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// Re-exported from the standard library for single-import convenience.
func As(err error, target any) bool {
	return errors.As(err, target)
}
