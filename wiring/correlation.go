package wiring

import (
	"reflect"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/errors"
)

// CorrelationInfo describes one client-to-server delegate or event wiring.
// The correlation id is generated client-side and identifies this wiring
// instance for later removal; the interceptor is the server-side handle
// back to the client's receiver.
type CorrelationInfo struct {
	// CorrelationID identifies one wiring instance.
	CorrelationID uuid.UUID

	// DelegateMemberName is the name of the event or delegate-typed member
	// on the server component.
	DelegateMemberName string

	// IsEvent selects add/remove semantics; false means a delegate-typed
	// member assigned directly.
	IsEvent bool

	// Interceptor is invoked by the server-side wire to reach back to the
	// client. Exclusively referenced by this correlation.
	Interceptor *DelegateInterceptor
}

// DelegateInterceptor is the server-side stand-in for a client's callback.
// The transport collaborator supplies a handler that relays invocations
// back across the connection; in-process hosts call a local function.
type DelegateInterceptor struct {
	delegateType reflect.Type
	handler      func(args []any) (any, error)
}

// NewDelegateInterceptor creates an interceptor for a delegate of the given
// func type. The handler receives the call arguments and returns the
// client's result.
func NewDelegateInterceptor(
	delegateType reflect.Type, handler func(args []any) (any, error),
) (*DelegateInterceptor, error) {
	if delegateType == nil || delegateType.Kind() != reflect.Func {
		return nil, errors.WrapInvalidArgument(
			errors.New("delegate type must be a func type"),
			"DelegateInterceptor", "NewDelegateInterceptor", "delegate type validation")
	}
	if handler == nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("handler cannot be nil"),
			"DelegateInterceptor", "NewDelegateInterceptor", "handler validation")
	}
	return &DelegateInterceptor{delegateType: delegateType, handler: handler}, nil
}

// NewDelegateInterceptorFor wraps a local function as an interceptor. The
// delegate type is taken from the function itself. Useful for in-process
// hosts and tests.
func NewDelegateInterceptorFor(fn any) (*DelegateInterceptor, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func {
		return nil, errors.WrapInvalidArgument(
			errors.New("value is not a function"),
			"DelegateInterceptor", "NewDelegateInterceptorFor", "function validation")
	}

	fnType := fnVal.Type()
	handler := func(args []any) (any, error) {
		in, err := convertArgs(fnType, args)
		if err != nil {
			return nil, err
		}
		return splitResults(fnType, fnVal.Call(in))
	}
	return &DelegateInterceptor{delegateType: fnType, handler: handler}, nil
}

// DelegateType returns the func type of the client-side delegate.
func (di *DelegateInterceptor) DelegateType() reflect.Type {
	return di.delegateType
}

// InvokeClientDelegate forwards a server-side invocation to the client's
// receiver and returns its result.
func (di *DelegateInterceptor) InvokeClientDelegate(args ...any) (any, error) {
	return di.handler(args)
}

// convertArgs maps loosely typed call arguments onto the parameter types of
// fnType, applying assignability and numeric conversions.
func convertArgs(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	if len(args) != fnType.NumIn() {
		return nil, errors.WrapInvalidArgument(
			errors.ErrArgumentShape,
			"wiring", "convertArgs", "argument count check")
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		paramType := fnType.In(i)
		if arg == nil {
			in[i] = reflect.Zero(paramType)
			continue
		}
		argVal := reflect.ValueOf(arg)
		switch {
		case argVal.Type().AssignableTo(paramType):
			in[i] = argVal
		case argVal.Type().ConvertibleTo(paramType):
			in[i] = argVal.Convert(paramType)
		default:
			return nil, errors.WrapInvalidArgument(
				errors.ErrArgumentShape,
				"wiring", "convertArgs", "argument type check")
		}
	}
	return in, nil
}

// splitResults separates a reflective call result into (value, error). A
// trailing error return is unwrapped; at most the first non-error result
// is surfaced.
func splitResults(fnType reflect.Type, out []reflect.Value) (any, error) {
	var callErr error
	n := fnType.NumOut()
	if n > 0 && fnType.Out(n-1) == errorType {
		if errVal := out[n-1]; !errVal.IsNil() {
			callErr = errVal.Interface().(error)
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, callErr
	}
	return out[0].Interface(), callErr
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()
