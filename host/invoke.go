package host

import (
	"context"
	"reflect"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/intercept"
	"github.com/zyanfx/zyango/wiring"
)

// Invoke executes a remote call through the host. Before the call reaches
// the dispatcher it is matched against the registered call interceptors;
// a matching interceptor may suppress the call, substitute its result, or
// let it through via the MakeRemoteCall escape hatch.
func (h *ComponentHost) Invoke(
	ctx context.Context,
	interfaceName string,
	correlationSet []wiring.CorrelationInfo,
	methodName string,
	args ...any,
) (any, error) {
	if err := h.guard("Invoke"); err != nil {
		return nil, err
	}

	trackingID := uuid.New()
	remoteCall := func(callArgs []any) (any, error) {
		return h.dispatcher.Invoke(ctx, trackingID, interfaceName, correlationSet, methodName, callArgs...)
	}

	interceptor := h.findInterceptor(interfaceName, methodName, args)
	if interceptor == nil {
		return remoteCall(args)
	}

	data := intercept.NewCallData(args, remoteCall)
	interceptor.OnInterception(data)
	if data.Intercepted {
		return data.ReturnValue, nil
	}
	// The interceptor matched but declined to handle the call.
	return remoteCall(data.Args)
}

// findInterceptor matches the call coordinates against the collection.
// The interface type comes from the registration; an unknown component
// falls through to the dispatcher, which owns the NotFound error.
func (h *ComponentHost) findInterceptor(interfaceName, methodName string, args []any) *intercept.CallInterceptor {
	if h.interceptors.Len() == 0 || !h.interceptors.Enabled() {
		return nil
	}
	reg, err := h.catalog.GetRegistration(interfaceName)
	if err != nil {
		return nil
	}

	paramTypes := make([]reflect.Type, len(args))
	for i, arg := range args {
		if arg == nil {
			paramTypes[i] = nil
			continue
		}
		paramTypes[i] = reflect.TypeOf(arg)
	}

	return h.interceptors.FindMatchingInterceptor(
		reg.InterfaceType(), reg.UniqueName(), intercept.MemberMethod, methodName, paramTypes)
}
