// Package dispatch implements the per-call invocation pipeline of the
// zyango core: request validation, before/after/canceled hooks, component
// resolution and activation, delegate/event wiring, session and
// transaction scoping, and the reflective method invocation itself. It
// also carries the session operations (Logon, Logoff, RenewSession) and
// the explicit event subscription surface exposed to the transport
// collaborator.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/auth"
	"github.com/zyanfx/zyango/callctx"
	"github.com/zyanfx/zyango/catalog"
	"github.com/zyanfx/zyango/errors"
	"github.com/zyanfx/zyango/session"
	"github.com/zyanfx/zyango/wiring"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// ComponentInfo describes one published component to the transport.
type ComponentInfo struct {
	UniqueName    string `json:"unique_name"`
	InterfaceName string `json:"interface_name"`
	Activation    string `json:"activation"`
}

// Option is a functional option for configuring Dispatcher
type Option func(*Dispatcher)

// WithTransactionManager wires the distributed transaction collaborator.
func WithTransactionManager(manager TransactionManager) Option {
	return func(d *Dispatcher) { d.transactions = manager }
}

// WithWireFactory shares a wire factory between dispatchers. Sharing keeps
// the synthesis cache warm across hosts publishing the same components.
func WithWireFactory(factory *wiring.DynamicWireFactory) Option {
	return func(d *Dispatcher) { d.wireFactory = factory }
}

// Dispatcher executes remote calls against the component catalog. One
// dispatcher serves many concurrent calls; all per-call state lives on the
// call's own stack and context.
type Dispatcher struct {
	catalog      *catalog.Catalog
	sessions     session.Manager
	authProvider auth.Provider
	wireFactory  *wiring.DynamicWireFactory
	transactions TransactionManager
	logger       *slog.Logger

	hooks hookSet
}

// NewDispatcher creates a dispatcher over the given catalog, session store
// and authentication provider.
func NewDispatcher(
	cat *catalog.Catalog,
	sessions session.Manager,
	authProvider auth.Provider,
	logger *slog.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		catalog:      cat,
		sessions:     sessions,
		authProvider: authProvider,
		wireFactory:  wiring.NewDynamicWireFactory(),
		transactions: NoopTransactionManager{},
		logger:       logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SubscribeBeforeInvoke registers a synchronous before-invoke subscriber.
// Subscribers may veto the call.
func (d *Dispatcher) SubscribeBeforeInvoke(fn func(*BeforeInvokeEvent)) {
	d.hooks.subscribeBefore(fn)
}

// SubscribeAfterInvoke registers a synchronous after-invoke subscriber.
func (d *Dispatcher) SubscribeAfterInvoke(fn func(AfterInvokeEvent)) {
	d.hooks.subscribeAfter(fn)
}

// SubscribeInvokeCanceled registers a subscriber for the unified
// call-did-not-complete notification channel.
func (d *Dispatcher) SubscribeInvokeCanceled(fn func(CanceledEvent)) {
	d.hooks.subscribeCanceled(fn)
}

// Invoke executes one remote call: it resolves the component, activates an
// instance per policy, wires the correlation set, validates session and
// transaction context, substitutes delegate placeholders in the arguments,
// and invokes the method reflectively. Errors raised by the invoked method
// propagate unchanged; every early termination is reported once through
// the canceled-notification channel before propagating.
func (d *Dispatcher) Invoke(
	ctx context.Context,
	trackingID uuid.UUID,
	interfaceName string,
	correlationSet []wiring.CorrelationInfo,
	methodName string,
	args ...any,
) (result any, err error) {
	// Step 1: fail fast on malformed input, before any side effects.
	if interfaceName == "" {
		return nil, errors.WrapInvalidArgument(
			errors.New("interface name cannot be empty"),
			"Dispatcher", "Invoke", "interface name validation")
	}
	if methodName == "" {
		return nil, errors.WrapInvalidArgument(
			errors.New("method name cannot be empty"),
			"Dispatcher", "Invoke", "method name validation")
	}

	// Step 2: before-invoke subscribers may veto the call.
	if d.hooks.hasBefore() {
		event := &BeforeInvokeEvent{
			TrackingID:     trackingID,
			InterfaceName:  interfaceName,
			MethodName:     methodName,
			Args:           args,
			CorrelationSet: correlationSet,
		}
		d.hooks.notifyBefore(event)
		if event.Canceled {
			cancelErr := event.CancelError
			if cancelErr == nil {
				cancelErr = errors.ErrCallCanceled
			}
			wrapped := errors.WrapCanceledInvocation(cancelErr, "Dispatcher", "Invoke", "before-invoke veto")
			d.notifyCanceled(trackingID, interfaceName, methodName, wrapped)
			return nil, wrapped
		}
		args = event.Args
	}

	// Step 3: resolve the registration.
	reg, err := d.catalog.GetRegistration(interfaceName)
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// Step 4: activate an instance per policy.
	instance, err := d.catalog.GetComponentInstance(reg)
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// Step 5: wire the correlation set. Single-call wirings live for this
	// call only; singleton wirings persist on the registration.
	callWires, err := d.wireCorrelations(reg, instance, correlationSet)
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}
	defer func() {
		for _, w := range callWires {
			w.Detach()
		}
	}()

	// Step 6: resolve session context and publish the current session.
	ctx, err = d.resolveCallContext(ctx)
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// Step 7: join the distributed transaction, if the call carries one.
	scope, err := d.joinTransaction(ctx)
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// Step 8: substitute delegate placeholders in the arguments.
	args, err = d.bindDelegateArgs(instance, methodName, args)
	if err != nil {
		if scope != nil {
			scope.Dispose()
		}
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// A panicking component must still produce the canceled notification
	// before the panic crosses the dispatch boundary.
	defer func() {
		if r := recover(); r != nil {
			if scope != nil {
				scope.Dispose()
			}
			d.notifyCanceled(trackingID, interfaceName, methodName,
				fmt.Errorf("component panicked: %v", r))
			panic(r)
		}
	}()

	// Step 9: invoke the method reflectively.
	result, err = d.invokeMethod(ctx, instance, methodName, args)

	// Step 10: the scope completes only when the call succeeded; disposal
	// without completion implies rollback.
	if scope != nil {
		if err == nil {
			if completeErr := scope.Complete(); completeErr != nil && err == nil {
				err = errors.Wrap(completeErr, "Dispatcher", "Invoke", "transaction completion")
			}
		}
		scope.Dispose()
	}
	if err != nil {
		d.notifyCanceled(trackingID, interfaceName, methodName, err)
		return nil, err
	}

	// Step 11: after-invoke subscribers observe the completed call.
	d.hooks.notifyAfter(AfterInvokeEvent{
		TrackingID:     trackingID,
		InterfaceName:  interfaceName,
		MethodName:     methodName,
		Args:           args,
		CorrelationSet: correlationSet,
		ReturnValue:    result,
	})
	return result, nil
}

// Logon authenticates a client and creates its server session. Logging on
// an already-known session id is an idempotent no-op returning the
// existing session.
func (d *Dispatcher) Logon(
	ctx context.Context, sessionID uuid.UUID, credentials map[string]string,
) (*session.Session, error) {
	if sessionID == uuid.Nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("session id cannot be the zero token"),
			"Dispatcher", "Logon", "session id validation")
	}

	if existing, ok := d.sessions.GetSessionBySessionID(sessionID); ok {
		return existing, nil
	}

	response := d.authProvider.Authenticate(auth.Request{Credentials: credentials})
	if !response.Success {
		return nil, errors.WrapSecurityViolation(
			fmt.Errorf("%s: %w", response.ErrorMessage, errors.ErrAuthFailed),
			"Dispatcher", "Logon", "authentication")
	}

	sess := session.NewSession(sessionID, response.Identity)
	d.sessions.StoreSession(sess)
	d.logger.Info("Client logged on", "session_id", sessionID, "identity", response.Identity)
	return sess, nil
}

// Logoff removes the session unconditionally. Removing a session that does
// not exist is not an error.
func (d *Dispatcher) Logoff(sessionID uuid.UUID) {
	d.sessions.RemoveSession(sessionID)
	d.logger.Debug("Client logged off", "session_id", sessionID)
}

// RenewSession refreshes the calling session's activity timestamp and
// returns the configured session age limit.
func (d *Dispatcher) RenewSession(ctx context.Context) (time.Duration, error) {
	data, ok := callctx.FromContext(ctx)
	if !ok {
		return 0, errors.WrapSecurityViolation(
			errors.ErrNoCallContext, "Dispatcher", "RenewSession", "call context check")
	}

	sess, ok := d.sessions.GetSessionBySessionID(data.SessionID)
	if !ok {
		return 0, errors.WrapInvalidSession(
			fmt.Errorf("session %q: %w", data.SessionID, errors.ErrSessionMissing),
			"Dispatcher", "RenewSession", "session lookup")
	}
	sess.Touch()
	return d.sessions.SessionAgeLimit(), nil
}

// AddEventHandler subscribes a client correlation to an event or delegate
// member of a singleton component. Single-call components carry their
// wirings with each Invoke's correlation set instead.
func (d *Dispatcher) AddEventHandler(interfaceName string, correlation wiring.CorrelationInfo) error {
	reg, err := d.catalog.GetRegistration(interfaceName)
	if err != nil {
		return err
	}
	if reg.Activation() != catalog.ActivationSingleton {
		return errors.WrapInvalidArgument(
			errors.New("event subscriptions on single-call components are wired per call"),
			"Dispatcher", "AddEventHandler", "activation check")
	}

	instance, err := d.catalog.GetComponentInstance(reg)
	if err != nil {
		return err
	}
	if _, exists := reg.EventWiring(correlation.CorrelationID); exists {
		return nil
	}

	w, err := d.wireFactory.CreateWire(reflect.TypeOf(instance), correlation)
	if err != nil {
		return err
	}
	if err := w.AttachTo(instance); err != nil {
		return err
	}
	reg.AddEventWiring(w)
	return nil
}

// RemoveEventHandler removes the subscription persisted under the
// correlation id, restoring the wiring state that existed before the
// matching AddEventHandler. Removing an unknown correlation is a no-op.
func (d *Dispatcher) RemoveEventHandler(interfaceName string, correlationID uuid.UUID) error {
	reg, err := d.catalog.GetRegistration(interfaceName)
	if err != nil {
		return err
	}
	if w, ok := reg.RemoveEventWiring(correlationID); ok {
		w.Detach()
	}
	return nil
}

// GetRegisteredComponents lists the published components for the transport.
func (d *Dispatcher) GetRegisteredComponents() []ComponentInfo {
	regs := d.catalog.Registrations()
	infos := make([]ComponentInfo, 0, len(regs))
	for _, reg := range regs {
		infos = append(infos, ComponentInfo{
			UniqueName:    reg.UniqueName(),
			InterfaceName: reg.InterfaceType().String(),
			Activation:    reg.Activation().String(),
		})
	}
	return infos
}

func (d *Dispatcher) notifyCanceled(trackingID uuid.UUID, interfaceName, methodName string, err error) {
	d.hooks.notifyCanceled(CanceledEvent{
		TrackingID:    trackingID,
		InterfaceName: interfaceName,
		MethodName:    methodName,
		Err:           err,
	})
}

// wireCorrelations attaches every correlation in the set to the instance.
// It returns the wirings that must be torn down when the call ends; for
// singleton components that list is empty because their wirings persist on
// the registration until explicitly removed.
func (d *Dispatcher) wireCorrelations(
	reg *catalog.Registration, instance any, correlationSet []wiring.CorrelationInfo,
) ([]*wiring.Wire, error) {
	if len(correlationSet) == 0 {
		return nil, nil
	}

	persistent := reg.Activation() == catalog.ActivationSingleton
	var callWires []*wiring.Wire
	for _, correlation := range correlationSet {
		if persistent {
			if _, exists := reg.EventWiring(correlation.CorrelationID); exists {
				continue
			}
		}

		w, err := d.wireFactory.CreateWire(reflect.TypeOf(instance), correlation)
		if err != nil {
			return callWires, err
		}
		if err := w.AttachTo(instance); err != nil {
			return callWires, err
		}

		if persistent {
			reg.AddEventWiring(w)
		} else {
			callWires = append(callWires, w)
		}
	}
	return callWires, nil
}

// resolveCallContext validates the call's logical context and publishes
// the resolved session into the context for the duration of the call.
func (d *Dispatcher) resolveCallContext(ctx context.Context) (context.Context, error) {
	data, ok := callctx.FromContext(ctx)
	if !ok {
		// Every legitimate call carries at least an empty envelope.
		return ctx, errors.WrapSecurityViolation(
			errors.ErrNoCallContext, "Dispatcher", "Invoke", "call context check")
	}

	if data.SessionID == uuid.Nil {
		return ctx, nil
	}
	sess, ok := d.sessions.GetSessionBySessionID(data.SessionID)
	if !ok {
		return ctx, errors.WrapInvalidSession(
			fmt.Errorf("session %q: %w", data.SessionID, errors.ErrSessionMissing),
			"Dispatcher", "Invoke", "session lookup")
	}
	sess.Touch()
	return callctx.WithCurrentSession(ctx, sess), nil
}

// joinTransaction joins the call's transaction token, if present.
func (d *Dispatcher) joinTransaction(ctx context.Context) (TransactionScope, error) {
	data, _ := callctx.FromContext(ctx)
	if data.Transaction == "" {
		return nil, nil
	}
	scope, err := d.transactions.Join(ctx, data.Transaction)
	if err != nil {
		return nil, errors.Wrap(err, "Dispatcher", "Invoke", "transaction join")
	}
	return scope, nil
}

// bindDelegateArgs replaces delegate-interceptor placeholders in the
// argument list with freshly synthesized wires matching the parameter's
// delegate type, so a single call can carry ad hoc callbacks without a
// prior subscribe step.
func (d *Dispatcher) bindDelegateArgs(instance any, methodName string, args []any) ([]any, error) {
	method, err := resolveMethod(instance, methodName)
	if err != nil {
		return nil, err
	}
	methodType := method.Type()

	paramOffset := 0
	if methodType.NumIn() > 0 && methodType.In(0) == contextType {
		paramOffset = 1
	}

	bound := args
	for i, arg := range args {
		interceptor, ok := arg.(*wiring.DelegateInterceptor)
		if !ok {
			continue
		}

		paramIndex := i + paramOffset
		delegateType := interceptor.DelegateType()
		if paramIndex < methodType.NumIn() && methodType.In(paramIndex).Kind() == reflect.Func {
			delegateType = methodType.In(paramIndex)
		}

		w, err := d.wireFactory.CreateParamWire(delegateType, interceptor)
		if err != nil {
			return nil, err
		}
		if &bound[0] == &args[0] {
			bound = make([]any, len(args))
			copy(bound, args)
		}
		bound[i] = w.Func().Interface()
	}
	return bound, nil
}

// invokeMethod reflectively invokes the named method. The enriched call
// context is passed through when the method declares a leading
// context.Context parameter. Errors returned by the method propagate
// unchanged so the caller sees the original failure identity.
func (d *Dispatcher) invokeMethod(
	ctx context.Context, instance any, methodName string, args []any,
) (any, error) {
	method, err := resolveMethod(instance, methodName)
	if err != nil {
		return nil, err
	}
	methodType := method.Type()

	wantsContext := methodType.NumIn() > 0 && methodType.In(0) == contextType
	expectedArgs := methodType.NumIn()
	if wantsContext {
		expectedArgs--
	}
	if len(args) != expectedArgs {
		return nil, errors.WrapInvalidArgument(
			fmt.Errorf("method %s expects %d arguments, got %d: %w",
				methodName, expectedArgs, len(args), errors.ErrArgumentShape),
			"Dispatcher", "Invoke", "argument count check")
	}

	in := make([]reflect.Value, 0, methodType.NumIn())
	if wantsContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, arg := range args {
		value, err := conformArg(arg, methodType.In(len(in)))
		if err != nil {
			return nil, errors.WrapInvalidArgument(
				fmt.Errorf("argument %d for method %s: %w", i, methodName, err),
				"Dispatcher", "Invoke", "argument conversion")
		}
		in = append(in, value)
	}

	out := method.Call(in)

	var callErr error
	numOut := methodType.NumOut()
	if numOut > 0 && methodType.Out(numOut-1) == errorType {
		if errVal := out[numOut-1]; !errVal.IsNil() {
			callErr = errVal.Interface().(error)
		}
		out = out[:numOut-1]
	}
	if callErr != nil {
		return nil, callErr
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}

// resolveMethod resolves the named method on the instance.
func resolveMethod(instance any, methodName string) (reflect.Value, error) {
	method := reflect.ValueOf(instance).MethodByName(methodName)
	if !method.IsValid() {
		return reflect.Value{}, errors.WrapInvalidArgument(
			fmt.Errorf("method %q on %T: %w", methodName, instance, errors.ErrUnknownMethod),
			"Dispatcher", "Invoke", "method resolution")
	}
	return method, nil
}

// conformArg maps a loosely typed argument onto the parameter type,
// applying assignability and numeric conversions. Serialization at the
// transport boundary routinely widens integers, so convertibility is part
// of the contract here.
func conformArg(arg any, paramType reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch paramType.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return reflect.Zero(paramType), nil
		default:
			return reflect.Value{}, errors.ErrArgumentShape
		}
	}

	value := reflect.ValueOf(arg)
	switch {
	case value.Type().AssignableTo(paramType):
		return value, nil
	case value.Type().ConvertibleTo(paramType):
		return value.Convert(paramType), nil
	default:
		return reflect.Value{}, errors.ErrArgumentShape
	}
}
