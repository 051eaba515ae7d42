package wiring

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/errors"
)

// wireBinding is the cached, per-(component type, member) product of wire
// synthesis: where the member lives and what shape its handler has.
// Instantiating a Wire from a binding is cheap.
type wireBinding struct {
	memberName string
	isEvent    bool
	fieldIndex []int
	signature  reflect.Type
}

// Wire is a generated adapter bridging one server-side member to one
// client-side interceptor. Its generated function mirrors the member's
// signature and forwards every invocation through In.
type Wire struct {
	binding       *wireBinding
	correlationID uuid.UUID
	interceptor   *DelegateInterceptor
	fn            reflect.Value

	mu            sync.Mutex
	slot          eventBinder
	delegateField reflect.Value
}

func newWire(binding *wireBinding, correlationID uuid.UUID, interceptor *DelegateInterceptor) *Wire {
	w := &Wire{
		binding:       binding,
		correlationID: correlationID,
		interceptor:   interceptor,
	}
	w.fn = reflect.MakeFunc(binding.signature, w.call)
	return w
}

// CorrelationID returns the correlation id this wire serves.
func (w *Wire) CorrelationID() uuid.UUID {
	return w.correlationID
}

// MemberName returns the server member this wire binds. Empty for wires
// created for delegate-typed call arguments.
func (w *Wire) MemberName() string {
	return w.binding.memberName
}

// IsEvent reports whether the wire binds an event member.
func (w *Wire) IsEvent() bool {
	return w.binding.isEvent
}

// Signature returns the func type of the generated adapter.
func (w *Wire) Signature() reflect.Type {
	return w.binding.signature
}

// Func returns the generated adapter function, typed as Signature().
func (w *Wire) Func() reflect.Value {
	return w.fn
}

// In forwards an invocation to the client-side interceptor. When the
// interceptor fails on an event wire, the wire detaches itself from the
// source event before propagating the error, so a faulted wire is never
// invoked again.
func (w *Wire) In(args ...any) (any, error) {
	result, err := w.interceptor.InvokeClientDelegate(args...)
	if err != nil && w.binding.isEvent {
		w.detachSelf()
	}
	return result, err
}

// AttachTo binds the wire to a component instance: event wires add their
// generated function to the member's event slot, delegate wires assign it
// to the func-typed field. The instance must be a pointer to struct.
func (w *Wire) AttachTo(instance any) error {
	if len(w.binding.fieldIndex) == 0 {
		return errors.WrapInvalidArgument(
			errors.New("wire is not bound to a component member"),
			"Wire", "AttachTo", "binding check")
	}

	v := reflect.ValueOf(instance)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return errors.WrapInvalidArgument(
			errors.New("instance must be a pointer to struct"),
			"Wire", "AttachTo", "instance validation")
	}

	field := v.Elem().FieldByIndex(w.binding.fieldIndex)

	if w.binding.isEvent {
		if field.IsNil() {
			return errors.WrapInvalidArgument(
				errors.New("event slot is not initialized on instance"),
				"Wire", "AttachTo", "event slot check")
		}
		binder := field.Interface().(eventBinder)
		if err := binder.attachValue(w.correlationID, w.fn); err != nil {
			return errors.Wrap(err, "Wire", "AttachTo", "event handler attach")
		}
		w.mu.Lock()
		w.slot = binder
		w.mu.Unlock()
		return nil
	}

	if !field.CanSet() {
		return errors.WrapInvalidArgument(
			errors.New("delegate field is not settable"),
			"Wire", "AttachTo", "delegate field check")
	}
	field.Set(w.fn)
	w.mu.Lock()
	w.delegateField = field
	w.mu.Unlock()
	return nil
}

// Detach unbinds the wire from its component instance: event wires remove
// their handler from the slot, delegate wires zero the field. Detaching an
// unattached wire is a no-op.
func (w *Wire) Detach() {
	w.mu.Lock()
	slot := w.slot
	field := w.delegateField
	w.slot = nil
	w.delegateField = reflect.Value{}
	w.mu.Unlock()

	if slot != nil {
		slot.detachValue(w.correlationID)
	}
	if field.IsValid() && field.CanSet() {
		field.Set(reflect.Zero(field.Type()))
	}
}

// Attached reports whether an event wire is currently attached to a slot.
func (w *Wire) Attached() bool {
	w.mu.Lock()
	slot := w.slot
	w.mu.Unlock()
	if slot == nil {
		return false
	}
	return slot.attachedValue(w.correlationID)
}

func (w *Wire) detachSelf() {
	w.mu.Lock()
	slot := w.slot
	w.slot = nil
	w.mu.Unlock()
	if slot != nil {
		slot.detachValue(w.correlationID)
	}
}

// call is the body of the generated adapter function. Interceptor failures
// on members whose signature cannot return an error propagate as panics to
// the event raiser, matching a callback that has no error channel.
func (w *Wire) call(in []reflect.Value) []reflect.Value {
	args := make([]any, len(in))
	for i, v := range in {
		args[i] = v.Interface()
	}

	result, err := w.In(args...)

	sig := w.binding.signature
	numOut := sig.NumOut()
	hasErrOut := numOut > 0 && sig.Out(numOut-1) == errorType

	if err != nil && !hasErrOut {
		panic(err)
	}

	out := make([]reflect.Value, numOut)
	for i := 0; i < numOut; i++ {
		out[i] = reflect.Zero(sig.Out(i))
	}
	if hasErrOut && err != nil {
		errOut := reflect.New(errorType).Elem()
		errOut.Set(reflect.ValueOf(err))
		out[numOut-1] = errOut
	}

	valueOuts := numOut
	if hasErrOut {
		valueOuts--
	}
	if err == nil && result != nil && valueOuts > 0 {
		rv := reflect.ValueOf(result)
		outType := sig.Out(0)
		switch {
		case rv.Type().AssignableTo(outType):
			slot := reflect.New(outType).Elem()
			slot.Set(rv)
			out[0] = slot
		case rv.Type().ConvertibleTo(outType):
			out[0] = rv.Convert(outType)
		}
	}
	return out
}
