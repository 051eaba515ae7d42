package wiring

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/errors"
)

var binderType = reflect.TypeOf((*eventBinder)(nil)).Elem()

// DynamicWireFactory synthesizes wires bridging server members to client
// interceptors. Synthesis per (component type, member) is cached; two
// concurrent first requests for the same key converge on a single
// canonical binding, with the loser's synthesis result discarded.
type DynamicWireFactory struct {
	mu       sync.RWMutex
	bindings map[string]*wireBinding
}

// NewDynamicWireFactory creates an empty wire factory.
func NewDynamicWireFactory() *DynamicWireFactory {
	return &DynamicWireFactory{
		bindings: make(map[string]*wireBinding),
	}
}

// CreateWire synthesizes a wire for the correlation's member on the given
// component type. The component type is the concrete implementation type
// (pointer to struct); the member is resolved as an event slot field when
// the correlation marks an event, or a func-typed field otherwise.
func (f *DynamicWireFactory) CreateWire(
	componentType reflect.Type, correlation CorrelationInfo,
) (*Wire, error) {
	if componentType == nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("component type cannot be nil"),
			"DynamicWireFactory", "CreateWire", "component type validation")
	}
	if correlation.DelegateMemberName == "" {
		return nil, errors.WrapInvalidArgument(
			errors.New("delegate member name cannot be empty"),
			"DynamicWireFactory", "CreateWire", "member name validation")
	}
	if correlation.Interceptor == nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("correlation carries no interceptor"),
			"DynamicWireFactory", "CreateWire", "interceptor validation")
	}

	binding, err := f.bindingFor(componentType, correlation.DelegateMemberName)
	if err != nil {
		return nil, err
	}
	if binding.isEvent != correlation.IsEvent {
		return nil, errors.WrapInvalidArgument(
			fmt.Errorf("member %q is wired as event=%v but correlation says event=%v",
				correlation.DelegateMemberName, binding.isEvent, correlation.IsEvent),
			"DynamicWireFactory", "CreateWire", "member kind check")
	}

	return newWire(binding, correlation.CorrelationID, correlation.Interceptor), nil
}

// CreateParamWire synthesizes a wire for a delegate-typed call argument.
// Unlike member wires, the synthesis is not cached; parameter delegates
// live for a single call.
func (f *DynamicWireFactory) CreateParamWire(
	delegateType reflect.Type, interceptor *DelegateInterceptor,
) (*Wire, error) {
	if delegateType == nil || delegateType.Kind() != reflect.Func {
		return nil, errors.WrapInvalidArgument(
			errors.New("delegate type must be a func type"),
			"DynamicWireFactory", "CreateParamWire", "delegate type validation")
	}
	if interceptor == nil {
		return nil, errors.WrapInvalidArgument(
			errors.New("interceptor cannot be nil"),
			"DynamicWireFactory", "CreateParamWire", "interceptor validation")
	}

	binding := &wireBinding{signature: delegateType}
	return newWire(binding, uuid.New(), interceptor), nil
}

// BindingCount returns the number of cached member bindings.
func (f *DynamicWireFactory) BindingCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.bindings)
}

// bindingFor returns the canonical binding for the cache key, synthesizing
// it on a miss. On a synthesis race the first inserted binding wins and
// both callers read it back through the cache.
func (f *DynamicWireFactory) bindingFor(componentType reflect.Type, memberName string) (*wireBinding, error) {
	key := componentType.String() + "|" + memberName

	f.mu.RLock()
	binding, ok := f.bindings[key]
	f.mu.RUnlock()
	if ok {
		return binding, nil
	}

	built, err := buildBinding(componentType, memberName)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.bindings[key]; ok {
		// Another caller inserted first; discard our synthesis.
		return existing, nil
	}
	f.bindings[key] = built
	return built, nil
}

// buildBinding resolves the member on the component type and derives the
// handler signature the wire must mirror.
func buildBinding(componentType reflect.Type, memberName string) (*wireBinding, error) {
	structType := componentType
	if structType.Kind() == reflect.Ptr {
		structType = structType.Elem()
	}
	if structType.Kind() != reflect.Struct {
		return nil, errors.WrapInvalidArgument(
			fmt.Errorf("component type %s is not a struct type", componentType),
			"DynamicWireFactory", "buildBinding", "component type check")
	}

	field, ok := structType.FieldByName(memberName)
	if !ok {
		return nil, errors.WrapInvalidArgument(
			fmt.Errorf("member %q: %w", memberName, errors.ErrMemberNotFound),
			"DynamicWireFactory", "buildBinding", "member lookup")
	}

	switch {
	case field.Type.Implements(binderType):
		// Event slot fields are pointers; a zero slot is enough to read
		// the handler type off the type parameter.
		zero := reflect.New(field.Type.Elem()).Interface().(eventBinder)
		return &wireBinding{
			memberName: memberName,
			isEvent:    true,
			fieldIndex: field.Index,
			signature:  zero.HandlerType(),
		}, nil
	case field.Type.Kind() == reflect.Func:
		return &wireBinding{
			memberName: memberName,
			fieldIndex: field.Index,
			signature:  field.Type,
		}, nil
	default:
		return nil, errors.WrapInvalidArgument(
			fmt.Errorf("member %q is neither an event slot nor a func-typed field", memberName),
			"DynamicWireFactory", "buildBinding", "member kind check")
	}
}
