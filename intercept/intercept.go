// Package intercept provides client-side call interception: outgoing calls
// are pattern-matched against registered interceptors before they reach
// the dispatcher, and a matched interceptor may short-circuit the call,
// substitute its result, or let the real call proceed and transform it.
package intercept

import (
	"reflect"
	"sync"
)

// MemberKind identifies which kind of member an interceptor targets
type MemberKind int

const (
	// MemberMethod targets ordinary method calls
	MemberMethod MemberKind = iota
	// MemberEvent targets event subscribe/unsubscribe calls
	MemberEvent
	// MemberDelegate targets delegate-typed member access
	MemberDelegate
)

// String returns the string representation of MemberKind
func (k MemberKind) String() string {
	switch k {
	case MemberMethod:
		return "method"
	case MemberEvent:
		return "event"
	case MemberDelegate:
		return "delegate"
	default:
		return "unknown"
	}
}

// CallData is handed to an interceptor action. The action may inspect and
// rewrite Args, set ReturnValue and Intercepted to suppress the real call,
// or invoke MakeRemoteCall to execute the real call anyway and transform
// its result.
type CallData struct {
	// Args are the call arguments; mutations are visible to the real call.
	Args []any

	// ReturnValue is the substituted (or transformed) result.
	ReturnValue any

	// Intercepted suppresses the real remote call when true.
	Intercepted bool

	remoteCall func(args []any) (any, error)
}

// NewCallData builds interception data around the real call. remoteCall
// may be nil when no escape hatch should be offered.
func NewCallData(args []any, remoteCall func(args []any) (any, error)) *CallData {
	return &CallData{Args: args, remoteCall: remoteCall}
}

// MakeRemoteCall executes the real remote call with the (possibly rewritten)
// arguments, records its result in ReturnValue, and marks the call
// intercepted so the proxy does not dispatch it a second time.
func (d *CallData) MakeRemoteCall() (any, error) {
	if d.remoteCall == nil {
		return nil, nil
	}
	result, err := d.remoteCall(d.Args)
	if err != nil {
		return nil, err
	}
	d.ReturnValue = result
	d.Intercepted = true
	return result, nil
}

// Action is the interceptor logic invoked on a matched call.
type Action func(data *CallData)

// CallInterceptor matches outgoing calls on the full coordinate
// (interface type, unique component name, member kind, member name, exact
// parameter type list). All coordinates must match for interception.
// An empty UniqueName targets components published under the default name
// of the interface type (its fully qualified name).
type CallInterceptor struct {
	InterfaceType  reflect.Type
	UniqueName     string
	MemberKind     MemberKind
	MemberName     string
	ParamTypes     []reflect.Type
	OnInterception Action

	// Enabled gates this interceptor individually.
	Enabled bool
}

// DefaultUniqueName returns the default published name of an interface
// type: its fully qualified name.
func DefaultUniqueName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// NewCallInterceptor creates an enabled interceptor for the coordinate.
// An empty uniqueName is resolved to the interface type's default name.
func NewCallInterceptor(
	interfaceType reflect.Type, uniqueName string, kind MemberKind,
	memberName string, paramTypes []reflect.Type, action Action,
) *CallInterceptor {
	if uniqueName == "" {
		uniqueName = DefaultUniqueName(interfaceType)
	}
	return &CallInterceptor{
		InterfaceType:  interfaceType,
		UniqueName:     uniqueName,
		MemberKind:     kind,
		MemberName:     memberName,
		ParamTypes:     paramTypes,
		OnInterception: action,
		Enabled:        true,
	}
}

// Matches reports whether the interceptor applies to the call coordinate.
func (ci *CallInterceptor) Matches(
	interfaceType reflect.Type, uniqueName string, kind MemberKind,
	memberName string, paramTypes []reflect.Type,
) bool {
	name := ci.UniqueName
	if name == "" {
		name = DefaultUniqueName(ci.InterfaceType)
	}
	if ci.InterfaceType != interfaceType ||
		name != uniqueName ||
		ci.MemberKind != kind ||
		ci.MemberName != memberName {
		return false
	}
	if len(ci.ParamTypes) != len(paramTypes) {
		return false
	}
	for i, paramType := range ci.ParamTypes {
		if paramType != paramTypes[i] {
			return false
		}
	}
	return true
}

// CallInterceptorCollection is an ordered, thread-safe interceptor
// registry. Lookup takes a snapshot under a read lock, so matching is safe
// while other goroutines add or remove interceptors.
type CallInterceptorCollection struct {
	mu           sync.RWMutex
	interceptors []*CallInterceptor
	enabled      bool
}

// NewCallInterceptorCollection creates an empty, enabled collection.
func NewCallInterceptorCollection() *CallInterceptorCollection {
	return &CallInterceptorCollection{enabled: true}
}

// Add appends an interceptor; registration order is match priority.
func (c *CallInterceptorCollection) Add(interceptor *CallInterceptor) {
	if interceptor == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, interceptor)
}

// Remove removes an interceptor by identity.
func (c *CallInterceptorCollection) Remove(interceptor *CallInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.interceptors {
		if existing == interceptor {
			c.interceptors = append(c.interceptors[:i], c.interceptors[i+1:]...)
			return
		}
	}
}

// Clear removes all interceptors.
func (c *CallInterceptorCollection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = nil
}

// Len returns the number of registered interceptors.
func (c *CallInterceptorCollection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.interceptors)
}

// Enabled reports whether interception is globally enabled.
func (c *CallInterceptorCollection) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// SetEnabled toggles interception globally without touching registrations.
func (c *CallInterceptorCollection) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = enabled
}

// FindMatchingInterceptor returns the first enabled interceptor matching
// the call coordinate in registration order, or nil.
func (c *CallInterceptorCollection) FindMatchingInterceptor(
	interfaceType reflect.Type, uniqueName string, kind MemberKind,
	memberName string, paramTypes []reflect.Type,
) *CallInterceptor {
	c.mu.RLock()
	if !c.enabled {
		c.mu.RUnlock()
		return nil
	}
	snapshot := make([]*CallInterceptor, len(c.interceptors))
	copy(snapshot, c.interceptors)
	c.mu.RUnlock()

	for _, interceptor := range snapshot {
		if interceptor.Enabled &&
			interceptor.Matches(interfaceType, uniqueName, kind, memberName, paramTypes) {
			return interceptor
		}
	}
	return nil
}
