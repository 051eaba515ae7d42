// Package catalog owns the published component registry of a host: the
// name to registration map, instance activation per policy, and instance
// cleanup. Registrations separate naming from lifetime - removing a name
// never destroys a live instance.
package catalog

import (
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/wiring"
)

// ActivationType selects the instance policy for a registered component
type ActivationType int

const (
	// ActivationSingleCall constructs a fresh instance for every call
	ActivationSingleCall ActivationType = iota
	// ActivationSingleton constructs one instance lazily and reuses it
	ActivationSingleton
)

// String returns the string representation of ActivationType
func (a ActivationType) String() string {
	switch a {
	case ActivationSingleCall:
		return "single_call"
	case ActivationSingleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// Factory creates a component instance. Factories run on the calling
// goroutine of the dispatch pipeline and must not block on I/O.
type Factory func() any

// CleanupHandler is an externally supplied teardown callback. When present
// it is the exclusive cleanup mechanism for the instance; the catalog never
// additionally invokes the instance's own disposal capability.
type CleanupHandler func(instance any)

// Disposable is the disposal capability the catalog recognizes on
// instances it owns. io.Closer is recognized as well.
type Disposable interface {
	Dispose()
}

// Registration describes one published component: its interface, creation
// strategy, activation policy, lifecycle hooks, and the event wirings that
// outlive single calls on singleton components.
type Registration struct {
	uniqueName         string
	interfaceType      reflect.Type
	implementationType reflect.Type
	initializer        Factory
	activation         ActivationType
	cleanupHandler     CleanupHandler
	disposeWithCatalog bool

	// singleton holds the lazily created singleton instance. Reads are
	// lock-free; creation and clearing happen under mu.
	singleton atomic.Value // of singletonBox

	// mu guards singleton mutation, cleanup, and eventWirings.
	mu           sync.Mutex
	eventWirings map[uuid.UUID]*wiring.Wire
}

// singletonBox wraps the instance so atomic.Value always stores one
// consistent concrete type.
type singletonBox struct {
	instance any
}

// UniqueName returns the catalog key of the registration.
func (r *Registration) UniqueName() string {
	return r.uniqueName
}

// InterfaceType returns the published interface type.
func (r *Registration) InterfaceType() reflect.Type {
	return r.interfaceType
}

// ImplementationType returns the concrete implementation type, or nil when
// the registration uses a factory or pre-built instance.
func (r *Registration) ImplementationType() reflect.Type {
	return r.implementationType
}

// Activation returns the activation policy.
func (r *Registration) Activation() ActivationType {
	return r.activation
}

// DisposeWithCatalog reports whether the catalog owns instance teardown.
// False for externally supplied instances registered without a cleanup
// handler; those are never destroyed by the catalog.
func (r *Registration) DisposeWithCatalog() bool {
	return r.disposeWithCatalog
}

// SingletonInstance returns the live singleton instance, or nil before
// first activation or after catalog disposal.
func (r *Registration) SingletonInstance() any {
	if box, ok := r.singleton.Load().(singletonBox); ok {
		return box.instance
	}
	return nil
}

func (r *Registration) storeSingleton(instance any) {
	r.singleton.Store(singletonBox{instance: instance})
}

func (r *Registration) clearSingleton() {
	r.singleton.Store(singletonBox{})
}

// AddEventWiring persists a wire under its correlation id. Used for
// singleton components, whose event subscriptions must survive across
// calls.
func (r *Registration) AddEventWiring(w *wiring.Wire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventWirings == nil {
		r.eventWirings = make(map[uuid.UUID]*wiring.Wire)
	}
	r.eventWirings[w.CorrelationID()] = w
}

// RemoveEventWiring removes and returns the wire persisted under the
// correlation id.
func (r *Registration) RemoveEventWiring(id uuid.UUID) (*wiring.Wire, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.eventWirings[id]
	if ok {
		delete(r.eventWirings, id)
	}
	return w, ok
}

// EventWiring returns the wire persisted under the correlation id.
func (r *Registration) EventWiring(id uuid.UUID) (*wiring.Wire, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.eventWirings[id]
	return w, ok
}

// EventWiringCount returns the number of persisted event wirings.
func (r *Registration) EventWiringCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.eventWirings)
}

// drainEventWirings removes and returns all persisted wirings. Called on
// catalog disposal so stale wires detach from the singleton instance.
func (r *Registration) drainEventWirings() []*wiring.Wire {
	r.mu.Lock()
	defer r.mu.Unlock()

	wires := make([]*wiring.Wire, 0, len(r.eventWirings))
	for _, w := range r.eventWirings {
		wires = append(wires, w)
	}
	r.eventWirings = nil
	return wires
}
