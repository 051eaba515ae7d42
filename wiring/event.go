package wiring

import (
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/errors"
)

// eventBinder is the reflection-facing surface of an event slot. The wire
// factory resolves event members through this interface without knowing
// the handler type parameter.
type eventBinder interface {
	HandlerType() reflect.Type
	attachValue(id uuid.UUID, handler reflect.Value) error
	detachValue(id uuid.UUID)
	attachedValue(id uuid.UUID) bool
}

// EventSlot is a multicast event member with add/remove semantics. Server
// components expose events as exported *EventSlot fields; T is the handler
// func type, for example:
//
//	type chatService struct {
//	    MessageReceived *wiring.EventSlot[func(sender, text string)]
//	}
//
// Handlers are keyed by correlation id and invoked in attach order. A zero
// slot is not usable; construct with NewEventSlot.
type EventSlot[T any] struct {
	mu       sync.Mutex
	order    []uuid.UUID
	handlers map[uuid.UUID]T
}

// NewEventSlot creates an event slot for handler type T. Panics if T is
// not a func type; a non-func handler type is a programming error caught
// at component construction.
func NewEventSlot[T any]() *EventSlot[T] {
	if reflect.TypeOf((*T)(nil)).Elem().Kind() != reflect.Func {
		panic("wiring: EventSlot handler type must be a func type")
	}
	return &EventSlot[T]{handlers: make(map[uuid.UUID]T)}
}

// HandlerType returns the reflect type of T.
func (s *EventSlot[T]) HandlerType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Add attaches a handler under the given correlation id. Re-adding an id
// replaces the previous handler without changing its position.
func (s *EventSlot[T]) Add(id uuid.UUID, handler T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[id]; !exists {
		s.order = append(s.order, id)
	}
	s.handlers[id] = handler
}

// Remove detaches the handler for the correlation id. Removing an absent
// id is a no-op.
func (s *EventSlot[T]) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.handlers[id]; !exists {
		return
	}
	delete(s.handlers, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Attached reports whether a handler is attached under the id.
func (s *EventSlot[T]) Attached(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.handlers[id]
	return exists
}

// Len returns the number of attached handlers.
func (s *EventSlot[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

// Handlers returns a snapshot of the attached handlers in attach order.
// Raising through the snapshot is safe while handlers attach and detach
// concurrently.
func (s *EventSlot[T]) Handlers() []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]T, 0, len(s.order))
	for _, id := range s.order {
		snapshot = append(snapshot, s.handlers[id])
	}
	return snapshot
}

// Raise invokes every attached handler in attach order with the given
// arguments. Invocation stops at the first handler returning a non-nil
// error. Components with a concrete handler type may prefer iterating
// Handlers() and calling handlers directly.
func (s *EventSlot[T]) Raise(args ...any) error {
	handlerType := s.HandlerType()
	for _, handler := range s.Handlers() {
		in, err := convertArgs(handlerType, args)
		if err != nil {
			return errors.Wrap(err, "EventSlot", "Raise", "argument conversion")
		}
		if _, err := splitResults(handlerType, reflect.ValueOf(handler).Call(in)); err != nil {
			return err
		}
	}
	return nil
}

// attachValue attaches a reflectively built handler. Used by wire
// instances, whose generated functions carry the exact handler type.
func (s *EventSlot[T]) attachValue(id uuid.UUID, handler reflect.Value) error {
	typed, ok := handler.Interface().(T)
	if !ok {
		return errors.WrapInvalidArgument(
			errors.New("handler does not match event handler type"),
			"EventSlot", "attachValue", "handler type check")
	}
	s.Add(id, typed)
	return nil
}

func (s *EventSlot[T]) detachValue(id uuid.UUID) {
	s.Remove(id)
}

func (s *EventSlot[T]) attachedValue(id uuid.UUID) bool {
	return s.Attached(id)
}
