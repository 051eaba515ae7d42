package wiring

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// messageSlot keeps the generic instantiation readable in fixtures.
type messageSlot = EventSlot[func(nickname, text string)]

// chatRoom is the test component: one event slot and one delegate field.
type chatRoom struct {
	MessageReceived *messageSlot
	OnClosed        func(reason string) error
}

func newChatRoom() *chatRoom {
	return &chatRoom{
		MessageReceived: NewEventSlot[func(nickname, text string)](),
	}
}

func recordingInterceptor(t *testing.T, calls *[][]any) *DelegateInterceptor {
	t.Helper()
	di, err := NewDelegateInterceptorFor(func(nickname, text string) {
		*calls = append(*calls, []any{nickname, text})
	})
	require.NoError(t, err)
	return di
}

func TestEventSlot_AddRemoveRaise(t *testing.T) {
	slot := NewEventSlot[func(nickname, text string)]()

	var got []string
	first := uuid.New()
	second := uuid.New()
	slot.Add(first, func(nickname, _ string) { got = append(got, "first:"+nickname) })
	slot.Add(second, func(nickname, _ string) { got = append(got, "second:"+nickname) })

	require.NoError(t, slot.Raise("alice", "hi"))
	assert.Equal(t, []string{"first:alice", "second:alice"}, got)

	slot.Remove(first)
	assert.False(t, slot.Attached(first))
	assert.Equal(t, 1, slot.Len())

	got = nil
	require.NoError(t, slot.Raise("bob", "yo"))
	assert.Equal(t, []string{"second:bob"}, got)
}

func TestEventSlot_ReAddKeepsPosition(t *testing.T) {
	slot := NewEventSlot[func(nickname, text string)]()

	var got []string
	first := uuid.New()
	second := uuid.New()
	slot.Add(first, func(string, string) { got = append(got, "first") })
	slot.Add(second, func(string, string) { got = append(got, "second") })

	// Replacing the first handler must not move it to the back.
	slot.Add(first, func(string, string) { got = append(got, "first-replaced") })

	require.NoError(t, slot.Raise("x", "y"))
	assert.Equal(t, []string{"first-replaced", "second"}, got)
	assert.Equal(t, 2, slot.Len())
}

func TestDelegateInterceptor_InvokeClientDelegate(t *testing.T) {
	var calls [][]any
	di := recordingInterceptor(t, &calls)

	_, err := di.InvokeClientDelegate("alice", "hello")
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"alice", "hello"}, calls[0])
}

func TestDelegateInterceptor_ResultAndError(t *testing.T) {
	di, err := NewDelegateInterceptorFor(func(n int) (int, error) {
		if n < 0 {
			return 0, fmt.Errorf("negative input")
		}
		return n * 2, nil
	})
	require.NoError(t, err)

	result, err := di.InvokeClientDelegate(21)
	require.NoError(t, err)
	assert.Equal(t, 42, result)

	_, err = di.InvokeClientDelegate(-1)
	assert.ErrorContains(t, err, "negative input")
}

func TestDynamicWireFactory_EventWireRoundTrip(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var calls [][]any
	correlation := CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "MessageReceived",
		IsEvent:            true,
		Interceptor:        recordingInterceptor(t, &calls),
	}

	w, err := factory.CreateWire(reflect.TypeOf(room), correlation)
	require.NoError(t, err)
	assert.True(t, w.IsEvent())
	assert.Equal(t, correlation.CorrelationID, w.CorrelationID())

	require.NoError(t, w.AttachTo(room))
	assert.True(t, w.Attached())
	assert.Equal(t, 1, room.MessageReceived.Len())

	require.NoError(t, room.MessageReceived.Raise("alice", "hello"))
	require.Len(t, calls, 1)
	assert.Equal(t, []any{"alice", "hello"}, calls[0])

	w.Detach()
	assert.False(t, w.Attached())
	assert.Equal(t, 0, room.MessageReceived.Len())
}

func TestDynamicWireFactory_DelegateWireRoundTrip(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var reasons []string
	di, err := NewDelegateInterceptorFor(func(reason string) error {
		reasons = append(reasons, reason)
		return nil
	})
	require.NoError(t, err)

	w, err := factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "OnClosed",
		Interceptor:        di,
	})
	require.NoError(t, err)
	assert.False(t, w.IsEvent())

	require.NoError(t, w.AttachTo(room))
	require.NotNil(t, room.OnClosed)
	require.NoError(t, room.OnClosed("shutdown"))
	assert.Equal(t, []string{"shutdown"}, reasons)

	w.Detach()
	assert.Nil(t, room.OnClosed)
}

func TestDynamicWireFactory_FaultedEventWireDetachesItself(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	di, err := NewDelegateInterceptorFor(func(nickname, text string) error {
		return fmt.Errorf("client unreachable")
	})
	require.NoError(t, err)

	w, err := factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "MessageReceived",
		IsEvent:            true,
		Interceptor:        di,
	})
	require.NoError(t, err)
	require.NoError(t, w.AttachTo(room))

	// The handler signature has no error channel, so the interceptor
	// failure surfaces as a panic at the raise site.
	assert.Panics(t, func() {
		_ = room.MessageReceived.Raise("alice", "hello")
	})

	// The faulted wire must have removed itself from the slot.
	assert.Equal(t, 0, room.MessageReceived.Len())
	assert.False(t, w.Attached())
	assert.NotPanics(t, func() {
		_ = room.MessageReceived.Raise("alice", "again")
	})
}

func TestDynamicWireFactory_BindingCacheIsDeterministic(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var calls [][]any
	for i := 0; i < 3; i++ {
		w, err := factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
			CorrelationID:      uuid.New(),
			DelegateMemberName: "MessageReceived",
			IsEvent:            true,
			Interceptor:        recordingInterceptor(t, &calls),
		})
		require.NoError(t, err)
		assert.Equal(t, room.MessageReceived.HandlerType(), w.Signature())
	}

	// Repeated synthesis for the same (type, member) reuses one binding.
	assert.Equal(t, 1, factory.BindingCount())
}

func TestDynamicWireFactory_ConcurrentSynthesisConverges(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var wg sync.WaitGroup
	wires := make([]*Wire, 16)
	for i := range wires {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			var calls [][]any
			di, err := NewDelegateInterceptorFor(func(nickname, text string) {
				calls = append(calls, []any{nickname, text})
			})
			if err != nil {
				return
			}
			wires[n], _ = factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
				CorrelationID:      uuid.New(),
				DelegateMemberName: "MessageReceived",
				IsEvent:            true,
				Interceptor:        di,
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, factory.BindingCount())
	for _, w := range wires {
		require.NotNil(t, w)
		assert.Equal(t, room.MessageReceived.HandlerType(), w.Signature())
	}
}

func TestDynamicWireFactory_MemberKindMismatch(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var calls [][]any
	_, err := factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "MessageReceived",
		IsEvent:            false, // wrong: MessageReceived is an event
		Interceptor:        recordingInterceptor(t, &calls),
	})
	assert.Error(t, err)
}

func TestDynamicWireFactory_UnknownMember(t *testing.T) {
	factory := NewDynamicWireFactory()
	room := newChatRoom()

	var calls [][]any
	_, err := factory.CreateWire(reflect.TypeOf(room), CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "NoSuchMember",
		IsEvent:            true,
		Interceptor:        recordingInterceptor(t, &calls),
	})
	assert.Error(t, err)
	assert.Equal(t, 0, factory.BindingCount(), "Failed synthesis must not populate the cache")
}

func TestDynamicWireFactory_CreateParamWire(t *testing.T) {
	factory := NewDynamicWireFactory()

	var steps []int
	di, err := NewDelegateInterceptorFor(func(step int) {
		steps = append(steps, step)
	})
	require.NoError(t, err)

	w, err := factory.CreateParamWire(reflect.TypeOf(func(int) {}), di)
	require.NoError(t, err)

	progress := w.Func().Interface().(func(int))
	progress(1)
	progress(2)
	assert.Equal(t, []int{1, 2}, steps)

	// Parameter wires are never cached.
	assert.Equal(t, 0, factory.BindingCount())
}
