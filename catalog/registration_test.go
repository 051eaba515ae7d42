package catalog

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zyanfx/zyango/wiring"
)

type announcer struct {
	Announced *wiring.EventSlot[func(text string)]
}

func newAnnouncerWire(t *testing.T) *wiring.Wire {
	t.Helper()

	di, err := wiring.NewDelegateInterceptorFor(func(text string) {})
	require.NoError(t, err)

	instance := &announcer{Announced: wiring.NewEventSlot[func(text string)]()}
	w, err := wiring.NewDynamicWireFactory().CreateWire(reflect.TypeOf(instance), wiring.CorrelationInfo{
		CorrelationID:      uuid.New(),
		DelegateMemberName: "Announced",
		IsEvent:            true,
		Interceptor:        di,
	})
	require.NoError(t, err)
	return w
}

func TestRegistration_EventWiringBookkeeping(t *testing.T) {
	reg := &Registration{activation: ActivationSingleton}

	w := newAnnouncerWire(t)
	reg.AddEventWiring(w)
	assert.Equal(t, 1, reg.EventWiringCount())

	got, ok := reg.EventWiring(w.CorrelationID())
	require.True(t, ok)
	assert.Same(t, w, got)

	removed, ok := reg.RemoveEventWiring(w.CorrelationID())
	require.True(t, ok)
	assert.Same(t, w, removed)
	assert.Equal(t, 0, reg.EventWiringCount())

	_, ok = reg.RemoveEventWiring(w.CorrelationID())
	assert.False(t, ok, "Removing an unknown correlation is a reported no-op")
}

func TestActivationType_String(t *testing.T) {
	assert.Equal(t, "single_call", ActivationSingleCall.String())
	assert.Equal(t, "singleton", ActivationSingleton.String())
	assert.Equal(t, "unknown", ActivationType(42).String())
}
