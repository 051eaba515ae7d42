package dispatch

import (
	"sync"

	"github.com/google/uuid"

	"github.com/zyanfx/zyango/wiring"
)

// BeforeInvokeEvent is delivered synchronously to before-invoke
// subscribers. A subscriber may veto the call via Cancel; the dispatcher
// then raises a canceled-invocation error and never touches the component.
type BeforeInvokeEvent struct {
	TrackingID     uuid.UUID
	InterfaceName  string
	MethodName     string
	Args           []any
	CorrelationSet []wiring.CorrelationInfo

	Canceled    bool
	CancelError error
}

// Cancel vetoes the call. A nil err keeps the dispatcher's default
// canceled-invocation error.
func (e *BeforeInvokeEvent) Cancel(err error) {
	e.Canceled = true
	e.CancelError = err
}

// AfterInvokeEvent is delivered synchronously to after-invoke subscribers
// once a call completed successfully.
type AfterInvokeEvent struct {
	TrackingID     uuid.UUID
	InterfaceName  string
	MethodName     string
	Args           []any
	CorrelationSet []wiring.CorrelationInfo
	ReturnValue    any
}

// CanceledEvent is the unified failure-visibility notification: every call
// that terminates early, for whatever reason, is reported here exactly
// once with the causing error before it propagates.
type CanceledEvent struct {
	TrackingID    uuid.UUID
	InterfaceName string
	MethodName    string
	Err           error
}

// hookSet holds the dispatcher's synchronous subscriber lists. Invocation
// iterates a snapshot, so subscribing during a delivery is safe.
type hookSet struct {
	mu       sync.RWMutex
	before   []func(*BeforeInvokeEvent)
	after    []func(AfterInvokeEvent)
	canceled []func(CanceledEvent)
}

func (h *hookSet) subscribeBefore(fn func(*BeforeInvokeEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = append(h.before, fn)
}

func (h *hookSet) subscribeAfter(fn func(AfterInvokeEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.after = append(h.after, fn)
}

func (h *hookSet) subscribeCanceled(fn func(CanceledEvent)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.canceled = append(h.canceled, fn)
}

func (h *hookSet) hasBefore() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.before) > 0
}

func (h *hookSet) notifyBefore(event *BeforeInvokeEvent) {
	h.mu.RLock()
	snapshot := make([]func(*BeforeInvokeEvent), len(h.before))
	copy(snapshot, h.before)
	h.mu.RUnlock()

	for _, fn := range snapshot {
		fn(event)
	}
}

func (h *hookSet) notifyAfter(event AfterInvokeEvent) {
	h.mu.RLock()
	snapshot := make([]func(AfterInvokeEvent), len(h.after))
	copy(snapshot, h.after)
	h.mu.RUnlock()

	for _, fn := range snapshot {
		fn(event)
	}
}

func (h *hookSet) notifyCanceled(event CanceledEvent) {
	h.mu.RLock()
	snapshot := make([]func(CanceledEvent), len(h.canceled))
	copy(snapshot, h.canceled)
	h.mu.RUnlock()

	for _, fn := range snapshot {
		fn(event)
	}
}
