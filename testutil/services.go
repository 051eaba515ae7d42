package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zyanfx/zyango/wiring"
)

// Calculator is the interface published by the calculator fixture.
type Calculator interface {
	AddNumbers(a, b float64) (float64, error)
	Divide(a, b float64) (float64, error)
}

// CalculatorService is a stateless sample component. CallCount lets tests
// distinguish a fresh instance from a reused one.
type CalculatorService struct {
	callCount int64
}

// NewCalculatorService creates a calculator fixture.
func NewCalculatorService() *CalculatorService {
	return &CalculatorService{}
}

// AddNumbers returns the sum of both operands.
func (s *CalculatorService) AddNumbers(a, b float64) (float64, error) {
	atomic.AddInt64(&s.callCount, 1)
	return a + b, nil
}

// Divide returns a/b, failing on a zero divisor.
func (s *CalculatorService) Divide(a, b float64) (float64, error) {
	atomic.AddInt64(&s.callCount, 1)
	if b == 0 {
		return 0, fmt.Errorf("division by zero")
	}
	return a / b, nil
}

// CallCount returns how many calls this instance has served.
func (s *CalculatorService) CallCount() int64 {
	return atomic.LoadInt64(&s.callCount)
}

// Chat is the interface published by the chat fixture.
type Chat interface {
	SendMessage(nickname, text string) error
}

// ChatService is a sample component exposing a broadcast event.
type ChatService struct {
	MessageReceived *wiring.EventSlot[func(nickname, text string)]
}

// NewChatService creates a chat fixture with an empty event slot.
func NewChatService() *ChatService {
	return &ChatService{
		MessageReceived: wiring.NewEventSlot[func(nickname, text string)](),
	}
}

// SendMessage broadcasts the message to every attached handler.
func (s *ChatService) SendMessage(nickname, text string) error {
	return s.MessageReceived.Raise(nickname, text)
}

// Reporter is the interface published by the progress fixture.
type Reporter interface {
	RunTask(ctx context.Context, steps int, progress func(step int)) error
}

// ReporterService is a sample component taking a delegate parameter.
type ReporterService struct{}

// NewReporterService creates a reporter fixture.
func NewReporterService() *ReporterService {
	return &ReporterService{}
}

// RunTask invokes the progress delegate once per step.
func (s *ReporterService) RunTask(ctx context.Context, steps int, progress func(step int)) error {
	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if progress != nil {
			progress(i)
		}
	}
	return nil
}

// Greeter is a minimal interface for disposal and activation tests.
type Greeter interface {
	Greet(name string) string
}

// GreeterService tracks disposal so tests can assert catalog ownership.
type GreeterService struct {
	mu       sync.Mutex
	disposed bool
}

// NewGreeterService creates a greeter fixture.
func NewGreeterService() *GreeterService {
	return &GreeterService{}
}

// Greet returns a greeting.
func (s *GreeterService) Greet(name string) string {
	return "Hello, " + name
}

// Dispose marks the instance as disposed.
func (s *GreeterService) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

// Disposed reports whether Dispose ran.
func (s *GreeterService) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// PanickyService panics on every call, for pipeline panic tests.
type PanickyService struct{}

// Explode always panics.
func (PanickyService) Explode() {
	panic("component blew up")
}

// Panicky is the interface published by PanickyService.
type Panicky interface {
	Explode()
}
