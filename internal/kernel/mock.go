// internal/kernel/mock.go
package kernel

import (
	"fmt"
	"sync"
)

// Mock is a deterministic Kernel for tests. By default it returns x*scale for
// every sample. It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Fn computes one output sample; nil means x*scale.
	Fn func(x, scale float32) float32
	// ShouldError if true, Transform returns an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// ShouldPanic if true, Transform panics instead of returning
	ShouldPanic bool
	// DropLast if true, Transform returns one sample fewer than it received
	DropLast bool

	calls int
}

// NewMock creates a Mock computing x*scale.
func NewMock() *Mock {
	return &Mock{}
}

// NewMockWithFunc creates a Mock computing fn for every sample.
func NewMockWithFunc(fn func(x, scale float32) float32) *Mock {
	return &Mock{Fn: fn}
}

// Transform applies Fn (or x*scale) to every sample.
func (m *Mock) Transform(samples []float32, scale float32) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	fn, shouldErr, msg, shouldPanic, dropLast := m.Fn, m.ShouldError, m.ErrorMessage, m.ShouldPanic, m.DropLast
	m.mu.Unlock()

	if shouldPanic {
		panic("mock kernel fault")
	}
	if shouldErr {
		if msg != "" {
			return nil, fmt.Errorf("%s", msg)
		}
		return nil, fmt.Errorf("mock kernel error")
	}
	if fn == nil {
		fn = func(x, s float32) float32 { return x * s }
	}

	out := make([]float32, len(samples))
	for i, x := range samples {
		out[i] = fn(x, scale)
	}
	if dropLast && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Calls returns how many times Transform ran.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// SetError configures the mock to return an error on subsequent calls
func (m *Mock) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *Mock) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

// Ensure Mock implements Kernel at compile time
var _ Kernel = (*Mock)(nil)
