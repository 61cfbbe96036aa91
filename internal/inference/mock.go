package inference

import (
	"fmt"
	"sync"

	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

// MockInference is a mock implementation of Engine for testing.
// It echoes its input (or returns a fixed Output) without requiring the ONNX
// shared library.
type MockInference struct {
	mu sync.Mutex

	// Output, when set, is returned for every call instead of the input.
	Output *tensor.Tensor
	// ShouldError if true, Infer will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string
	// CallCount tracks the number of times Infer was called
	CallCount int
	// Closed is set once Close has been called
	Closed bool
}

// NewMock creates an identity MockInference.
func NewMock() *MockInference {
	return &MockInference{}
}

// NewMockWithOutput creates a MockInference that always returns out.
func NewMockWithOutput(out tensor.Tensor) *MockInference {
	return &MockInference{Output: &out}
}

// Infer returns the configured output, or a copy of in.
func (m *MockInference) Infer(in tensor.Tensor) (tensor.Tensor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallCount++

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return tensor.Tensor{}, fmt.Errorf("%s", m.ErrorMessage)
		}
		return tensor.Tensor{}, fmt.Errorf("mock inference error")
	}
	if m.Output != nil {
		return *m.Output, nil
	}

	return tensor.New(in.Shape(), in.Data())
}

// Close marks the mock closed.
func (m *MockInference) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// SetError configures the mock to return an error on the next Infer call
func (m *MockInference) SetError(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *MockInference) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Calls returns CallCount under the lock.
func (m *MockInference) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Ensure MockInference implements Engine at compile time
var _ Engine = (*MockInference)(nil)
