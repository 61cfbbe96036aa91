// Package inference owns the model: the asset cache that materializes the
// model file, the Engine implementations that run it and the Handle the
// pipeline holds on to.
package inference

import (
	"errors"

	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

// ErrModelUnavailable is returned by a Handle that never loaded a model or
// has been closed.
var ErrModelUnavailable = errors.New("inference: model unavailable")

// Engine defines the interface for running a model forward pass.
// This abstraction allows for easy mocking in tests and swapping implementations.
type Engine interface {
	// Infer runs the model on in and returns its first output. It must not
	// modify in.
	Infer(in tensor.Tensor) (tensor.Tensor, error)

	// Close releases any resources held by the engine.
	Close() error
}
