// Package tensor converts between pipeline images and the flat float32
// tensors exchanged with the inference model.
package tensor

import (
	"errors"
	"fmt"
)

var (
	// ErrShapeMismatch indicates the value count does not match the shape.
	ErrShapeMismatch = errors.New("tensor: data length does not match shape")

	// ErrUnusableOutput indicates a model output that cannot be turned into
	// pixels: empty data or fewer than three dimensions.
	ErrUnusableOutput = errors.New("tensor: unusable output")
)

// Tensor is a flat float32 buffer with an explicit shape. Rank 3 and above
// is read as [batch, channel, height, width]. Values are copied on the way in
// and out, so a Tensor is never aliased by its callers.
type Tensor struct {
	data  []float32
	shape []int64
}

// New validates that len(data) equals the product of shape and copies both.
// Dimensions must be non-negative; a zero dimension gives an empty tensor,
// which model runtimes can legitimately return.
func New(shape []int64, data []float32) (Tensor, error) {
	if len(shape) == 0 {
		return Tensor{}, fmt.Errorf("%w: empty shape", ErrShapeMismatch)
	}

	n := int64(1)
	for i, d := range shape {
		if d < 0 {
			return Tensor{}, fmt.Errorf("%w: dimension %d is negative (%d)", ErrShapeMismatch, i, d)
		}
		n *= d
	}
	if n != int64(len(data)) {
		return Tensor{}, fmt.Errorf("%w: shape %v needs %d values, got %d", ErrShapeMismatch, shape, n, len(data))
	}

	return Tensor{
		data:  append([]float32(nil), data...),
		shape: append([]int64(nil), shape...),
	}, nil
}

// Shape returns a copy of the shape.
func (t Tensor) Shape() []int64 { return append([]int64(nil), t.shape...) }

// Data returns a copy of the values.
func (t Tensor) Data() []float32 { return append([]float32(nil), t.data...) }

// Rank is the number of dimensions.
func (t Tensor) Rank() int { return len(t.shape) }

// Len is the number of values.
func (t Tensor) Len() int { return len(t.data) }

// at returns the value at flat index i, or 0 when i is out of range.
func (t Tensor) at(i int) float32 {
	if i < 0 || i >= len(t.data) {
		return 0
	}
	return t.data[i]
}

func (t Tensor) String() string {
	return fmt.Sprintf("Tensor%v", t.shape)
}
