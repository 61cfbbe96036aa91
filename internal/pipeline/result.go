package pipeline

import (
	"time"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

// OutputPath records which branch produced a successful image.
type OutputPath string

const (
	PathModel    OutputPath = "model"
	PathFallback OutputPath = "fallback"
)

// Success is a processed image plus how it was made.
type Success struct {
	Image          *imaging.Image
	InferenceTime  time.Duration
	DeviceLabel    string
	ProcessorLabel string
	Path           OutputPath
	// FallbackKind is the error kind that forced the fallback; zero on the
	// model path.
	FallbackKind Kind
}

// Failure is a rejected input.
type Failure struct {
	Message string
	Cause   error
}

// Result holds exactly one of Success or Failure.
type Result struct {
	Success *Success
	Failure *Failure
}

// OK reports whether the result is a success.
func (r Result) OK() bool { return r.Success != nil }

// Err returns the failure as an error, or nil on success.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	if r.Failure.Cause != nil {
		return r.Failure.Cause
	}
	return &Error{Kind: InvalidInput, Op: "process"}
}
