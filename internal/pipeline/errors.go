package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error. Only InvalidInput surfaces to callers;
// every other kind is absorbed by the fallback transform.
type Kind int

const (
	InvalidInput Kind = iota + 1
	ModelUnavailable
	InferenceFailure
	UnusableOutput
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case ModelUnavailable:
		return "model_unavailable"
	case InferenceFailure:
		return "inference_failure"
	case UnusableOutput:
		return "unusable_output"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure. Op names the stage.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error with the same Kind, so errors.Is(err,
// &Error{Kind: UnusableOutput}) works without caring about Op or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf extracts the Kind of err, or 0 when err is not a pipeline error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
