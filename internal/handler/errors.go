// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

var errNotInitialized = errors.New("processor not initialized")

// grpcError maps handler and pipeline errors to gRPC status errors
func grpcError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, errNotInitialized):
		return status.Errorf(codes.FailedPrecondition, "%v", err)

	case pipeline.KindOf(err) == pipeline.InvalidInput:
		return status.Errorf(codes.InvalidArgument, "invalid image: %v", err)

	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

// httpStatus is the HTTP counterpart of grpcError.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, errNotInitialized):
		return http.StatusServiceUnavailable
	case pipeline.KindOf(err) == pipeline.InvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// invalidArgumentError creates an InvalidArgument gRPC error
func invalidArgumentError(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}
