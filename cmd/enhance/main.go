// Command enhance runs the enhancement pipeline over local files, benchmarks
// it, or sends images to a running enhance-service.
//
// Configuration follows the server: defaults, an optional config file,
// ENHANCE_SERVICE_* environment variables, then flags.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

// CLI exit codes for standardized error reporting.
const (
	// ExitSuccess indicates the operation completed successfully.
	ExitSuccess = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError = 1

	// ExitInvalidInput indicates an input image was rejected.
	ExitInvalidInput = 2
)

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFromError(err))
	}
	os.Exit(ExitSuccess)
}

func exitCodeFromError(err error) int {
	if errors.Is(err, &pipeline.Error{Kind: pipeline.InvalidInput}) {
		return ExitInvalidInput
	}
	return ExitGeneralError
}
