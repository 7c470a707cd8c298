// Package exitcode maps run outcomes to process exit codes.
//
// The mapping is driven by the typed error taxonomy, never by inspecting
// error message text.
package exitcode

import (
	"os"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// SuiteError indicates the test suite could not be loaded or parsed
	SuiteError = 3

	// EnvError indicates the environment reset failed before the run
	EnvError = 4

	// ProcessError indicates a submission process could not be managed
	ProcessError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the run was cancelled by the user
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode returns the exit code for an error based on its
// taxonomy category.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	switch errors.CategoryOf(err) {
	case errors.CategoryNone:
		return Success
	case errors.CategorySuite, errors.CategoryParse:
		return SuiteError
	case errors.CategoryEnv:
		return EnvError
	case errors.CategoryProcess:
		return ProcessError
	case errors.CategoryNetwork:
		return NetworkError
	case errors.CategoryTimeout:
		return Interrupted
	default:
		return GeneralError
	}
}
