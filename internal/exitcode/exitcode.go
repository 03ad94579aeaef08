package exitcode

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/blueprint/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationFailed indicates the blueprint could not be parsed or validated
	ValidationFailed = 3

	// ExecutionFailed indicates a step or verification failed during a run
	ExecutionFailed = 4

	// TimedOut indicates the run exceeded its execution time budget
	TimedOut = 5

	// AIFailure indicates an AI provider request failed
	AIFailure = 6

	// Interrupted indicates the run was cancelled, typically by Ctrl-C
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	if err == nil {
		Exit(Success)
		return
	}

	code := DetermineExitCode(err)
	Exit(code)
}

// DetermineExitCode analyzes an error and returns the appropriate exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if stderrors.Is(err, context.Canceled) {
		return Interrupted
	}

	switch errors.KindOf(err) {
	case errors.KindInvalidBlueprint:
		return ValidationFailed
	case errors.KindCommandFailed, errors.KindBuildFailed, errors.KindTestFailed,
		errors.KindFileNotFound, errors.KindPermissionDenied:
		return ExecutionFailed
	case errors.KindTimeout:
		return TimedOut
	case errors.KindAI:
		return AIFailure
	case errors.KindAlreadyRunning:
		return GeneralError
	}

	// Cobra reports flag and argument mistakes as plain errors
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unknown command") || strings.Contains(msg, "unknown flag") {
		return UsageError
	}
	if strings.Contains(msg, "required flag") || strings.Contains(msg, "invalid argument") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags or arguments)"
	case ValidationFailed:
		return "Blueprint validation failed"
	case ExecutionFailed:
		return "Blueprint execution failed"
	case TimedOut:
		return "Execution time budget exceeded"
	case AIFailure:
		return "AI provider request failed"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
