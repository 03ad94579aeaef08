package exitcode

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/blueprint/internal/errors"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"ValidationFailed", ValidationFailed, 3},
		{"ExecutionFailed", ExecutionFailed, 4},
		{"TimedOut", TimedOut, 5},
		{"AIFailure", AIFailure, 6},
		{"Interrupted", Interrupted, 130},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "invalid blueprint",
			err:      errors.NewInvalidBlueprintError("phase has no steps"),
			expected: ValidationFailed,
		},
		{
			name:     "blueprint parse failure",
			err:      errors.NewBlueprintParseError("deploy.yaml", stderrors.New("bad yaml")),
			expected: ValidationFailed,
		},
		{
			name:     "command failed",
			err:      errors.NewCommandFailedError("make build", 2),
			expected: ExecutionFailed,
		},
		{
			name:     "build failed",
			err:      errors.NewBuildFailedError(3),
			expected: ExecutionFailed,
		},
		{
			name:     "tests failed",
			err:      errors.NewTestFailedError(1),
			expected: ExecutionFailed,
		},
		{
			name:     "file not found",
			err:      errors.NewFileNotFoundError("src/main.go"),
			expected: ExecutionFailed,
		},
		{
			name:     "permission denied",
			err:      errors.NewPermissionDeniedError("/etc/passwd"),
			expected: ExecutionFailed,
		},
		{
			name:     "time budget exceeded",
			err:      errors.NewTimeoutError(0),
			expected: TimedOut,
		},
		{
			name:     "ai provider failure",
			err:      errors.NewAIError("generate handler", stderrors.New("rate limited")),
			expected: AIFailure,
		},
		{
			name:     "already running",
			err:      errors.NewAlreadyRunningError(),
			expected: GeneralError,
		},
		{
			name:     "kind survives wrapping",
			err:      fmt.Errorf("run failed: %w", errors.NewCommandFailedError("go vet ./...", 1)),
			expected: ExecutionFailed,
		},
		{
			name:     "cancelled run",
			err:      context.Canceled,
			expected: Interrupted,
		},
		{
			name:     "cancellation survives wrapping",
			err:      fmt.Errorf("run stopped: %w", context.Canceled),
			expected: Interrupted,
		},
		{
			name:     "unknown command",
			err:      stderrors.New(`unknown command "deploy" for "blueprint"`),
			expected: UsageError,
		},
		{
			name:     "unknown flag",
			err:      stderrors.New("unknown flag: --bar"),
			expected: UsageError,
		},
		{
			name:     "required flag",
			err:      stderrors.New(`required flag(s) "file" not set`),
			expected: UsageError,
		},
		{
			name:     "invalid argument",
			err:      stderrors.New(`invalid argument "x" for "--max-retries"`),
			expected: UsageError,
		},
		{
			name:     "generic error",
			err:      stderrors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := DetermineExitCode(tt.err)
			if code != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode_KindBeatsMessage(t *testing.T) {
	// A structured error mentioning "unknown flag" still classifies by kind
	err := errors.New(errors.KindCommandFailed, "script rejected unknown flag --fast")

	if code := DetermineExitCode(err); code != ExecutionFailed {
		t.Errorf("DetermineExitCode() = %d, want %d", code, ExecutionFailed)
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{UsageError, "Usage error (invalid flags or arguments)"},
		{ValidationFailed, "Blueprint validation failed"},
		{ExecutionFailed, "Blueprint execution failed"},
		{TimedOut, "Execution time budget exceeded"},
		{AIFailure, "AI provider request failed"},
		{Interrupted, "Interrupted"},
		{99, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := GetExitCodeDescription(tt.code)
			if result != tt.expected {
				t.Errorf("GetExitCodeDescription(%d) = %s, want %s", tt.code, result, tt.expected)
			}
		})
	}
}
