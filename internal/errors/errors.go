package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind classifies what went wrong during blueprint execution
type Kind string

// Failure kinds
const (
	// Blueprint document failures
	KindInvalidBlueprint Kind = "invalid_blueprint"

	// Engine lifecycle failures
	KindAlreadyRunning Kind = "already_running"
	KindTimeout        Kind = "timeout"

	// Step failures
	KindCommandFailed    Kind = "command_failed"
	KindBuildFailed      Kind = "build_failed"
	KindTestFailed       Kind = "test_failed"
	KindFileNotFound     Kind = "file_not_found"
	KindPermissionDenied Kind = "permission_denied"
	KindAI               Kind = "ai_error"
)

// BlueprintError represents an enhanced error with kind, context, and suggestions
type BlueprintError struct {
	Kind        Kind
	Message     string
	Context     map[string]string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *BlueprintError) Error() string {
	var b strings.Builder

	// Kind and message
	b.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))

	// Add cause if present
	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	// Add suggestions
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	// Add documentation link
	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *BlueprintError) Unwrap() error {
	return e.Cause
}

// Is matches any BlueprintError of the same kind, so callers can compare
// against kind sentinels with errors.Is
func (e *BlueprintError) Is(target error) bool {
	t, ok := target.(*BlueprintError)
	return ok && t.Kind == e.Kind
}

// New creates a new BlueprintError
func New(kind Kind, message string) *BlueprintError {
	return &BlueprintError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new BlueprintError wrapping an existing error
func Wrap(kind Kind, message string, cause error) *BlueprintError {
	return &BlueprintError{
		Kind:    kind,
		Message: message,
		Cause:   cause,
	}
}

// KindOf extracts the failure kind from anywhere in an error chain.
// It returns the empty Kind when the chain holds no BlueprintError.
func KindOf(err error) Kind {
	var be *BlueprintError
	if stderrors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// WithContext attaches a machine-readable key/value to the error
func (e *BlueprintError) WithContext(key, value string) *BlueprintError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion to the error
func (e *BlueprintError) WithSuggestion(suggestion string) *BlueprintError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *BlueprintError) WithSuggestions(suggestions ...string) *BlueprintError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *BlueprintError) WithDocs(url string) *BlueprintError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewInvalidBlueprintError creates a blueprint validation error
func NewInvalidBlueprintError(details string) *BlueprintError {
	return New(KindInvalidBlueprint, fmt.Sprintf("invalid blueprint: %s", details)).
		WithSuggestion("Run 'blueprint validate <file>' to see all validation errors").
		WithSuggestion("Check that every phase has a name and at least one step").
		WithDocs("https://github.com/felixgeelhaar/blueprint#blueprint-format")
}

// NewBlueprintParseError creates a blueprint parse error
func NewBlueprintParseError(path string, cause error) *BlueprintError {
	return Wrap(KindInvalidBlueprint, fmt.Sprintf("failed to parse blueprint: %s", path), cause).
		WithContext("path", path).
		WithSuggestion("Check the YAML syntax near the reported line").
		WithSuggestion("Ensure the file is valid YAML")
}

// NewAlreadyRunningError creates an error for a second concurrent execution
func NewAlreadyRunningError() *BlueprintError {
	return New(KindAlreadyRunning, "execution already in progress").
		WithSuggestion("Wait for the current run to finish").
		WithSuggestion("Cancel the current run before starting a new one")
}

// NewTimeoutError creates a time budget exhaustion error
func NewTimeoutError(budget time.Duration) *BlueprintError {
	return New(KindTimeout, fmt.Sprintf("execution time budget exceeded: %s", budget)).
		WithContext("budget", budget.String()).
		WithSuggestion("Raise max_execution_time in .blueprint/config.yaml").
		WithSuggestion("Split long-running phases into separate blueprints")
}

// NewCommandFailedError creates a shell command failure error
func NewCommandFailedError(command string, exitCode int) *BlueprintError {
	return New(KindCommandFailed, fmt.Sprintf("command failed with exit code %d: %s", exitCode, command)).
		WithContext("command", command).
		WithContext("exit_code", strconv.Itoa(exitCode)).
		WithSuggestion("Run the command manually to reproduce the failure").
		WithSuggestion("Check the captured output for the first reported error")
}

// NewBuildFailedError creates a build verification failure error
func NewBuildFailedError(errorCount int) *BlueprintError {
	return New(KindBuildFailed, fmt.Sprintf("build failed with %d error(s)", errorCount)).
		WithContext("error_count", strconv.Itoa(errorCount)).
		WithSuggestion("Fix the first reported diagnostic; later errors often cascade from it").
		WithDocs("https://github.com/felixgeelhaar/blueprint#build-verification")
}

// NewTestFailedError creates a test verification failure error
func NewTestFailedError(failureCount int) *BlueprintError {
	return New(KindTestFailed, fmt.Sprintf("tests failed: %d failing", failureCount)).
		WithContext("failure_count", strconv.Itoa(failureCount)).
		WithSuggestion("Run the failing tests locally with verbose output")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *BlueprintError {
	return New(KindFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithContext("path", path).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewPermissionDeniedError creates a permission denied error
func NewPermissionDeniedError(path string) *BlueprintError {
	return New(KindPermissionDenied, fmt.Sprintf("permission denied: %s", path)).
		WithContext("path", path).
		WithSuggestion("Check the ownership and mode bits of the target path").
		WithSuggestion("Keep file operations inside the working directory")
}

// NewAIError creates an AI task failure error
func NewAIError(message string, cause error) *BlueprintError {
	return Wrap(KindAI, fmt.Sprintf("AI task failed: %s", message), cause).
		WithSuggestion("Check provider credentials and connectivity").
		WithSuggestion("Inspect the provider error before retrying the run")
}
