package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	err := New(KindCommandFailed, "test error message")

	if err.Kind != KindCommandFailed {
		t.Errorf("expected kind %s, got %s", KindCommandFailed, err.Kind)
	}

	if err.Message != "test error message" {
		t.Errorf("expected message 'test error message', got '%s'", err.Message)
	}

	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(KindAI, "stream interrupted", cause)

	if err.Kind != KindAI {
		t.Errorf("expected kind %s, got %s", KindAI, err.Kind)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}

	// Test unwrapping
	if !errors.Is(err, cause) {
		t.Errorf("Wrap should support errors.Is")
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name     string
		err      *BlueprintError
		wantKind string
		wantMsg  string
	}{
		{
			name:     "simple error",
			err:      New(KindInvalidBlueprint, "phase 2 has no steps"),
			wantKind: "invalid_blueprint",
			wantMsg:  "phase 2 has no steps",
		},
		{
			name:     "error with cause",
			err:      Wrap(KindFileNotFound, "read failed", fmt.Errorf("no such file")),
			wantKind: "file_not_found",
			wantMsg:  "no such file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()

			if !strings.Contains(errStr, tt.wantKind) {
				t.Errorf("error string should contain kind %s, got: %s", tt.wantKind, errStr)
			}

			if !strings.Contains(errStr, tt.wantMsg) {
				t.Errorf("error string should contain message '%s', got: %s", tt.wantMsg, errStr)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "direct",
			err:  New(KindTimeout, "budget exceeded"),
			want: KindTimeout,
		},
		{
			name: "wrapped in fmt.Errorf",
			err:  fmt.Errorf("phase deploy: %w", New(KindBuildFailed, "3 errors")),
			want: KindBuildFailed,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("plain"),
			want: "",
		},
		{
			name: "nil",
			err:  nil,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("step 3: %w", NewCommandFailedError("make deploy", 2))

	if !errors.Is(err, New(KindCommandFailed, "")) {
		t.Errorf("errors.Is should match a sentinel of the same kind")
	}

	if errors.Is(err, New(KindTestFailed, "")) {
		t.Errorf("errors.Is should not match a different kind")
	}
}

func TestWithContext(t *testing.T) {
	err := New(KindCommandFailed, "command failed").
		WithContext("command", "swift build").
		WithContext("exit_code", "1")

	if len(err.Context) != 2 {
		t.Errorf("expected 2 context entries, got %d", len(err.Context))
	}

	if err.Context["command"] != "swift build" {
		t.Errorf("unexpected command context: %s", err.Context["command"])
	}

	if err.Context["exit_code"] != "1" {
		t.Errorf("unexpected exit_code context: %s", err.Context["exit_code"])
	}
}

func TestWithSuggestion(t *testing.T) {
	err := New(KindFileNotFound, "file not found").
		WithSuggestion("Check the file path")

	if len(err.Suggestions) != 1 {
		t.Errorf("expected 1 suggestion, got %d", len(err.Suggestions))
	}

	if err.Suggestions[0] != "Check the file path" {
		t.Errorf("unexpected suggestion: %s", err.Suggestions[0])
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Suggestions:") {
		t.Errorf("error string should contain suggestions section")
	}

	if !strings.Contains(errStr, "Check the file path") {
		t.Errorf("error string should contain suggestion text")
	}
}

func TestWithSuggestions(t *testing.T) {
	err := New(KindPermissionDenied, "permission denied").
		WithSuggestions("Suggestion 1", "Suggestion 2", "Suggestion 3")

	if len(err.Suggestions) != 3 {
		t.Errorf("expected 3 suggestions, got %d", len(err.Suggestions))
	}

	errStr := err.Error()
	for _, suggestion := range err.Suggestions {
		if !strings.Contains(errStr, suggestion) {
			t.Errorf("error string should contain suggestion: %s", suggestion)
		}
	}
}

func TestWithDocs(t *testing.T) {
	docsURL := "https://github.com/felixgeelhaar/blueprint#docs"
	err := New(KindInvalidBlueprint, "invalid blueprint").
		WithDocs(docsURL)

	if err.DocsURL != docsURL {
		t.Errorf("expected DocsURL %s, got %s", docsURL, err.DocsURL)
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "Documentation:") {
		t.Errorf("error string should contain documentation section")
	}

	if !strings.Contains(errStr, docsURL) {
		t.Errorf("error string should contain docs URL")
	}
}

func TestNewInvalidBlueprintError(t *testing.T) {
	err := NewInvalidBlueprintError("phase 'Deploy' has no steps")

	if err.Kind != KindInvalidBlueprint {
		t.Errorf("expected kind %s, got %s", KindInvalidBlueprint, err.Kind)
	}

	if !strings.Contains(err.Message, "phase 'Deploy' has no steps") {
		t.Errorf("error message should contain details")
	}

	if len(err.Suggestions) < 2 {
		t.Errorf("expected at least 2 suggestions, got %d", len(err.Suggestions))
	}

	if err.DocsURL == "" {
		t.Errorf("expected docs URL to be set")
	}
}

func TestNewAlreadyRunningError(t *testing.T) {
	err := NewAlreadyRunningError()

	if err.Kind != KindAlreadyRunning {
		t.Errorf("expected kind %s, got %s", KindAlreadyRunning, err.Kind)
	}

	if !strings.Contains(err.Message, "already in progress") {
		t.Errorf("error message should say execution is already in progress")
	}
}

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError(30 * time.Minute)

	if err.Kind != KindTimeout {
		t.Errorf("expected kind %s, got %s", KindTimeout, err.Kind)
	}

	if !strings.Contains(err.Message, "30m") {
		t.Errorf("error message should contain the budget, got: %s", err.Message)
	}

	if err.Context["budget"] != "30m0s" {
		t.Errorf("unexpected budget context: %s", err.Context["budget"])
	}
}

func TestNewCommandFailedError(t *testing.T) {
	err := NewCommandFailedError("xcodebuild build", 65)

	if err.Kind != KindCommandFailed {
		t.Errorf("expected kind %s, got %s", KindCommandFailed, err.Kind)
	}

	if !strings.Contains(err.Message, "xcodebuild build") {
		t.Errorf("error message should contain the command")
	}

	if !strings.Contains(err.Message, "65") {
		t.Errorf("error message should contain the exit code")
	}

	if err.Context["exit_code"] != "65" {
		t.Errorf("unexpected exit_code context: %s", err.Context["exit_code"])
	}
}

func TestNewBuildFailedError(t *testing.T) {
	err := NewBuildFailedError(3)

	if err.Kind != KindBuildFailed {
		t.Errorf("expected kind %s, got %s", KindBuildFailed, err.Kind)
	}

	if !strings.Contains(err.Message, "3 error(s)") {
		t.Errorf("error message should contain the error count, got: %s", err.Message)
	}
}

func TestNewFileNotFoundError(t *testing.T) {
	err := NewFileNotFoundError("/path/to/blueprint.yaml")

	if err.Kind != KindFileNotFound {
		t.Errorf("expected kind %s, got %s", KindFileNotFound, err.Kind)
	}

	if !strings.Contains(err.Message, "/path/to/blueprint.yaml") {
		t.Errorf("error message should contain file path")
	}

	if err.Context["path"] != "/path/to/blueprint.yaml" {
		t.Errorf("expected path context to be set")
	}
}

func TestNewAIError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewAIError("stream interrupted", cause)

	if err.Kind != KindAI {
		t.Errorf("expected kind %s, got %s", KindAI, err.Kind)
	}

	if err.Cause != cause {
		t.Errorf("expected cause to be preserved")
	}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should reach the cause")
	}
}

func TestErrorChaining(t *testing.T) {
	// Test that errors can be chained with context, suggestions, and docs
	err := New(KindInvalidBlueprint, "validation failed").
		WithContext("path", "deploy.yaml").
		WithSuggestion("Check field 'phases'").
		WithSuggestion("Check field 'steps'").
		WithDocs("https://example.com/docs")

	if len(err.Suggestions) != 2 {
		t.Errorf("expected 2 suggestions, got %d", len(err.Suggestions))
	}

	if err.DocsURL == "" {
		t.Errorf("expected docs URL to be set")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "invalid_blueprint") {
		t.Errorf("error should contain kind")
	}

	if !strings.Contains(errStr, "Check field 'phases'") {
		t.Errorf("error should contain first suggestion")
	}

	if !strings.Contains(errStr, "https://example.com/docs") {
		t.Errorf("error should contain docs URL")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(KindFileNotFound, "read failed", cause)

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap should return the cause")
	}

	// Test errors.Is
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should work with wrapped errors")
	}
}
