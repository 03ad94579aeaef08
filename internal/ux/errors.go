package ux

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/blueprint/internal/errors"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface
func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

// Unwrap provides access to the underlying error
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError analyzes an error and adds contextual suggestions
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	// Structured errors already render their own suggestions
	var be *errors.BlueprintError
	if stderrors.As(err, &be) && len(be.Suggestions) > 0 {
		return err
	}

	errMsg := err.Error()

	// File not found errors
	if strings.Contains(errMsg, "no such file or directory") {
		if strings.Contains(errMsg, "blueprint.yaml") {
			return NewErrorWithSuggestion(err,
				"Write a blueprint.yaml describing your phases, or pass the path to an existing blueprint")
		}
		if strings.Contains(errMsg, "config.yaml") {
			return NewErrorWithSuggestion(err,
				"Create .blueprint/config.yaml or rely on the built-in defaults")
		}
	}

	switch errors.KindOf(err) {
	case errors.KindInvalidBlueprint:
		return NewErrorWithSuggestion(err,
			"Fix the blueprint document and check it with 'blueprint validate'")
	case errors.KindTimeout:
		return NewErrorWithSuggestion(err,
			"Raise max_execution_time in .blueprint/config.yaml or split the blueprint into smaller runs")
	case errors.KindAI:
		return NewErrorWithSuggestion(err,
			"Check your provider API key environment variable and model configuration")
	}

	// Permission errors
	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check file permissions and ensure you have access to the required files/directories")
	}

	// Provider errors
	if strings.Contains(errMsg, "API key") || strings.Contains(errMsg, "authentication") {
		return NewErrorWithSuggestion(err,
			"Set your provider API key environment variable (e.g., ANTHROPIC_API_KEY)")
	}

	// Network errors
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no route to host") {
		return NewErrorWithSuggestion(err,
			"Check your network connection and firewall settings")
	}

	// Generic suggestion based on error type
	if strings.Contains(errMsg, "failed to") {
		return NewErrorWithSuggestion(err,
			fmt.Sprintf("Next steps: %s", SuggestNextSteps()))
	}

	return err
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
