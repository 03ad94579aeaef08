package blueprint

import (
	"fmt"
	"strings"
)

// Validate checks if the Blueprint is valid
func (b *Blueprint) Validate() error {
	// Validate Name
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("blueprint name cannot be empty")
	}

	// Validate Phases - must have at least one
	if len(b.Phases) == 0 {
		return fmt.Errorf("blueprint must have at least one phase")
	}

	// Validate each phase
	for i, phase := range b.Phases {
		if err := phase.Validate(); err != nil {
			return fmt.Errorf("phase at index %d (%s) is invalid: %w", i, phase.Name, err)
		}
	}

	return nil
}

// Validate checks if the Phase is valid
func (p *Phase) Validate() error {
	// Validate Name
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("phase name cannot be empty")
	}

	// Validate Steps - must have at least one
	if len(p.Steps) == 0 {
		return fmt.Errorf("phase must have at least one step")
	}

	// Validate each step
	for i, step := range p.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step at index %d is invalid: %w", i, err)
		}
	}

	// Validate verification check if present
	if p.Verification != nil {
		if err := p.Verification.Validate(); err != nil {
			return fmt.Errorf("phase verification is invalid: %w", err)
		}
	}

	return nil
}

// Validate checks if the Step is valid. Exactly one payload field must
// be populated, and it must match the step type.
func (s *Step) Validate() error {
	payloads := 0
	if s.Command != "" {
		payloads++
	}
	if s.FileOp != nil {
		payloads++
	}
	if s.AITask != nil {
		payloads++
	}
	if s.Check != nil {
		payloads++
	}
	if s.Cond != nil {
		payloads++
	}

	if payloads == 0 {
		return fmt.Errorf("step has no payload")
	}
	if payloads > 1 {
		return fmt.Errorf("step has %d payloads, want exactly one", payloads)
	}

	switch s.Type {
	case StepCommand:
		if s.Command == "" {
			return fmt.Errorf("command step requires a command")
		}

	case StepFileOperation:
		if s.FileOp == nil {
			return fmt.Errorf("file step requires a file_op")
		}
		if err := s.FileOp.Validate(); err != nil {
			return fmt.Errorf("file operation is invalid: %w", err)
		}

	case StepAITask:
		if s.AITask == nil {
			return fmt.Errorf("ai step requires an ai_task")
		}
		if err := s.AITask.Validate(); err != nil {
			return fmt.Errorf("ai task is invalid: %w", err)
		}

	case StepVerification:
		if s.Check == nil {
			return fmt.Errorf("verify step requires a check")
		}
		if err := s.Check.Validate(); err != nil {
			return fmt.Errorf("verification check is invalid: %w", err)
		}

	case StepConditional:
		if s.Cond == nil {
			return fmt.Errorf("conditional step requires a cond")
		}
		if err := s.Cond.Validate(); err != nil {
			return fmt.Errorf("conditional is invalid: %w", err)
		}

	case "":
		return fmt.Errorf("step type cannot be empty")

	default:
		return fmt.Errorf("step type %q is not valid (must be command, file, ai, verify, or conditional)", s.Type)
	}

	return nil
}

// Validate checks if the Conditional is valid
func (c *Conditional) Validate() error {
	if err := c.Condition.Validate(); err != nil {
		return fmt.Errorf("condition is invalid: %w", err)
	}

	// A conditional with two empty branches does nothing
	if len(c.Then) == 0 && len(c.Else) == 0 {
		return fmt.Errorf("conditional must have at least one branch step")
	}

	// Validate branch steps recursively
	for i, step := range c.Then {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("then step at index %d is invalid: %w", i, err)
		}
	}
	for i, step := range c.Else {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("else step at index %d is invalid: %w", i, err)
		}
	}

	return nil
}

// Validate checks if the Condition is valid
func (c *Condition) Validate() error {
	switch c.Kind {
	case ConditionFileExists:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("file_exists condition requires a path")
		}

	case ConditionCommandSucceeds:
		if strings.TrimSpace(c.Command) == "" {
			return fmt.Errorf("command_succeeds condition requires a command")
		}

	case ConditionAlways, ConditionNever:
		// No fields required

	case "":
		return fmt.Errorf("condition kind cannot be empty")

	default:
		return fmt.Errorf("condition kind %q is not valid (must be file_exists, command_succeeds, always, or never)", c.Kind)
	}

	return nil
}

// Validate checks if the FileOperation is valid
func (f *FileOperation) Validate() error {
	// Validate Path
	if strings.TrimSpace(f.Path) == "" {
		return fmt.Errorf("file operation path cannot be empty")
	}

	switch f.Op {
	case FileRead, FileDelete, FileExists:
		if f.Destination != "" {
			return fmt.Errorf("destination is only valid for move operations")
		}
		if f.Content != "" {
			return fmt.Errorf("content is only valid for write operations")
		}

	case FileWrite:
		if f.Destination != "" {
			return fmt.Errorf("destination is only valid for move operations")
		}
		// Writing an empty file is legal, so Content has no constraint

	case FileMove:
		if strings.TrimSpace(f.Destination) == "" {
			return fmt.Errorf("move operation requires a destination")
		}
		if f.Content != "" {
			return fmt.Errorf("content is only valid for write operations")
		}

	case "":
		return fmt.Errorf("file operation kind cannot be empty")

	default:
		return fmt.Errorf("file operation %q is not valid (must be read, write, delete, move, or exists)", f.Op)
	}

	return nil
}

// Validate checks if the AITaskDescriptor is valid
func (a *AITaskDescriptor) Validate() error {
	if strings.TrimSpace(a.Prompt) == "" {
		return fmt.Errorf("ai task prompt cannot be empty")
	}

	if a.MaxTokens < 0 {
		return fmt.Errorf("max tokens cannot be negative, got %d", a.MaxTokens)
	}

	return nil
}

// Validate checks if the VerificationCheck is valid
func (v *VerificationCheck) Validate() error {
	switch v.Kind {
	case CheckBuildSucceeds, CheckTestsPass:
		// Scheme and Target are optional

	case CheckFileExists:
		if strings.TrimSpace(v.Path) == "" {
			return fmt.Errorf("file_exists check requires a path")
		}

	case CheckCommandSucceeds:
		if strings.TrimSpace(v.Command) == "" {
			return fmt.Errorf("command_succeeds check requires a command")
		}

	case CheckCustom:
		if v.Predicate == nil {
			return fmt.Errorf("custom check requires a predicate")
		}

	case "":
		return fmt.Errorf("check kind cannot be empty")

	default:
		return fmt.Errorf("check kind %q is not valid (must be build_succeeds, tests_pass, file_exists, command_succeeds, or custom)", v.Kind)
	}

	return nil
}
