package blueprint

import "context"

// Blueprint represents a multi-phase execution plan. Documents are
// immutable once loaded; the executor never mutates them.
type Blueprint struct {
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description,omitempty" json:"description,omitempty"`
	Phases      []Phase `yaml:"phases" json:"phases"`
}

// Phase represents one ordered stage of a blueprint
type Phase struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`

	// Verification gates phase completion. A phase whose steps all
	// succeed still fails when this check does not pass.
	Verification *VerificationCheck `yaml:"verification,omitempty" json:"verification,omitempty"`
}

// StepType discriminates the step variants
type StepType string

const (
	// StepCommand runs a shell command
	StepCommand StepType = "command"

	// StepFileOperation performs a filesystem operation
	StepFileOperation StepType = "file"

	// StepAITask delegates work to an AI collaborator
	StepAITask StepType = "ai"

	// StepVerification runs an inline verification check
	StepVerification StepType = "verify"

	// StepConditional branches on a runtime condition
	StepConditional StepType = "conditional"
)

// Step is a tagged variant: exactly one payload field is populated,
// matching Type. Validate enforces this.
type Step struct {
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Type        StepType `yaml:"type" json:"type"`

	// Command is the shell command line for StepCommand
	Command string `yaml:"command,omitempty" json:"command,omitempty"`

	// FileOp is the operation for StepFileOperation
	FileOp *FileOperation `yaml:"file_op,omitempty" json:"file_op,omitempty"`

	// AITask is the descriptor for StepAITask
	AITask *AITaskDescriptor `yaml:"ai_task,omitempty" json:"ai_task,omitempty"`

	// Check is the inline check for StepVerification
	Check *VerificationCheck `yaml:"check,omitempty" json:"check,omitempty"`

	// Cond is the branch for StepConditional
	Cond *Conditional `yaml:"cond,omitempty" json:"cond,omitempty"`
}

// Conditional holds a condition and the steps for each branch.
// Branches nest arbitrarily: a branch step may itself be conditional.
type Conditional struct {
	Condition Condition `yaml:"condition" json:"condition"`
	Then      []Step    `yaml:"then,omitempty" json:"then,omitempty"`
	Else      []Step    `yaml:"else,omitempty" json:"else,omitempty"`
}

// ConditionKind discriminates runtime conditions
type ConditionKind string

const (
	// ConditionFileExists is true when Path names an existing file
	ConditionFileExists ConditionKind = "file_exists"

	// ConditionCommandSucceeds is true when Command exits zero
	ConditionCommandSucceeds ConditionKind = "command_succeeds"

	// ConditionAlways is unconditionally true
	ConditionAlways ConditionKind = "always"

	// ConditionNever is unconditionally false
	ConditionNever ConditionKind = "never"
)

// Condition is evaluated at runtime to pick a conditional branch
type Condition struct {
	Kind    ConditionKind `yaml:"kind" json:"kind"`
	Path    string        `yaml:"path,omitempty" json:"path,omitempty"`
	Command string        `yaml:"command,omitempty" json:"command,omitempty"`
}

// FileOpKind discriminates filesystem operations
type FileOpKind string

const (
	FileRead   FileOpKind = "read"
	FileWrite  FileOpKind = "write"
	FileDelete FileOpKind = "delete"
	FileMove   FileOpKind = "move"
	FileExists FileOpKind = "exists"
)

// FileOperation describes a single filesystem operation
type FileOperation struct {
	Op   FileOpKind `yaml:"op" json:"op"`
	Path string     `yaml:"path" json:"path"`

	// Content is the data written by FileWrite
	Content string `yaml:"content,omitempty" json:"content,omitempty"`

	// Destination is the target path for FileMove
	Destination string `yaml:"destination,omitempty" json:"destination,omitempty"`
}

// AITaskDescriptor describes work delegated to an AI collaborator
type AITaskDescriptor struct {
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
	Prompt       string `yaml:"prompt" json:"prompt"`
	SystemPrompt string `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`

	// Model overrides resolver-selected models when non-empty
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	MaxTokens int `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// CheckKind discriminates verification checks
type CheckKind string

const (
	// CheckBuildSucceeds compiles the project and requires zero errors
	CheckBuildSucceeds CheckKind = "build_succeeds"

	// CheckTestsPass runs the test suite and requires zero failures
	CheckTestsPass CheckKind = "tests_pass"

	// CheckFileExists requires Path to name an existing file
	CheckFileExists CheckKind = "file_exists"

	// CheckCommandSucceeds requires Command to exit zero
	CheckCommandSucceeds CheckKind = "command_succeeds"

	// CheckCustom evaluates a caller-supplied predicate. Custom checks
	// exist only on programmatically built blueprints; documents cannot
	// carry one.
	CheckCustom CheckKind = "custom"
)

// VerificationCheck describes one pass/fail verification
type VerificationCheck struct {
	Kind        CheckKind `yaml:"kind" json:"kind"`
	Scheme      string    `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	Target      string    `yaml:"target,omitempty" json:"target,omitempty"`
	Path        string    `yaml:"path,omitempty" json:"path,omitempty"`
	Command     string    `yaml:"command,omitempty" json:"command,omitempty"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`

	// Predicate backs CheckCustom. Never serialized.
	Predicate func(ctx context.Context) (bool, error) `yaml:"-" json:"-"`
}
