package executor

// Events receives notifications as a run progresses. Implementations
// drive progress displays and must not block: callbacks run on the
// executor's own loop, so a slow observer slows the run.
type Events interface {
	// PhaseStarted fires before the first step of a phase. Index is
	// zero-based.
	PhaseStarted(index, total int, phase string)

	// StepStarted fires before each step attempt cycle begins
	StepStarted(phase, step string)

	// StepCompleted fires once per step with its settled result
	StepCompleted(phase string, result StepResult)

	// PhaseCompleted fires after a phase settles, pass or fail
	PhaseCompleted(result PhaseResult)

	// RunCompleted fires exactly once at the end of a run
	RunCompleted(result ExecutionResult)
}

// NopEvents discards all notifications. Embed it to implement only the
// callbacks an observer cares about.
type NopEvents struct{}

// PhaseStarted implements Events
func (NopEvents) PhaseStarted(index, total int, phase string) {}

// StepStarted implements Events
func (NopEvents) StepStarted(phase, step string) {}

// StepCompleted implements Events
func (NopEvents) StepCompleted(phase string, result StepResult) {}

// PhaseCompleted implements Events
func (NopEvents) PhaseCompleted(result PhaseResult) {}

// RunCompleted implements Events
func (NopEvents) RunCompleted(result ExecutionResult) {}

// Compile-time verification that NopEvents implements Events
var _ Events = NopEvents{}
