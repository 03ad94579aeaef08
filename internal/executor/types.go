package executor

import "time"

// StepResult is the outcome of one step. A step that was retried still
// produces exactly one result: the attempt that settled it.
type StepResult struct {
	// Description identifies the step in summaries and logs
	Description string

	// Success reports whether the step settled successfully
	Success bool

	// Err holds the failure from the final attempt
	Err error

	// Output carries the step's product: combined command output, file
	// content for reads, "true"/"false" for existence probes, or
	// generated AI text. Full text, never truncated; log previews are.
	Output string
}

// PhaseResult is the outcome of one phase
type PhaseResult struct {
	// Name is the phase name from the blueprint
	Name string

	// Success reports whether every step and the terminal verification
	// passed
	Success bool

	// Steps holds one result per attempted step, in order. A failed
	// step is the last entry; later steps were never attempted.
	Steps []StepResult

	// Err explains the phase failure: a step out of retries, a failed
	// verification gate, or cancellation
	Err error
}

// FailedStep returns the failing step result, or nil when every
// attempted step succeeded
func (p *PhaseResult) FailedStep() *StepResult {
	for i := range p.Steps {
		if !p.Steps[i].Success {
			return &p.Steps[i]
		}
	}
	return nil
}

// ExecutionResult is the outcome of one Execute call. Results live in
// memory for the caller; nothing is persisted unless a manifest
// directory is configured.
type ExecutionResult struct {
	// RunID uniquely identifies this run
	RunID string

	// BlueprintName is the name of the executed blueprint
	BlueprintName string

	// Success reports whether every phase completed within budget
	Success bool

	// Phases holds one result per started phase, in order. On failure
	// the failing phase is the last entry; later phases were never
	// started.
	Phases []PhaseResult

	// Err explains why the run stopped short
	Err error

	// StartedAt is when the run began
	StartedAt time.Time

	// Elapsed is the total wall-clock run time
	Elapsed time.Duration
}

// FailedPhase returns the failing phase result, or nil when every
// started phase succeeded
func (r *ExecutionResult) FailedPhase() *PhaseResult {
	for i := range r.Phases {
		if !r.Phases[i].Success {
			return &r.Phases[i]
		}
	}
	return nil
}

// StepCount returns how many steps were attempted across all phases
// and how many of them succeeded
func (r *ExecutionResult) StepCount() (total, succeeded int) {
	for i := range r.Phases {
		for j := range r.Phases[i].Steps {
			total++
			if r.Phases[i].Steps[j].Success {
				succeeded++
			}
		}
	}
	return total, succeeded
}
