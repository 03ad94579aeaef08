package executor

import (
	"context"
	"sync"
)

// shellResult is one canned command outcome for scriptedShell
type shellResult struct {
	output   string
	exitCode int
	err      error
}

// scriptedShell replays canned results in call order. Calls beyond the
// script succeed with empty output.
type scriptedShell struct {
	mu      sync.Mutex
	results []shellResult
	calls   int
	cmds    []string
}

func (s *scriptedShell) run(ctx context.Context, dir, name string, args ...string) (string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(args) > 0 {
		s.cmds = append(s.cmds, args[len(args)-1])
	}
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		return "", 0, nil
	}
	r := s.results[idx]
	return r.output, r.exitCode, r.err
}

func (s *scriptedShell) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *scriptedShell) commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.cmds))
	copy(out, s.cmds)
	return out
}

// recordingEvents captures every observer callback for assertions
type recordingEvents struct {
	mu             sync.Mutex
	phasesStarted  []string
	stepsStarted   []string
	stepsCompleted []StepResult
	phasesDone     []PhaseResult
	runsDone       []ExecutionResult
}

func (r *recordingEvents) PhaseStarted(index, total int, phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phasesStarted = append(r.phasesStarted, phase)
}

func (r *recordingEvents) StepStarted(phase, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepsStarted = append(r.stepsStarted, step)
}

func (r *recordingEvents) StepCompleted(phase string, result StepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepsCompleted = append(r.stepsCompleted, result)
}

func (r *recordingEvents) PhaseCompleted(result PhaseResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phasesDone = append(r.phasesDone, result)
}

func (r *recordingEvents) RunCompleted(result ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runsDone = append(r.runsDone, result)
}

var _ Events = (*recordingEvents)(nil)
