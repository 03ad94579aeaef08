package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/blueprint/internal/executor"
)

// Adapter bridges between the execution engine and the TUI. Event
// callbacks arrive on the engine's goroutine and are handed to the
// program's event loop; once the loop is live they do not block the
// engine, and after the program exits they are dropped.
type Adapter struct {
	program *tea.Program
}

// NewAdapter creates a new TUI adapter. Events received before Run is
// called are discarded.
func NewAdapter() *Adapter {
	return &Adapter{}
}

// Run attaches the model, shows the TUI, and blocks until the program
// exits. The returned error reports terminal failures, not run
// failures; the run outcome travels through the model's hooks.
func (a *Adapter) Run(model Model) error {
	a.program = tea.NewProgram(model)
	_, err := a.program.Run()
	return err
}

// PhaseStarted implements executor.Events
func (a *Adapter) PhaseStarted(index, total int, phase string) {
	a.send(PhaseStartMsg{
		Index: index,
		Total: total,
		Name:  phase,
	})
}

// StepStarted implements executor.Events
func (a *Adapter) StepStarted(phase, step string) {
	a.send(StepStartMsg{
		Phase: phase,
		Step:  step,
	})
}

// StepCompleted implements executor.Events
func (a *Adapter) StepCompleted(phase string, result executor.StepResult) {
	a.send(StepResultMsg{
		Phase:  phase,
		Result: result,
	})
}

// PhaseCompleted implements executor.Events
func (a *Adapter) PhaseCompleted(result executor.PhaseResult) {
	a.send(PhaseResultMsg{Result: result})
}

// RunCompleted implements executor.Events
func (a *Adapter) RunCompleted(result executor.ExecutionResult) {
	a.send(RunCompleteMsg{Result: result})
}

func (a *Adapter) send(msg tea.Msg) {
	if a.program != nil {
		a.program.Send(msg)
	}
}

// Compile-time verification that Adapter implements executor.Events
var _ executor.Events = (*Adapter)(nil)
