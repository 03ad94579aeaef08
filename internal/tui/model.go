package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/executor"
)

// ViewType represents the current view being displayed
type ViewType int

// View type constants
const (
	// ViewRun is the main run view
	ViewRun ViewType = iota
	// ViewLog shows the execution log
	ViewLog
	// ViewHelp is the help screen
	ViewHelp
)

// logTailLines is how many log entries the run view shows inline
const logTailLines = 6

// logViewLines is how many log entries the model retains for display
const logViewLines = 30

// logPollInterval is how often the model re-reads the execution log
const logPollInterval = 250 * time.Millisecond

// rowState tracks the display state of one phase or step row
type rowState int

const (
	statePending rowState = iota
	stateRunning
	stateDone
	stateFailed
)

// stepRow is one step line in the phase tree
type stepRow struct {
	desc  string
	state rowState
	err   string
}

// phaseRow is one phase in the phase tree
type phaseRow struct {
	name  string
	state rowState
	steps []stepRow
}

// Hooks connect the model to a live run. Every field is optional; a
// nil hook is skipped.
type Hooks struct {
	// Start launches the run. Init invokes it once on a command
	// goroutine, so it may block until the run finishes.
	Start func()

	// Stop requests a graceful stop after the current step
	Stop func()

	// Tail returns the newest n execution log entries
	Tail func(n int) []executor.LogEntry
}

// Model represents the TUI application state
type Model struct {
	// Run state
	blueprintName string
	phases        []phaseRow
	currentPhase  int
	currentStep   string
	startTime     time.Time

	// Counters
	totalPhases     int
	completedPhases int
	completedSteps  int
	failedSteps     int

	// Outcome, set when the run completes
	result *executor.ExecutionResult

	// Execution log tail
	logTail []executor.LogEntry

	// Run hooks
	hooks Hooks

	// UI state
	currentView ViewType
	width       int
	height      int
	ready       bool
	stopping    bool
	quitting    bool

	// Components
	spinner  spinner.Model
	progress progress.Model

	// Styles
	styles Styles
}

// Styles contains lipgloss styles for the TUI
type Styles struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Status      lipgloss.Style
	Error       lipgloss.Style
	Success     lipgloss.Style
	Warning     lipgloss.Style
	Muted       lipgloss.Style
	Border      lipgloss.Style
	Highlighted lipgloss.Style
	Help        lipgloss.Style
	Key         lipgloss.Style
	KeyDesc     lipgloss.Style
}

// NewModel creates a TUI model for one blueprint run. The phase tree
// is seeded from the blueprint so pending work is visible up front.
func NewModel(bp *blueprint.Blueprint, hooks Hooks) Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Status

	phases := make([]phaseRow, len(bp.Phases))
	for i := range bp.Phases {
		phase := &bp.Phases[i]
		steps := make([]stepRow, len(phase.Steps))
		for j := range phase.Steps {
			steps[j] = stepRow{desc: executor.StepDescription(&phase.Steps[j])}
		}
		phases[i] = phaseRow{name: phase.Name, steps: steps}
	}

	return Model{
		blueprintName: bp.Name,
		phases:        phases,
		currentPhase:  -1,
		totalPhases:   len(phases),
		startTime:     time.Now(),
		hooks:         hooks,
		currentView:   ViewRun,
		spinner:       sp,
		progress:      progress.New(progress.WithDefaultGradient()),
		styles:        styles,
	}
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")). // Purple
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginBottom(1),
		Status: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")), // Cyan
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")). // Purple
			Padding(1, 2),
		Highlighted: lipgloss.NewStyle().
			Background(lipgloss.Color("63")).  // Purple
			Foreground(lipgloss.Color("230")). // Light yellow
			Bold(true).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")). // Gray
			MarginTop(1),
		Key: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")), // Purple
		KeyDesc: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")), // Gray
	}
}

// Init starts the spinner, the log poll, and the run itself (required
// by Bubble Tea)
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, pollLogs()}
	if m.hooks.Start != nil {
		start := m.hooks.Start
		cmds = append(cmds, func() tea.Msg {
			start()
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model state (required by
// Bubble Tea)
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 10
		if m.progress.Width > 48 {
			m.progress.Width = 48
		}
		m.ready = true
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case logTickMsg:
		if m.hooks.Tail != nil {
			m.logTail = m.hooks.Tail(logViewLines)
		}
		if m.quitting {
			return m, nil
		}
		return m, pollLogs()

	case PhaseStartMsg:
		m.totalPhases = msg.Total
		m.currentStep = ""
		if msg.Index >= 0 && msg.Index < len(m.phases) {
			m.currentPhase = msg.Index
			m.phases[msg.Index].state = stateRunning
		}
		return m, nil

	case StepStartMsg:
		m.currentStep = msg.Step
		if row := m.runningPhase(); row != nil {
			for i := range row.steps {
				if row.steps[i].state == statePending {
					row.steps[i].state = stateRunning
					break
				}
			}
		}
		return m, nil

	case StepResultMsg:
		if row := m.runningPhase(); row != nil {
			for i := range row.steps {
				if row.steps[i].state != stateRunning {
					continue
				}
				// A failed conditional reports the branch step that
				// broke, so trust the result's description
				row.steps[i].desc = msg.Result.Description
				if msg.Result.Success {
					row.steps[i].state = stateDone
				} else {
					row.steps[i].state = stateFailed
					row.steps[i].err = errLine(msg.Result.Err)
				}
				break
			}
		}
		if msg.Result.Success {
			m.completedSteps++
		} else {
			m.failedSteps++
		}
		m.currentStep = ""
		return m, nil

	case PhaseResultMsg:
		if row := m.runningPhase(); row != nil {
			if msg.Result.Success {
				row.state = stateDone
			} else {
				row.state = stateFailed
			}
		}
		if msg.Result.Success {
			m.completedPhases++
		}
		return m, nil

	case RunCompleteMsg:
		result := msg.Result
		m.result = &result
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI (required by Bubble Tea)
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.quitting {
		return m.renderComplete()
	}

	switch m.currentView {
	case ViewRun:
		return m.renderRun()
	case ViewLog:
		return m.renderLog()
	case ViewHelp:
		return m.renderHelp()
	default:
		return "Unknown view"
	}
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A second Ctrl+C abandons the TUI without waiting for the result
	if msg.String() == "ctrl+c" {
		if m.stopping {
			m.quitting = true
			return m, tea.Quit
		}
		return m.requestStop()
	}

	switch msg.String() {
	case "q":
		return m.requestStop()

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = ViewRun
		} else {
			m.currentView = ViewHelp
		}

	case "l":
		if m.currentView == ViewLog {
			m.currentView = ViewRun
		} else {
			m.currentView = ViewLog
		}

	case "esc":
		m.currentView = ViewRun
	}

	return m, nil
}

// requestStop asks the engine to stop after the current step. The TUI
// stays up until the final result arrives, so the run is never
// abandoned mid-step.
func (m Model) requestStop() (tea.Model, tea.Cmd) {
	if !m.stopping {
		m.stopping = true
		if m.hooks.Stop != nil {
			m.hooks.Stop()
		}
	}
	return m, nil
}

// runningPhase returns the phase row the engine is currently in, or
// nil before the first phase starts
func (m *Model) runningPhase() *phaseRow {
	if m.currentPhase < 0 || m.currentPhase >= len(m.phases) {
		return nil
	}
	return &m.phases[m.currentPhase]
}

// Custom messages for run events

// PhaseStartMsg indicates a phase has started
type PhaseStartMsg struct {
	Index int
	Total int
	Name  string
}

// StepStartMsg indicates a step has started
type StepStartMsg struct {
	Phase string
	Step  string
}

// StepResultMsg carries a settled step result
type StepResultMsg struct {
	Phase  string
	Result executor.StepResult
}

// PhaseResultMsg carries a settled phase result
type PhaseResultMsg struct {
	Result executor.PhaseResult
}

// RunCompleteMsg indicates the run has finished
type RunCompleteMsg struct {
	Result executor.ExecutionResult
}

// logTickMsg triggers an execution log refresh
type logTickMsg struct{}

func pollLogs() tea.Cmd {
	return tea.Tick(logPollInterval, func(time.Time) tea.Msg {
		return logTickMsg{}
	})
}

// Helper functions

func (m Model) elapsed() time.Duration {
	return time.Since(m.startTime)
}

func (m Model) progressFraction() float64 {
	if m.totalPhases == 0 {
		return 0
	}
	return float64(m.completedPhases) / float64(m.totalPhases)
}

func (m Model) statusIcon() string {
	if m.failedSteps > 0 {
		return "✗"
	}
	if m.completedPhases == m.totalPhases && m.totalPhases > 0 {
		return "✓"
	}
	return "⟳"
}

func (m Model) statusColor() lipgloss.TerminalColor {
	if m.failedSteps > 0 {
		return lipgloss.Color("196") // Red
	}
	if m.completedPhases == m.totalPhases && m.totalPhases > 0 {
		return lipgloss.Color("46") // Green
	}
	return lipgloss.Color("86") // Cyan
}

// errLine returns the first line of an error's text
func errLine(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
