package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/executor"
)

// Indicator provides progress tracking and display for blueprint runs.
// It implements executor.Events, so it can be handed to the engine and
// render live updates as phases and steps settle.
type Indicator struct {
	writer      io.Writer
	startTime   time.Time
	mu          sync.Mutex
	showSpinner bool
	spinnerIdx  int
	stopChan    chan struct{}
	stopOnce    sync.Once // Ensures Stop() is only called once
	isCI        bool
	verbose     bool

	totalPhases  int
	phasesDone   int
	stepsDone    int
	stepsFailed  int
	currentPhase string
	currentStep  string
}

// Config holds configuration for progress indicator
type Config struct {
	Writer      io.Writer
	ShowSpinner bool
	IsCI        bool // Set to true in CI/CD environments to disable fancy output
	Verbose     bool // Stream step output as it settles (CI mode only)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// NewIndicator creates a new progress indicator
func NewIndicator(cfg Config) *Indicator {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}

	// Auto-detect CI environment
	if !cfg.IsCI {
		cfg.IsCI = os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
	}

	return &Indicator{
		writer:      cfg.Writer,
		startTime:   time.Now(),
		showSpinner: cfg.ShowSpinner && !cfg.IsCI,
		stopChan:    make(chan struct{}),
		isCI:        cfg.IsCI,
		verbose:     cfg.Verbose,
	}
}

// Start begins the progress indicator display
func (p *Indicator) Start() {
	if p.showSpinner {
		go p.spinnerLoop()
	}
}

// Stop stops the progress indicator
func (p *Indicator) Stop() {
	p.stopOnce.Do(func() {
		if p.showSpinner {
			close(p.stopChan)
			// Clear spinner line
			fmt.Fprintf(p.writer, "\r%s\r", strings.Repeat(" ", 80))
		}
	})
}

// PhaseStarted records the start of a phase
func (p *Indicator) PhaseStarted(index, total int, phase string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalPhases = total
	p.currentPhase = phase
	p.currentStep = ""

	if p.isCI {
		fmt.Fprintf(p.writer, "▶ phase %d/%d: %s\n", index+1, total, phase)
	}
}

// StepStarted records the start of a step
func (p *Indicator) StepStarted(phase, step string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.currentStep = step

	if p.isCI {
		fmt.Fprintf(p.writer, "  ▶ %s\n", step)
	}
}

// StepCompleted records a settled step
func (p *Indicator) StepCompleted(phase string, result executor.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result.Success {
		p.stepsDone++
	} else {
		p.stepsFailed++
	}

	if p.isCI {
		symbol := "✓"
		if !result.Success {
			symbol = "✗"
		}
		msg := fmt.Sprintf("  %s %s", symbol, result.Description)
		if result.Err != nil {
			msg += fmt.Sprintf(" - %v", firstLine(result.Err.Error()))
		}
		fmt.Fprintln(p.writer, msg)

		if p.verbose && result.Output != "" {
			sw := NewStreamWriter(p.writer, "    │")
			io.WriteString(sw, result.Output) //nolint:errcheck
			sw.Flush()                        //nolint:errcheck
		}
	}
}

// PhaseCompleted records a settled phase
func (p *Indicator) PhaseCompleted(result executor.PhaseResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result.Success {
		p.phasesDone++
	}

	if p.isCI {
		if result.Success {
			fmt.Fprintf(p.writer, "✓ phase %s\n", result.Name)
		} else {
			fmt.Fprintf(p.writer, "✗ phase %s - %v\n", result.Name, firstLine(errText(result.Err)))
		}
	}
}

// RunCompleted records the end of the run
func (p *Indicator) RunCompleted(result executor.ExecutionResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isCI {
		return
	}

	if result.Success {
		fmt.Fprintf(p.writer, "run succeeded in %s\n", formatDuration(result.Elapsed))
	} else {
		fmt.Fprintf(p.writer, "run failed after %s: %v\n", formatDuration(result.Elapsed), firstLine(errText(result.Err)))
	}
}

// spinnerLoop runs the spinner animation
func (p *Indicator) spinnerLoop() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.mu.Lock()
			p.renderProgress()
			p.spinnerIdx = (p.spinnerIdx + 1) % len(spinnerFrames)
			p.mu.Unlock()
		}
	}
}

// renderProgress renders the current progress state
func (p *Indicator) renderProgress() {
	if p.totalPhases == 0 {
		return
	}

	progress := float64(p.phasesDone) / float64(p.totalPhases)
	elapsed := time.Since(p.startTime)

	// Calculate ETA
	var eta string
	if progress > 0 && progress < 1.0 {
		totalEstimated := time.Duration(float64(elapsed) / progress)
		remaining := totalEstimated - elapsed
		eta = fmt.Sprintf(" | ETA: %s", formatDuration(remaining))
	}

	// Build progress bar
	barWidth := 30
	filled := int(float64(barWidth) * progress)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	// Spinner frame
	spinner := spinnerFrames[p.spinnerIdx]

	step := p.currentStep
	if step == "" {
		step = p.currentPhase
	}

	statusLine := fmt.Sprintf("\r%s [%s] %.1f%% | phase %d/%d | ✓ %d | ✗ %d | %s%s | %s",
		spinner,
		bar,
		progress*100,
		p.phasesDone,
		p.totalPhases,
		p.stepsDone,
		p.stepsFailed,
		formatDuration(elapsed),
		eta,
		step,
	)

	fmt.Fprint(p.writer, statusLine)
}

// PrintSummary prints the final run summary as a phase/step tree
func (p *Indicator) PrintSummary(result *executor.ExecutionResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if result == nil {
		return
	}

	total, succeeded := result.StepCount()

	fmt.Fprintln(p.writer)
	fmt.Fprintln(p.writer, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(p.writer, "Run Summary: %s\n", result.BlueprintName)
	fmt.Fprintln(p.writer, "═══════════════════════════════════════════════════════════")

	status := "SUCCEEDED"
	if !result.Success {
		status = "FAILED"
	}

	fmt.Fprintf(p.writer, "Status:          %s\n", status)
	fmt.Fprintf(p.writer, "Phases:          %d completed\n", len(result.Phases))
	fmt.Fprintf(p.writer, "Steps:           %d/%d succeeded\n", succeeded, total)
	fmt.Fprintf(p.writer, "Total Time:      %s\n", formatDuration(result.Elapsed))
	fmt.Fprintln(p.writer, "═══════════════════════════════════════════════════════════")

	for i := range result.Phases {
		phase := &result.Phases[i]
		symbol := "✓"
		if !phase.Success {
			symbol = "✗"
		}
		fmt.Fprintf(p.writer, "%s %s\n", symbol, phase.Name)

		for j := range phase.Steps {
			step := &phase.Steps[j]
			stepSymbol := "✓"
			if !step.Success {
				stepSymbol = "✗"
			}
			fmt.Fprintf(p.writer, "  %s %s", stepSymbol, step.Description)
			if step.Err != nil {
				fmt.Fprintf(p.writer, " - %s", firstLine(step.Err.Error()))
			}
			fmt.Fprintln(p.writer)
		}

		if !phase.Success && phase.FailedStep() == nil && phase.Err != nil {
			// Phase failed its verification gate, not a step
			fmt.Fprintf(p.writer, "  ✗ %s\n", firstLine(phase.Err.Error()))
		}
	}

	if result.Err != nil {
		fmt.Fprintln(p.writer)
		fmt.Fprintf(p.writer, "Failure: %v\n", result.Err)
	}
}

// StreamWriter wraps an io.Writer to stream output with prefixes
type StreamWriter struct {
	writer io.Writer
	prefix string
	buffer []byte
}

// NewStreamWriter creates a new stream writer with a prefix
func NewStreamWriter(w io.Writer, prefix string) *StreamWriter {
	return &StreamWriter{
		writer: w,
		prefix: prefix,
		buffer: make([]byte, 0, 4096),
	}
}

// Write implements io.Writer
func (sw *StreamWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	sw.buffer = append(sw.buffer, p...)

	// Process complete lines
	for {
		idx := strings.IndexByte(string(sw.buffer), '\n')
		if idx == -1 {
			break
		}

		line := sw.buffer[:idx]
		sw.buffer = sw.buffer[idx+1:]

		// Write prefixed line
		_, err = fmt.Fprintf(sw.writer, "%s %s\n", sw.prefix, string(line))
		if err != nil {
			return
		}
	}

	return
}

// Flush writes any remaining buffered content
func (sw *StreamWriter) Flush() error {
	if len(sw.buffer) > 0 {
		_, err := fmt.Fprintf(sw.writer, "%s %s\n", sw.prefix, string(sw.buffer))
		sw.buffer = sw.buffer[:0]
		return err
	}
	return nil
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// firstLine trims a message to its first line for single-line displays
func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

func errText(err error) string {
	if err == nil {
		return "unknown failure"
	}
	return err.Error()
}

// Compile-time verification that Indicator satisfies the engine's
// event surface
var _ executor.Events = (*Indicator)(nil)
