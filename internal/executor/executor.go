// Package executor drives blueprint runs: phases in order, steps with
// bounded retries, verification gates, and a wall-clock time budget.
// All collaborators are injected; the package holds no global state.
package executor

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/provider"
	"github.com/felixgeelhaar/blueprint/internal/verify"
)

// ExecStatus is the executor's lifecycle state
type ExecStatus string

// Lifecycle states. The only valid start transition is idle to
// running; a run then settles as completed, failed, or cancelled.
const (
	StatusIdle      ExecStatus = "idle"
	StatusRunning   ExecStatus = "running"
	StatusCompleted ExecStatus = "completed"
	StatusFailed    ExecStatus = "failed"
	StatusCancelled ExecStatus = "cancelled"
)

// Defaults applied by New when an option is zero
const (
	DefaultMaxRetries       = 3
	DefaultMaxExecutionTime = 30 * time.Minute
	DefaultPreviewLen       = 500
)

// Options wires an Executor. Collaborators are passed in explicitly so
// tests can substitute fakes and no process-wide instance exists.
type Options struct {
	// MaxRetries bounds attempts per step. Zero means
	// DefaultMaxRetries; negative disables retries (one attempt).
	MaxRetries int

	// RetryDelay is the pause between attempts of the same step
	RetryDelay time.Duration

	// MaxExecutionTime bounds the whole run's wall-clock time, checked
	// between phases. Zero means DefaultMaxExecutionTime; negative
	// disables the ceiling.
	MaxExecutionTime time.Duration

	// AutoRecovery asks the RecoveryAdvisor for a hint after a failed
	// attempt that still has retries left. Hints are advisory only.
	AutoRecovery bool

	// WorkDir anchors commands and relative file paths
	WorkDir string

	// PreviewLen truncates step output in log entries. Zero means
	// DefaultPreviewLen.
	PreviewLen int

	// LogRetention is read on every log append; nil means
	// DefaultLogRetention
	LogRetention func() int

	// MaxHistorySize bounds the context snapshot history
	MaxHistorySize int

	// ManifestDir, when set, receives a JSON run manifest after every
	// run. Empty disables manifests.
	ManifestDir string

	Logger *log.Logger

	// Events observes run progress; nil means NopEvents
	Events Events

	// Chat backs AI task steps and the advisor's AI tier
	Chat provider.ChatClient

	// Models resolves models for AI tasks and recovery suggestions
	Models provider.ModelResolver

	// Verifier runs verification checks. Nil builds a runner without a
	// build agent: file, command, and custom checks work, build and
	// test checks fail until an agent with a dialect is injected.
	Verifier *verify.Runner

	// Shell overrides process execution for command steps and, when the
	// Verifier is built here, for verification commands. Mainly for
	// tests; nil means real process spawning.
	Shell verify.CommandFunc
}

// Executor runs blueprints one at a time. A second Execute call while a
// run is in flight fails immediately instead of queueing; the guard is
// cooperative, not a lock around the run.
//
// Status, current position, progress, and the log are owned by the run
// loop. Concurrent readers get eventually consistent snapshots.
type Executor struct {
	maxRetries   int
	retryDelay   time.Duration
	maxExecution time.Duration
	autoRecovery bool
	previewLen   int
	manifestDir  string
	workDir      string

	logger   *log.Logger
	events   Events
	steps    *stepInterpreter
	advisor  *RecoveryAdvisor
	verifier *verify.Runner
	sink     *LogSink
	store    *ContextStore

	mu           sync.Mutex
	state        ExecStatus
	currentPhase string
	currentStep  string
	progress     float64
	errs         []error
	written      []string
	cancel       context.CancelFunc
}

// Status is a point-in-time observation of the executor
type Status struct {
	State        ExecStatus
	CurrentPhase string
	CurrentStep  string

	// Progress is completed phases over total phases, 0 to 1
	Progress float64

	// Errors counts failures accumulated so far, including retried
	// attempts
	Errors int
}

// New creates an executor from options, applying defaults for zero
// values
func New(opts Options) *Executor {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 1
	}
	if opts.MaxExecutionTime == 0 {
		opts.MaxExecutionTime = DefaultMaxExecutionTime
	}
	if opts.PreviewLen == 0 {
		opts.PreviewLen = DefaultPreviewLen
	}
	if opts.Logger == nil {
		opts.Logger = log.DefaultLogger()
	}
	if opts.Events == nil {
		opts.Events = NopEvents{}
	}
	if opts.Verifier == nil {
		opts.Verifier = verify.NewRunner(nil)
		opts.Verifier.WorkDir = opts.WorkDir
		opts.Verifier.Run = opts.Shell
	}

	e := &Executor{
		maxRetries:   opts.MaxRetries,
		retryDelay:   opts.RetryDelay,
		maxExecution: opts.MaxExecutionTime,
		autoRecovery: opts.AutoRecovery,
		previewLen:   opts.PreviewLen,
		manifestDir:  opts.ManifestDir,
		workDir:      opts.WorkDir,
		logger:       opts.Logger,
		events:       opts.Events,
		verifier:     opts.Verifier,
		sink:         NewLogSink(opts.LogRetention),
		store:        NewContextStore(opts.MaxHistorySize),
		state:        StatusIdle,
	}

	e.advisor = &RecoveryAdvisor{
		Chat:   opts.Chat,
		Models: opts.Models,
		Logger: opts.Logger.With("component", "recovery"),
	}
	e.steps = &stepInterpreter{
		commands: &CommandRunner{
			WorkDir: opts.WorkDir,
			Logger:  opts.Logger.With("component", "command"),
			Shell:   opts.Shell,
		},
		files: &FileOps{
			WorkDir: opts.WorkDir,
			Logger:  opts.Logger.With("component", "files"),
			OnWrite: e.recordWrite,
		},
		ai: &AITaskRunner{
			Chat:   opts.Chat,
			Models: opts.Models,
			Logger: opts.Logger.With("component", "ai"),
		},
		checks: opts.Verifier,
	}

	return e
}

// Execute runs the blueprint to completion and returns the result
// tree. It blocks for the whole run; cancel through ctx or Stop.
//
// Calling Execute while a run is in flight returns an immediate
// "already running" failure and leaves the in-flight run untouched.
func (e *Executor) Execute(ctx context.Context, bp *blueprint.Blueprint) *ExecutionResult {
	result := &ExecutionResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	if bp != nil {
		result.BlueprintName = bp.Name
	}

	e.mu.Lock()
	if e.state != StatusIdle {
		e.mu.Unlock()
		result.Err = errors.NewAlreadyRunningError()
		return result
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.state = StatusRunning
	e.currentPhase = ""
	e.currentStep = ""
	e.progress = 0
	e.errs = nil
	e.written = nil
	e.cancel = cancel
	e.mu.Unlock()

	defer cancel()
	e.sink.Clear()

	e.run(runCtx, bp, result)

	result.Elapsed = time.Since(result.StartedAt)
	result.Success = result.Err == nil

	e.finish(result, runCtx.Err())
	e.events.RunCompleted(*result)
	e.writeManifest(bp, result)

	return result
}

// run executes the phase loop, filling result in place
func (e *Executor) run(ctx context.Context, bp *blueprint.Blueprint, result *ExecutionResult) {
	if bp == nil {
		result.Err = errors.New(errors.KindInvalidBlueprint, "no blueprint to execute")
		return
	}
	if err := bp.Validate(); err != nil {
		result.Err = errors.NewInvalidBlueprintError(err.Error())
		return
	}

	total := len(bp.Phases)
	e.sink.Appendf(LogInfo, "run started: blueprint %q, %d phase(s)", bp.Name, total)
	e.logger.InfoContext(ctx, "run started",
		"run_id", result.RunID,
		"blueprint", bp.Name,
		"phases", total,
	)

	for i := range bp.Phases {
		phase := &bp.Phases[i]

		if err := ctx.Err(); err != nil {
			result.Err = fmt.Errorf("run stopped before phase %q: %w", phase.Name, err)
			e.sink.Appendf(LogError, "run stopped before phase %q", phase.Name)
			return
		}

		// Hard wall-clock ceiling, checked between phases. A completed
		// phase is never failed retroactively; the run refuses to start
		// the next one.
		if i > 0 && e.maxExecution > 0 {
			if elapsed := time.Since(result.StartedAt); elapsed > e.maxExecution {
				result.Err = errors.NewTimeoutError(e.maxExecution).
					WithContext("elapsed", elapsed.Round(time.Millisecond).String()).
					WithContext("next_phase", phase.Name)
				e.sink.Appendf(LogError, "time budget exceeded before phase %q (%s elapsed)",
					phase.Name, elapsed.Round(time.Second))
				return
			}
		}

		e.setCurrent(phase.Name, "")
		e.events.PhaseStarted(i, total, phase.Name)
		e.sink.Appendf(LogInfo, "phase %d/%d %q started", i+1, total, phase.Name)

		pr := e.runPhase(ctx, phase)
		result.Phases = append(result.Phases, pr)
		e.events.PhaseCompleted(pr)

		if !pr.Success {
			result.Err = fmt.Errorf("blueprint %q failed at phase %q: %w", bp.Name, phase.Name, pr.Err)
			e.sink.Appendf(LogError, "phase %q failed: %v", phase.Name, pr.Err)
			e.logger.ErrorContext(ctx, "phase failed", "phase", phase.Name, "error", pr.Err.Error())
			return
		}

		e.setProgress(float64(i+1) / float64(total))
		e.sink.Appendf(LogInfo, "phase %q completed", phase.Name)
	}

	e.sink.Appendf(LogInfo, "run completed: all %d phase(s) succeeded", total)
}

// Stop requests cancellation of the in-flight run. Best effort: the
// current unit of work is cancelled, already-applied side effects are
// not rolled back. A stopped executor settles as cancelled.
func (e *Executor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StatusRunning {
		return
	}
	e.state = StatusCancelled
	if e.cancel != nil {
		e.cancel()
	}
}

// Reset returns the executor to idle with zero progress and empty
// errors and log, whatever state it was in. It does not wait for an
// in-flight run to unwind; it requests cancellation and moves on.
func (e *Executor) Reset() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.state = StatusIdle
	e.currentPhase = ""
	e.currentStep = ""
	e.progress = 0
	e.errs = nil
	e.written = nil
	e.mu.Unlock()

	e.sink.Clear()
}

// Snapshot returns an eventually consistent view of the executor for
// outside readers
func (e *Executor) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Status{
		State:        e.state,
		CurrentPhase: e.currentPhase,
		CurrentStep:  e.currentStep,
		Progress:     e.progress,
		Errors:       len(e.errs),
	}
}

// Errors returns a copy of the failures accumulated during the current
// or most recent run, including failed attempts that were later retried
// successfully
func (e *Executor) Errors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]error, len(e.errs))
	copy(out, e.errs)
	return out
}

// Log exposes the bounded execution log for live display
func (e *Executor) Log() *LogSink {
	return e.sink
}

// Context exposes the run's key/value context store
func (e *Executor) Context() *ContextStore {
	return e.store
}

// finish settles the terminal state. A run that was cancelled stays
// cancelled even though the loop also reports a failure; a failure
// caused by run-context cancellation counts as cancelled regardless of
// how the failing step classified it.
func (e *Executor) finish(result *ExecutionResult, ctxErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancel = nil
	if e.state != StatusRunning {
		return
	}

	switch {
	case result.Success:
		e.state = StatusCompleted
	case stderrors.Is(result.Err, context.Canceled) || ctxErr == context.Canceled:
		e.state = StatusCancelled
	default:
		e.state = StatusFailed
	}
}

func (e *Executor) setCurrent(phase, step string) {
	e.mu.Lock()
	e.currentPhase = phase
	e.currentStep = step
	e.mu.Unlock()
}

func (e *Executor) setProgress(p float64) {
	e.mu.Lock()
	e.progress = p
	e.mu.Unlock()
}

func (e *Executor) recordError(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *Executor) recordWrite(path string) {
	e.mu.Lock()
	e.written = append(e.written, path)
	e.mu.Unlock()
}

func (e *Executor) writtenFiles() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.written))
	copy(out, e.written)
	return out
}
