package executor

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/verify"
)

// failureMarkers flag command output that indicates failure even when
// the process exits zero. Deliberately conservative toward false
// positives: a tool that prints "error:" in a success path will be
// classified as failed.
var failureMarkers = []string{"error:", "FAILED"}

// CommandRunner executes shell command steps. Output is captured as
// stdout followed by stderr; the full text lands in the StepResult
// while log previews are truncated elsewhere.
type CommandRunner struct {
	// WorkDir is the working directory for spawned commands
	WorkDir string

	Logger *log.Logger

	// Shell overrides process execution, mainly for tests. Nil means
	// verify.RunTool.
	Shell verify.CommandFunc
}

// Run executes command through the shell and classifies the outcome.
// A command fails when it exits non-zero or its combined output
// contains a failure marker. A shell that cannot be spawned at all
// yields a failed result with a capability error, never a panic.
func (r *CommandRunner) Run(ctx context.Context, description, command string) StepResult {
	result := StepResult{Description: description}

	shell := r.Shell
	if shell == nil {
		shell = verify.RunTool
	}

	output, exitCode, err := shell(ctx, r.WorkDir, "bash", "-c", command)
	result.Output = output
	if err != nil {
		result.Err = errors.Wrap(errors.KindCommandFailed,
			"command execution is not available on this platform", err).
			WithContext("command", command)
		return result
	}

	r.logger().DebugContext(ctx, "command finished",
		"command", command,
		"exit_code", exitCode,
		"output_len", len(output),
	)

	if exitCode == 0 && !containsFailureMarker(output) {
		result.Success = true
		return result
	}

	result.Err = commandFailure(command, exitCode, output)
	return result
}

// Succeeds runs command and reports whether it exited zero. Conditions
// use this: an answer, not a failure, so output markers are ignored.
func (r *CommandRunner) Succeeds(ctx context.Context, command string) bool {
	shell := r.Shell
	if shell == nil {
		shell = verify.RunTool
	}

	_, exitCode, err := shell(ctx, r.WorkDir, "bash", "-c", command)
	return err == nil && exitCode == 0
}

func (r *CommandRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.DefaultLogger()
}

// commandFailure builds the step error with one representative message:
// the first output line carrying an error token, else the exit status,
// else the marker that tripped the classifier. Multi-error aggregation
// belongs to build verification, not here.
func commandFailure(command string, exitCode int, output string) error {
	message := firstErrorLine(output)
	if message == "" {
		if exitCode != 0 {
			message = "command failed with exit code " + strconv.Itoa(exitCode)
		} else {
			message = "command output contains a failure marker"
		}
	}

	return errors.New(errors.KindCommandFailed, message).
		WithContext("command", command).
		WithContext("exit_code", strconv.Itoa(exitCode)).
		WithSuggestion("Run the command manually to reproduce the failure")
}

// firstErrorLine returns the first output line containing "error:" or
// "Error:", or empty when no line matches
func firstErrorLine(output string) string {
	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "error:") || strings.Contains(line, "Error:") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func containsFailureMarker(output string) bool {
	for _, marker := range failureMarkers {
		if strings.Contains(output, marker) {
			return true
		}
	}
	return false
}

// preview truncates s for log display. Full text always stays on the
// StepResult.
func preview(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
