package verify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/felixgeelhaar/blueprint/internal/log"
)

// CommandFunc runs a tool and returns its combined output (stderr after
// stdout) and exit status. A non-nil error means the tool could not be
// started; a non-zero exit is reported through the status, not the
// error.
type CommandFunc func(ctx context.Context, dir, name string, args ...string) (string, int, error)

// RunTool is the default CommandFunc
func RunTool(ctx context.Context, dir, name string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	output := stdout.String() + stderr.String()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return output, exitErr.ExitCode(), nil
		}
		return output, -1, fmt.Errorf("run %s: %w", name, err)
	}

	return output, 0, nil
}

// BuildAgent invokes a dialect's build and test tooling and parses the
// output into structured results
type BuildAgent struct {
	Dialect Dialect
	WorkDir string
	Logger  *log.Logger

	// Run overrides tool invocation, mainly for tests. Nil means
	// RunTool.
	Run CommandFunc
}

// NewBuildAgent creates a build agent for an explicitly chosen dialect
func NewBuildAgent(dialect Dialect) *BuildAgent {
	return &BuildAgent{
		Dialect: dialect,
		Logger:  log.DefaultLogger(),
	}
}

// VerifyBuild runs the dialect's build tool and parses its output.
// Parsing is best-effort, so an error here always means the tool could
// not be invoked, never that the output was unexpected.
func (a *BuildAgent) VerifyBuild(ctx context.Context, scheme string) (*BuildResult, error) {
	tool, args := a.Dialect.BuildArgs(scheme)

	raw, exitCode, err := a.command(ctx, tool, args...)
	if err != nil {
		return nil, err
	}

	result := a.Dialect.ParseBuild(raw)
	a.logger().DebugContext(ctx, "build verification finished",
		"dialect", a.Dialect.Name(),
		"exit_code", exitCode,
		"errors", len(result.Errors),
		"warnings", len(result.Warnings),
		"success", result.Success,
	)

	return result, nil
}

// RunTests runs the dialect's test tool and parses its output
func (a *BuildAgent) RunTests(ctx context.Context, target string) (*TestResult, error) {
	tool, args := a.Dialect.TestArgs(target)

	raw, exitCode, err := a.command(ctx, tool, args...)
	if err != nil {
		return nil, err
	}

	result := a.Dialect.ParseTests(raw)
	a.logger().DebugContext(ctx, "test verification finished",
		"dialect", a.Dialect.Name(),
		"exit_code", exitCode,
		"failures", len(result.Failures),
		"success", result.Success,
	)

	return result, nil
}

func (a *BuildAgent) command(ctx context.Context, name string, args ...string) (string, int, error) {
	run := a.Run
	if run == nil {
		run = RunTool
	}
	return run(ctx, a.WorkDir, name, args...)
}

func (a *BuildAgent) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.DefaultLogger()
}
