package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/log"
)

// Runner executes verification checks. Build and test checks delegate
// to the BuildAgent; file, command, and custom checks run directly.
type Runner struct {
	Agent   *BuildAgent
	WorkDir string
	Logger  *log.Logger

	// Run overrides command check invocation, mainly for tests. Nil
	// means RunTool.
	Run CommandFunc
}

// NewRunner creates a verification runner backed by a build agent
func NewRunner(agent *BuildAgent) *Runner {
	r := &Runner{
		Agent:  agent,
		Logger: log.DefaultLogger(),
	}
	if agent != nil {
		r.WorkDir = agent.WorkDir
	}
	return r
}

// Check runs a single verification check. A nil error means the check
// passed; a nil check passes trivially.
func (r *Runner) Check(ctx context.Context, check *blueprint.VerificationCheck) error {
	if check == nil {
		return nil
	}

	switch check.Kind {
	case blueprint.CheckBuildSucceeds:
		return r.checkBuild(ctx, check)
	case blueprint.CheckTestsPass:
		return r.checkTests(ctx, check)
	case blueprint.CheckFileExists:
		return r.checkFileExists(check)
	case blueprint.CheckCommandSucceeds:
		return r.checkCommand(ctx, check)
	case blueprint.CheckCustom:
		return r.checkCustom(ctx, check)
	default:
		return fmt.Errorf("check kind %q is not valid", check.Kind)
	}
}

// checkBuild passes only when the parsed output has zero errors and the
// dialect's success marker. Either alone is insufficient.
func (r *Runner) checkBuild(ctx context.Context, check *blueprint.VerificationCheck) error {
	if r.Agent == nil {
		return fmt.Errorf("build check requires a build agent")
	}

	result, err := r.Agent.VerifyBuild(ctx, check.Scheme)
	if err != nil {
		return errors.Wrap(errors.KindBuildFailed, "build tool could not run", err)
	}
	if result.Success {
		return nil
	}

	message := joinDiagnostics(result.Errors)
	if message == "" {
		message = "build did not report success"
	}
	return errors.New(errors.KindBuildFailed, message).
		WithContext("error_count", strconv.Itoa(len(result.Errors)))
}

func (r *Runner) checkTests(ctx context.Context, check *blueprint.VerificationCheck) error {
	if r.Agent == nil {
		return fmt.Errorf("tests check requires a build agent")
	}

	result, err := r.Agent.RunTests(ctx, check.Target)
	if err != nil {
		return errors.Wrap(errors.KindTestFailed, "test tool could not run", err)
	}
	if result.Success {
		return nil
	}

	message := joinFailures(result.Failures)
	if message == "" {
		message = "tests did not report success"
	}
	return errors.New(errors.KindTestFailed, message).
		WithContext("failure_count", strconv.Itoa(len(result.Failures)))
}

func (r *Runner) checkFileExists(check *blueprint.VerificationCheck) error {
	path := check.Path
	if !filepath.IsAbs(path) && r.WorkDir != "" {
		path = filepath.Join(r.WorkDir, path)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFoundError(check.Path)
		}
		if os.IsPermission(err) {
			return errors.NewPermissionDeniedError(check.Path)
		}
		return fmt.Errorf("stat %s: %w", check.Path, err)
	}
	return nil
}

// checkCommand classifies by exit status alone. Output content never
// fails a verification command, unlike step command execution.
func (r *Runner) checkCommand(ctx context.Context, check *blueprint.VerificationCheck) error {
	run := r.Run
	if run == nil {
		run = RunTool
	}

	_, exitCode, err := run(ctx, r.WorkDir, "bash", "-c", check.Command)
	if err != nil {
		return errors.Wrap(errors.KindCommandFailed, "verification command could not run", err)
	}

	r.logger().DebugContext(ctx, "verification command finished",
		"command", check.Command,
		"exit_code", exitCode,
	)

	if exitCode != 0 {
		return errors.NewCommandFailedError(check.Command, exitCode)
	}
	return nil
}

func (r *Runner) checkCustom(ctx context.Context, check *blueprint.VerificationCheck) error {
	if check.Predicate == nil {
		return fmt.Errorf("custom check requires a predicate")
	}

	ok, err := check.Predicate(ctx)
	if err != nil {
		return fmt.Errorf("custom check: %w", err)
	}
	if !ok {
		if check.Description != "" {
			return fmt.Errorf("custom check failed: %s", check.Description)
		}
		return fmt.Errorf("custom check failed")
	}
	return nil
}

func (r *Runner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.DefaultLogger()
}

func joinDiagnostics(diags []BuildDiagnostic) string {
	messages := make([]string, 0, len(diags))
	for _, d := range diags {
		messages = append(messages, d.Message)
	}
	return strings.Join(messages, "\n")
}

func joinFailures(failures []TestFailure) string {
	messages := make([]string, 0, len(failures))
	for _, f := range failures {
		if f.Message != "" {
			messages = append(messages, f.Test+": "+f.Message)
		} else {
			messages = append(messages, f.Test)
		}
	}
	return strings.Join(messages, "\n")
}
