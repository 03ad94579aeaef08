package verify

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
)

func TestRunnerNilCheck(t *testing.T) {
	r := NewRunner(nil)
	if err := r.Check(context.Background(), nil); err != nil {
		t.Errorf("Check(nil) error = %v, want nil", err)
	}
}

func TestRunnerBuildCheck(t *testing.T) {
	fake := &fakeCommand{
		output: strings.Join([]string{
			"file.swift:10:3: error: cannot find type 'Foo' in scope",
			"file.swift:22:1: error: missing return in function",
			"** BUILD FAILED **",
		}, "\n"),
	}
	agent := NewBuildAgent(&xcodebuildDialect{})
	agent.Run = fake.run
	r := NewRunner(agent)

	err := r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind:   blueprint.CheckBuildSucceeds,
		Scheme: "App",
	})
	if err == nil {
		t.Fatal("Check() error = nil, want build failure")
	}
	if kind := errors.KindOf(err); kind != errors.KindBuildFailed {
		t.Errorf("KindOf(err) = %q, want %q", kind, errors.KindBuildFailed)
	}

	// Failure message is the newline-joined parsed error messages
	var bpErr *errors.BlueprintError
	if !stderrors.As(err, &bpErr) {
		t.Fatalf("error type = %T, want *BlueprintError", err)
	}
	want := "cannot find type 'Foo' in scope\nmissing return in function"
	if bpErr.Message != want {
		t.Errorf("Message = %q, want %q", bpErr.Message, want)
	}
	if bpErr.Context["error_count"] != "2" {
		t.Errorf("Context[error_count] = %q, want 2", bpErr.Context["error_count"])
	}
}

func TestRunnerBuildCheckPass(t *testing.T) {
	fake := &fakeCommand{output: "** BUILD SUCCEEDED **\n"}
	agent := NewBuildAgent(&xcodebuildDialect{})
	agent.Run = fake.run
	r := NewRunner(agent)

	err := r.Check(context.Background(), &blueprint.VerificationCheck{Kind: blueprint.CheckBuildSucceeds})
	if err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestRunnerBuildCheckNoDiagnostics(t *testing.T) {
	// Missing marker with no parsed errors still fails, with a
	// fallback message
	fake := &fakeCommand{output: "tool crashed before building\n"}
	agent := NewBuildAgent(&xcodebuildDialect{})
	agent.Run = fake.run
	r := NewRunner(agent)

	err := r.Check(context.Background(), &blueprint.VerificationCheck{Kind: blueprint.CheckBuildSucceeds})
	if err == nil {
		t.Fatal("Check() error = nil, want failure")
	}
	if !strings.Contains(err.Error(), "build did not report success") {
		t.Errorf("error = %q, want fallback message", err.Error())
	}
}

func TestRunnerTestsCheck(t *testing.T) {
	fake := &fakeCommand{
		output: "--- FAIL: TestRefund (0.00s)\n    payment_test.go:42: want 12\nFAIL\n",
	}
	agent := NewBuildAgent(&goDialect{})
	agent.Run = fake.run
	r := NewRunner(agent)

	err := r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind:   blueprint.CheckTestsPass,
		Target: "TestRefund",
	})
	if err == nil {
		t.Fatal("Check() error = nil, want test failure")
	}
	if kind := errors.KindOf(err); kind != errors.KindTestFailed {
		t.Errorf("KindOf(err) = %q, want %q", kind, errors.KindTestFailed)
	}
	if !strings.Contains(err.Error(), "TestRefund") {
		t.Errorf("error = %q, want failing test name", err.Error())
	}
}

func TestRunnerTestsCheckPass(t *testing.T) {
	fake := &fakeCommand{output: "ok  \tgithub.com/example/payment\t0.01s\n"}
	agent := NewBuildAgent(&goDialect{})
	agent.Run = fake.run
	r := NewRunner(agent)

	err := r.Check(context.Background(), &blueprint.VerificationCheck{Kind: blueprint.CheckTestsPass})
	if err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}
}

func TestRunnerFileExistsCheck(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "dist"), []byte("binary"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	r := NewRunner(nil)
	r.WorkDir = dir

	if err := r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind: blueprint.CheckFileExists,
		Path: "dist",
	}); err != nil {
		t.Errorf("Check() error = %v, want nil for existing file", err)
	}

	err := r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind: blueprint.CheckFileExists,
		Path: "missing",
	})
	if err == nil {
		t.Fatal("Check() error = nil, want missing file failure")
	}
	if kind := errors.KindOf(err); kind != errors.KindFileNotFound {
		t.Errorf("KindOf(err) = %q, want %q", kind, errors.KindFileNotFound)
	}
}

func TestRunnerCommandCheckExitStatusOnly(t *testing.T) {
	r := NewRunner(nil)

	// Output content does not matter here, only the exit status.
	// "error:" in output would fail a step command but not a check.
	err := r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind:    blueprint.CheckCommandSucceeds,
		Command: "echo 'error: looks scary'; exit 0",
	})
	if err != nil {
		t.Errorf("Check() error = %v, want nil for exit 0", err)
	}

	err = r.Check(context.Background(), &blueprint.VerificationCheck{
		Kind:    blueprint.CheckCommandSucceeds,
		Command: "exit 4",
	})
	if err == nil {
		t.Fatal("Check() error = nil, want command failure")
	}
	if kind := errors.KindOf(err); kind != errors.KindCommandFailed {
		t.Errorf("KindOf(err) = %q, want %q", kind, errors.KindCommandFailed)
	}
}

func TestRunnerCustomCheck(t *testing.T) {
	r := NewRunner(nil)

	pass := &blueprint.VerificationCheck{
		Kind:      blueprint.CheckCustom,
		Predicate: func(context.Context) (bool, error) { return true, nil },
	}
	if err := r.Check(context.Background(), pass); err != nil {
		t.Errorf("Check() error = %v, want nil", err)
	}

	fail := &blueprint.VerificationCheck{
		Kind:        blueprint.CheckCustom,
		Description: "artifact signed",
		Predicate:   func(context.Context) (bool, error) { return false, nil },
	}
	err := r.Check(context.Background(), fail)
	if err == nil {
		t.Fatal("Check() error = nil, want custom failure")
	}
	if !strings.Contains(err.Error(), "artifact signed") {
		t.Errorf("error = %q, want description in message", err.Error())
	}

	broken := &blueprint.VerificationCheck{
		Kind:      blueprint.CheckCustom,
		Predicate: func(context.Context) (bool, error) { return false, fmt.Errorf("probe exploded") },
	}
	err = r.Check(context.Background(), broken)
	if err == nil || !strings.Contains(err.Error(), "probe exploded") {
		t.Errorf("error = %v, want predicate error propagated", err)
	}
}

func TestRunnerCustomCheckContext(t *testing.T) {
	r := NewRunner(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	check := &blueprint.VerificationCheck{
		Kind: blueprint.CheckCustom,
		Predicate: func(ctx context.Context) (bool, error) {
			return false, ctx.Err()
		},
	}
	err := r.Check(ctx, check)
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Errorf("error = %v, want context cancellation surfaced", err)
	}
}
