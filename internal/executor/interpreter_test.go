package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/provider"
	"github.com/felixgeelhaar/blueprint/internal/verify"
)

// newTestInterpreter wires an interpreter with a fake shell, a real
// temp dir for file steps, and a scripted AI client
func newTestInterpreter(t *testing.T, shell *fakeShell, responses ...provider.ScriptedResponse) (*stepInterpreter, string) {
	t.Helper()
	dir := t.TempDir()

	checks := verify.NewRunner(nil)
	checks.WorkDir = dir
	checks.Run = shell.run

	si := &stepInterpreter{
		commands: &CommandRunner{WorkDir: dir, Shell: shell.run},
		files:    &FileOps{WorkDir: dir},
		ai:       &AITaskRunner{Chat: provider.NewScriptedClient(responses...)},
		checks:   checks,
	}
	return si, dir
}

func TestInterpreterDispatchCommand(t *testing.T) {
	fake := &fakeShell{output: "done\n"}
	si, _ := newTestInterpreter(t, fake)

	result := si.Run(context.Background(), &blueprint.Step{
		Type:    blueprint.StepCommand,
		Command: "make",
	})
	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	if fake.calls != 1 {
		t.Errorf("shell calls = %d, want 1", fake.calls)
	}
}

func TestInterpreterDispatchFileOperation(t *testing.T) {
	si, dir := newTestInterpreter(t, &fakeShell{})

	result := si.Run(context.Background(), &blueprint.Step{
		Type:   blueprint.StepFileOperation,
		FileOp: &blueprint.FileOperation{Op: blueprint.FileWrite, Path: "out.txt", Content: "data"},
	})
	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	if _, err := os.Stat(filepath.Join(dir, "out.txt")); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestInterpreterDispatchAITask(t *testing.T) {
	si, _ := newTestInterpreter(t, &fakeShell{}, provider.ScriptedResponse{Deltas: []string{"generated"}})

	result := si.Run(context.Background(), &blueprint.Step{
		Type:   blueprint.StepAITask,
		AITask: &blueprint.AITaskDescriptor{Prompt: "p"},
	})
	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	if result.Output != "generated" {
		t.Errorf("Output = %q, want %q", result.Output, "generated")
	}
}

func TestInterpreterDispatchVerification(t *testing.T) {
	si, dir := newTestInterpreter(t, &fakeShell{})
	if err := os.WriteFile(filepath.Join(dir, "artifact.bin"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	result := si.Run(context.Background(), &blueprint.Step{
		Type:  blueprint.StepVerification,
		Check: &blueprint.VerificationCheck{Kind: blueprint.CheckFileExists, Path: "artifact.bin"},
	})
	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}

	result = si.Run(context.Background(), &blueprint.Step{
		Type:  blueprint.StepVerification,
		Check: &blueprint.VerificationCheck{Kind: blueprint.CheckFileExists, Path: "missing.bin"},
	})
	if result.Success {
		t.Fatal("Success = true, want check failure")
	}
}

func TestInterpreterInvalidType(t *testing.T) {
	si, _ := newTestInterpreter(t, &fakeShell{})

	result := si.Run(context.Background(), &blueprint.Step{Type: "teleport"})
	if result.Success {
		t.Fatal("Success = true, want failure for unknown type")
	}
	if !strings.Contains(result.Err.Error(), "teleport") {
		t.Errorf("error = %v, want the bogus type named", result.Err)
	}
}

func TestInterpreterCancelledContext(t *testing.T) {
	fake := &fakeShell{}
	si, _ := newTestInterpreter(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := si.Run(ctx, &blueprint.Step{Type: blueprint.StepCommand, Command: "make"})
	if result.Success {
		t.Fatal("Success = true, want failure for cancelled context")
	}
	if !strings.Contains(result.Err.Error(), "not attempted") {
		t.Errorf("error = %v, want a not-attempted failure", result.Err)
	}
	if fake.calls != 0 {
		t.Errorf("shell calls = %d, want 0 after cancellation", fake.calls)
	}
}

func TestInterpreterConditionalThenBranch(t *testing.T) {
	fake := &fakeShell{output: "ok\n"}
	si, dir := newTestInterpreter(t, fake)
	if err := os.WriteFile(filepath.Join(dir, "flag"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	result := si.Run(context.Background(), &blueprint.Step{
		Description: "deploy if flagged",
		Type:        blueprint.StepConditional,
		Cond: &blueprint.Conditional{
			Condition: blueprint.Condition{Kind: blueprint.ConditionFileExists, Path: "flag"},
			Then: []blueprint.Step{
				{Type: blueprint.StepCommand, Command: "deploy"},
			},
			Else: []blueprint.Step{
				{Type: blueprint.StepCommand, Command: "skip"},
			},
		},
	})

	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	// Full branch success is reported under the conditional's own label
	if result.Description != "deploy if flagged" {
		t.Errorf("Description = %q, want the conditional's description", result.Description)
	}
	if fake.gotArgs[1] != "deploy" {
		t.Errorf("ran %q, want the then branch", fake.gotArgs[1])
	}
}

func TestInterpreterConditionalElseBranch(t *testing.T) {
	fake := &fakeShell{output: "ok\n"}
	si, _ := newTestInterpreter(t, fake)

	result := si.Run(context.Background(), &blueprint.Step{
		Type: blueprint.StepConditional,
		Cond: &blueprint.Conditional{
			Condition: blueprint.Condition{Kind: blueprint.ConditionFileExists, Path: "nope"},
			Then:      []blueprint.Step{{Type: blueprint.StepCommand, Command: "deploy"}},
			Else:      []blueprint.Step{{Type: blueprint.StepCommand, Command: "cleanup"}},
		},
	})

	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	if fake.gotArgs[1] != "cleanup" {
		t.Errorf("ran %q, want the else branch", fake.gotArgs[1])
	}
}

func TestInterpreterConditionalEmptyBranchPasses(t *testing.T) {
	si, _ := newTestInterpreter(t, &fakeShell{})

	// Condition false with no else steps passes vacuously
	result := si.Run(context.Background(), &blueprint.Step{
		Type: blueprint.StepConditional,
		Cond: &blueprint.Conditional{
			Condition: blueprint.Condition{Kind: blueprint.ConditionNever},
			Then:      []blueprint.Step{{Type: blueprint.StepCommand, Command: "never"}},
		},
	})
	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
}

func TestInterpreterConditionalShortCircuit(t *testing.T) {
	// The second branch step fails; the third must not run
	script := &scriptedShell{results: []shellResult{
		{output: "ok"},
		{output: "boom", exitCode: 1},
		{output: "unreachable"},
	}}
	si, _ := newTestInterpreter(t, &fakeShell{})
	si.commands.Shell = script.run

	result := si.Run(context.Background(), &blueprint.Step{
		Description: "three part branch",
		Type:        blueprint.StepConditional,
		Cond: &blueprint.Conditional{
			Condition: blueprint.Condition{Kind: blueprint.ConditionAlways},
			Then: []blueprint.Step{
				{Description: "first", Type: blueprint.StepCommand, Command: "a"},
				{Description: "second", Type: blueprint.StepCommand, Command: "b"},
				{Description: "third", Type: blueprint.StepCommand, Command: "c"},
			},
		},
	})

	if result.Success {
		t.Fatal("Success = true, want branch failure")
	}
	// The failure carries the actual failing step, not the conditional
	if result.Description != "second" {
		t.Errorf("Description = %q, want the failing branch step", result.Description)
	}
	if got := script.callCount(); got != 2 {
		t.Errorf("shell calls = %d, want 2 (short circuit)", got)
	}
}

func TestInterpreterConditionalNested(t *testing.T) {
	fake := &fakeShell{output: "ok\n"}
	si, _ := newTestInterpreter(t, fake)

	result := si.Run(context.Background(), &blueprint.Step{
		Type: blueprint.StepConditional,
		Cond: &blueprint.Conditional{
			Condition: blueprint.Condition{Kind: blueprint.ConditionAlways},
			Then: []blueprint.Step{
				{
					Type: blueprint.StepConditional,
					Cond: &blueprint.Conditional{
						Condition: blueprint.Condition{Kind: blueprint.ConditionAlways},
						Then:      []blueprint.Step{{Type: blueprint.StepCommand, Command: "inner"}},
					},
				},
			},
		},
	})

	if !result.Success {
		t.Fatalf("Success = false, err = %v", result.Err)
	}
	if fake.gotArgs[1] != "inner" {
		t.Errorf("ran %q, want the nested branch command", fake.gotArgs[1])
	}
}

func TestInterpreterConditionalNilCondition(t *testing.T) {
	si, _ := newTestInterpreter(t, &fakeShell{})

	result := si.Run(context.Background(), &blueprint.Step{Type: blueprint.StepConditional})
	if result.Success {
		t.Fatal("Success = true, want failure for missing condition")
	}
}

func TestEvaluateConditions(t *testing.T) {
	okShell := &fakeShell{exitCode: 0}
	si, dir := newTestInterpreter(t, okShell)
	if err := os.WriteFile(filepath.Join(dir, "present"), nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cond blueprint.Condition
		want bool
	}{
		{"always", blueprint.Condition{Kind: blueprint.ConditionAlways}, true},
		{"never", blueprint.Condition{Kind: blueprint.ConditionNever}, false},
		{"file exists", blueprint.Condition{Kind: blueprint.ConditionFileExists, Path: "present"}, true},
		{"file missing", blueprint.Condition{Kind: blueprint.ConditionFileExists, Path: "absent"}, false},
		{"command succeeds", blueprint.Condition{Kind: blueprint.ConditionCommandSucceeds, Command: "true"}, true},
		{"unknown kind", blueprint.Condition{Kind: "maybe"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := si.evaluate(context.Background(), &tt.cond); got != tt.want {
				t.Errorf("evaluate = %v, want %v", got, tt.want)
			}
		})
	}

	// A failing probe is an answer, not an error
	failShell := &fakeShell{exitCode: 1}
	si.commands.Shell = failShell.run
	if si.evaluate(context.Background(), &blueprint.Condition{
		Kind: blueprint.ConditionCommandSucceeds, Command: "false",
	}) {
		t.Error("evaluate = true, want false for non-zero probe")
	}
}

func TestStepDescriptionSynthesis(t *testing.T) {
	tests := []struct {
		name string
		step blueprint.Step
		want string
	}{
		{
			"explicit wins",
			blueprint.Step{Description: "named", Type: blueprint.StepCommand, Command: "x"},
			"named",
		},
		{
			"command",
			blueprint.Step{Type: blueprint.StepCommand, Command: "make build"},
			"run: make build",
		},
		{
			"file op",
			blueprint.Step{Type: blueprint.StepFileOperation, FileOp: &blueprint.FileOperation{Op: blueprint.FileWrite, Path: "a.txt"}},
			"write a.txt",
		},
		{
			"ai with task description",
			blueprint.Step{Type: blueprint.StepAITask, AITask: &blueprint.AITaskDescriptor{Description: "gen code"}},
			"gen code",
		},
		{
			"ai bare",
			blueprint.Step{Type: blueprint.StepAITask, AITask: &blueprint.AITaskDescriptor{}},
			"ai task",
		},
		{
			"verification",
			blueprint.Step{Type: blueprint.StepVerification, Check: &blueprint.VerificationCheck{Kind: blueprint.CheckTestsPass}},
			"verify tests_pass",
		},
		{
			"conditional",
			blueprint.Step{Type: blueprint.StepConditional, Cond: &blueprint.Conditional{Condition: blueprint.Condition{Kind: blueprint.ConditionFileExists}}},
			"conditional on file_exists",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StepDescription(&tt.step); got != tt.want {
				t.Errorf("StepDescription = %q, want %q", got, tt.want)
			}
		})
	}
}
