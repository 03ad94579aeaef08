package executor

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/verify"
)

// stepInterpreter dispatches steps to their handlers. Conditionals
// recurse: a branch step may itself be conditional, so interpretation
// is a tree walk.
type stepInterpreter struct {
	commands *CommandRunner
	files    *FileOps
	ai       *AITaskRunner
	checks   *verify.Runner
}

// Run executes one step and returns its result. Every failure mode is
// folded into the result; Run itself never panics or returns an error.
func (si *stepInterpreter) Run(ctx context.Context, step *blueprint.Step) StepResult {
	desc := StepDescription(step)

	if ctx.Err() != nil {
		return StepResult{
			Description: desc,
			Err:         fmt.Errorf("step not attempted: %w", cancellationError(ctx)),
		}
	}

	switch step.Type {
	case blueprint.StepCommand:
		return si.commands.Run(ctx, desc, step.Command)

	case blueprint.StepFileOperation:
		return si.files.Apply(step.FileOp, desc)

	case blueprint.StepAITask:
		return si.ai.Run(ctx, step.AITask, desc)

	case blueprint.StepVerification:
		return si.runCheck(ctx, step.Check, desc)

	case blueprint.StepConditional:
		return si.runConditional(ctx, step.Cond, desc)

	default:
		return StepResult{
			Description: desc,
			Err:         fmt.Errorf("step type %q is not valid", step.Type),
		}
	}
}

func (si *stepInterpreter) runCheck(ctx context.Context, check *blueprint.VerificationCheck, desc string) StepResult {
	result := StepResult{Description: desc}
	if err := si.checks.Check(ctx, check); err != nil {
		result.Err = err
		return result
	}
	result.Success = true
	return result
}

// runConditional evaluates the condition, walks the selected branch
// with short-circuit AND semantics, and on full branch success returns
// a synthesized result under the conditional's own description. A
// failing branch step's result is returned as-is, so the failure names
// the actual step that broke.
func (si *stepInterpreter) runConditional(ctx context.Context, cond *blueprint.Conditional, desc string) StepResult {
	if cond == nil {
		return StepResult{Description: desc, Err: fmt.Errorf("conditional step has no condition")}
	}

	branch := cond.Then
	if !si.evaluate(ctx, &cond.Condition) {
		branch = cond.Else
	}

	for i := range branch {
		result := si.Run(ctx, &branch[i])
		if !result.Success {
			return result
		}
	}

	// An empty selected branch passes vacuously
	return StepResult{Description: desc, Success: true}
}

// evaluate answers a condition. Conditions never fail: a probe that
// cannot run is simply false.
func (si *stepInterpreter) evaluate(ctx context.Context, cond *blueprint.Condition) bool {
	switch cond.Kind {
	case blueprint.ConditionAlways:
		return true
	case blueprint.ConditionNever:
		return false
	case blueprint.ConditionFileExists:
		return si.files.statExists(cond.Path)
	case blueprint.ConditionCommandSucceeds:
		return si.commands.Succeeds(ctx, cond.Command)
	default:
		return false
	}
}

// StepDescription labels a step for results and logs, synthesizing one
// from the payload when the author left the description empty
func StepDescription(step *blueprint.Step) string {
	if step.Description != "" {
		return step.Description
	}

	switch step.Type {
	case blueprint.StepCommand:
		return "run: " + step.Command
	case blueprint.StepFileOperation:
		if step.FileOp != nil {
			return string(step.FileOp.Op) + " " + step.FileOp.Path
		}
	case blueprint.StepAITask:
		if step.AITask != nil && step.AITask.Description != "" {
			return step.AITask.Description
		}
		return "ai task"
	case blueprint.StepVerification:
		if step.Check != nil {
			return "verify " + string(step.Check.Kind)
		}
	case blueprint.StepConditional:
		if step.Cond != nil {
			return "conditional on " + string(step.Cond.Condition.Kind)
		}
	}
	return string(step.Type) + " step"
}

// cancellationError wraps a context error in the engine's timeout kind
// when the deadline passed, else reports plain cancellation
func cancellationError(ctx context.Context) error {
	if ctx.Err() == context.DeadlineExceeded {
		return errors.Wrap(errors.KindTimeout, "execution deadline exceeded", ctx.Err())
	}
	return ctx.Err()
}
