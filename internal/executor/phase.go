package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
)

// runPhase executes one phase: steps in order, then the verification
// gate. The first failing step ends the phase; later steps are not
// attempted and appear nowhere in the result.
func (e *Executor) runPhase(ctx context.Context, phase *blueprint.Phase) PhaseResult {
	pr := PhaseResult{Name: phase.Name}

	for i := range phase.Steps {
		step := &phase.Steps[i]
		desc := StepDescription(step)

		e.setCurrent(phase.Name, desc)
		e.events.StepStarted(phase.Name, desc)

		result := e.runStepWithRetry(ctx, step)
		pr.Steps = append(pr.Steps, result)
		e.events.StepCompleted(phase.Name, result)

		if !result.Success {
			pr.Err = fmt.Errorf("step %q failed: %w", result.Description, result.Err)
			return pr
		}
	}

	// The gate runs once; only steps get retries. A phase whose steps
	// all succeeded still fails here.
	if phase.Verification != nil {
		e.setCurrent(phase.Name, "verification")
		if err := e.verifier.Check(ctx, phase.Verification); err != nil {
			e.recordError(err)
			e.sink.Appendf(LogError, "phase %q verification failed: %s", phase.Name, preview(err.Error(), e.previewLen))
			pr.Err = fmt.Errorf("phase verification failed: %w", err)
			return pr
		}
		e.sink.Appendf(LogInfo, "phase %q verification passed", phase.Name)
	}

	pr.Success = true
	return pr
}

// runStepWithRetry drives one step through up to maxRetries attempts
// and returns the final attempt's result. Failed attempts that were
// later retried successfully leave no trace in the result, only in the
// error record and the log.
//
// When AutoRecovery is on and attempts remain, the advisor is asked for
// a hint after each failure. Hints are logged and attached to the
// failure as a suggestion; the retried step itself is never altered.
func (e *Executor) runStepWithRetry(ctx context.Context, step *blueprint.Step) StepResult {
	var result StepResult

	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		result = e.steps.Run(ctx, step)

		if result.Success {
			e.sink.Appendf(LogInfo, "step %q completed", result.Description)
			if result.Output != "" {
				e.sink.Appendf(LogInfo, "output: %s", preview(result.Output, e.previewLen))
			}
			return result
		}

		e.recordError(result.Err)

		if attempt == e.maxRetries || ctx.Err() != nil {
			e.sink.Appendf(LogError, "step %q failed (attempt %d/%d): %s",
				result.Description, attempt, e.maxRetries, preview(errText(result.Err), e.previewLen))
			break
		}

		e.sink.Appendf(LogWarning, "step %q failed (attempt %d/%d), retrying",
			result.Description, attempt, e.maxRetries)

		if e.autoRecovery {
			if hint := e.advisor.Suggest(ctx, result.Err); hint != "" {
				e.sink.Appendf(LogInfo, "recovery hint: %s", hint)
				e.logger.InfoContext(ctx, "recovery hint", "step", result.Description, "hint", hint)
				if be, ok := result.Err.(*errors.BlueprintError); ok {
					be.WithSuggestion(hint)
				}
			}
		}

		if e.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return result
			case <-time.After(e.retryDelay):
			}
		}
	}

	return result
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
