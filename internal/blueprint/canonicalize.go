package blueprint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Canonicalize returns a stable representation of the blueprint for
// hashing. Map keys are emitted in sorted order by json.Marshal, so two
// blueprints with identical content always produce identical bytes
// regardless of the document format they were loaded from. Custom check
// predicates are excluded because functions have no canonical form.
func Canonicalize(bp *Blueprint) ([]byte, error) {
	canonical := map[string]interface{}{
		"name":        bp.Name,
		"description": bp.Description,
		"phases":      canonicalPhases(bp.Phases),
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return nil, fmt.Errorf("marshal canonical blueprint: %w", err)
	}

	return data, nil
}

// Hash computes the BLAKE3 hash of the canonicalized blueprint
func Hash(bp *Blueprint) (string, error) {
	canonical, err := Canonicalize(bp)
	if err != nil {
		return "", err
	}

	hash := blake3.Sum256(canonical)
	return "blake3:" + hex.EncodeToString(hash[:]), nil
}

func canonicalPhases(phases []Phase) []interface{} {
	result := make([]interface{}, 0, len(phases))
	for i := range phases {
		phase := &phases[i]
		m := map[string]interface{}{
			"name":        phase.Name,
			"description": phase.Description,
			"steps":       canonicalSteps(phase.Steps),
		}
		if phase.Verification != nil {
			m["verification"] = canonicalCheck(phase.Verification)
		}
		result = append(result, m)
	}
	return result
}

func canonicalSteps(steps []Step) []interface{} {
	result := make([]interface{}, 0, len(steps))
	for i := range steps {
		result = append(result, canonicalStep(&steps[i]))
	}
	return result
}

func canonicalStep(step *Step) map[string]interface{} {
	m := map[string]interface{}{
		"type": string(step.Type),
	}
	if step.Description != "" {
		m["description"] = step.Description
	}
	if step.Command != "" {
		m["command"] = step.Command
	}
	if step.FileOp != nil {
		m["file"] = canonicalFileOp(step.FileOp)
	}
	if step.AITask != nil {
		m["ai"] = canonicalAITask(step.AITask)
	}
	if step.Check != nil {
		m["verify"] = canonicalCheck(step.Check)
	}
	if step.Cond != nil {
		m["conditional"] = canonicalConditional(step.Cond)
	}
	return m
}

func canonicalConditional(cond *Conditional) map[string]interface{} {
	m := map[string]interface{}{
		"condition": map[string]interface{}{
			"kind":    string(cond.Condition.Kind),
			"path":    cond.Condition.Path,
			"command": cond.Condition.Command,
		},
	}
	if len(cond.Then) > 0 {
		m["then"] = canonicalSteps(cond.Then)
	}
	if len(cond.Else) > 0 {
		m["else"] = canonicalSteps(cond.Else)
	}
	return m
}

func canonicalFileOp(op *FileOperation) map[string]interface{} {
	return map[string]interface{}{
		"op":          string(op.Op),
		"path":        op.Path,
		"content":     op.Content,
		"destination": op.Destination,
	}
}

func canonicalAITask(task *AITaskDescriptor) map[string]interface{} {
	return map[string]interface{}{
		"description":   task.Description,
		"prompt":        task.Prompt,
		"system_prompt": task.SystemPrompt,
		"model":         task.Model,
		"max_tokens":    task.MaxTokens,
	}
}

func canonicalCheck(check *VerificationCheck) map[string]interface{} {
	return map[string]interface{}{
		"kind":        string(check.Kind),
		"scheme":      check.Scheme,
		"target":      check.Target,
		"path":        check.Path,
		"command":     check.Command,
		"description": check.Description,
	}
}
