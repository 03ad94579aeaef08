package executor

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/blueprint/internal/blueprint"
	"github.com/felixgeelhaar/blueprint/internal/errors"
	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/provider"
)

// AITaskRunner executes AI task steps by driving the chat provider
// contract. The streamed deltas are concatenated into the step output;
// a provider that only returns complete messages works too.
type AITaskRunner struct {
	// Chat is the AI collaborator. Nil fails every AI step.
	Chat provider.ChatClient

	// Models resolves a model when the task does not name one
	Models provider.ModelResolver

	Logger *log.Logger
}

// Run executes one AI task and returns its result. Provider errors,
// including mid-stream error chunks, fail the step with the provider's
// error text.
func (r *AITaskRunner) Run(ctx context.Context, task *blueprint.AITaskDescriptor, description string) StepResult {
	result := StepResult{Description: description}
	if task == nil {
		result.Err = fmt.Errorf("ai step has no task")
		return result
	}
	if r.Chat == nil {
		result.Err = errors.New(errors.KindAI, "no AI client configured").
			WithSuggestion("Inject a provider.ChatClient before running blueprints with AI steps")
		return result
	}

	req := &provider.ChatRequest{
		Model:     r.resolveModel(task),
		MaxTokens: task.MaxTokens,
	}
	if task.SystemPrompt != "" {
		req.Messages = append(req.Messages, provider.Message{
			Role:    provider.RoleSystem,
			Content: task.SystemPrompt,
		})
	}
	req.Messages = append(req.Messages, provider.Message{
		Role:    provider.RoleUser,
		Content: task.Prompt,
	})

	r.logger().DebugContext(ctx, "ai task started",
		"task", description,
		"model", req.Model,
		"max_tokens", req.MaxTokens,
	)

	text, err := provider.Collect(ctx, r.Chat, req)
	if err != nil {
		result.Err = errors.NewAIError(description, err)
		return result
	}

	result.Success = true
	result.Output = text
	return result
}

// resolveModel prefers the task's explicit model over the resolver's
// code generation pick
func (r *AITaskRunner) resolveModel(task *blueprint.AITaskDescriptor) string {
	if task.Model != "" {
		return task.Model
	}
	if r.Models != nil {
		return r.Models.BestModel(provider.IntentCodegen)
	}
	return ""
}

func (r *AITaskRunner) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.DefaultLogger()
}
