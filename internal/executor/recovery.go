package executor

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/blueprint/internal/log"
	"github.com/felixgeelhaar/blueprint/internal/provider"
)

// errorSignature maps a known failure substring to a canned hint
type errorSignature struct {
	substring string
	hint      string
}

// knownSignatures is matched in order against the lowercased failure
// text; the first hit wins
var knownSignatures = []errorSignature{
	{"no such module", "Add the missing module to the target's dependencies, then retry"},
	{"cannot find type", "Check the spelling of the type and that its defining file is part of the build"},
	{"use of unresolved identifier", "Declare or import the identifier before it is used"},
	{"missing return", "Add a return statement to the function the compiler flagged"},
	{"command not found", "Install the missing tool or add its location to PATH"},
	{"no such file or directory", "Verify the path exists; an earlier step may not have created it yet"},
	{"permission denied", "Check ownership and mode bits of the target path"},
	{"connection refused", "Check that the target service is running and reachable"},
	{"timed out", "Raise the execution time budget or split the phase into smaller steps"},
	{"disk full", "Free disk space before retrying"},
}

// RecoveryAdvisor suggests a next move after a step fails. Suggestions
// are advisory only: they are logged and attached to the failure, never
// applied to the step, and the retry re-runs the identical step.
//
// Known failure signatures resolve deterministically from a table;
// anything else is referred to the AI provider on its fast tier.
type RecoveryAdvisor struct {
	// Chat backs the AI tier. Nil limits the advisor to the table.
	Chat provider.ChatClient

	// Models picks the fast-tier model for AI suggestions
	Models provider.ModelResolver

	Logger *log.Logger
}

// suggestionTokens bounds the AI tier to a one-liner
const suggestionTokens = 120

// Suggest returns a one-line recovery hint for the failure, or empty
// when no hint is available. It never returns an error: an advisor that
// cannot advise stays silent.
func (a *RecoveryAdvisor) Suggest(ctx context.Context, failure error) string {
	if failure == nil {
		return ""
	}

	text := failure.Error()
	if hint := lookupSignature(text); hint != "" {
		return hint
	}

	return a.askProvider(ctx, text)
}

// lookupSignature returns the canned hint for the first matching known
// signature
func lookupSignature(failureText string) string {
	lowered := strings.ToLower(failureText)
	for _, sig := range knownSignatures {
		if strings.Contains(lowered, sig.substring) {
			return sig.hint
		}
	}
	return ""
}

func (a *RecoveryAdvisor) askProvider(ctx context.Context, failureText string) string {
	if a.Chat == nil {
		return ""
	}

	var model string
	if a.Models != nil {
		model = a.Models.BestModel(provider.IntentFast)
	}

	req := &provider.ChatRequest{
		Model:     model,
		MaxTokens: suggestionTokens,
		Messages: []provider.Message{
			{
				Role:    provider.RoleSystem,
				Content: "You diagnose failed automation steps. Reply with one short sentence suggesting a likely fix. No preamble.",
			},
			{
				Role:    provider.RoleUser,
				Content: "This step failed:\n" + failureText,
			},
		},
	}

	text, err := provider.Collect(ctx, a.Chat, req)
	if err != nil {
		a.logger().DebugContext(ctx, "recovery suggestion unavailable", "error", err.Error())
		return ""
	}

	return firstLine(text)
}

func (a *RecoveryAdvisor) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.DefaultLogger()
}

// firstLine trims the response to its first non-empty line
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
