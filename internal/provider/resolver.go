package provider

// Intent describes what a caller needs a model for. Resolvers map
// intents to concrete model names so call sites never hard-code one.
type Intent string

const (
	// IntentCodegen selects the strongest code-oriented model
	IntentCodegen Intent = "codegen"

	// IntentFast selects a cheap, low-latency model
	IntentFast Intent = "fast"
)

// ModelResolver picks the best concrete model name for an intent
type ModelResolver interface {
	BestModel(intent Intent) string
}

// StaticResolver resolves models from a fixed hint map.
// Example: {"codegen": "claude-sonnet-4-5", "fast": "claude-haiku-4-5"}
type StaticResolver struct {
	// Models maps intents to model names
	Models map[Intent]string

	// Default is returned when no hint covers the intent
	Default string
}

// BestModel returns the mapped model for the intent, or Default when
// the map has no usable entry
func (r StaticResolver) BestModel(intent Intent) string {
	if model, ok := r.Models[intent]; ok && model != "" {
		return model
	}
	return r.Default
}
