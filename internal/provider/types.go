package provider

import "time"

// Role identifies who authored a conversation message
type Role string

const (
	// RoleSystem carries system-level instructions
	RoleSystem Role = "system"

	// RoleUser carries caller input
	RoleUser Role = "user"

	// RoleAssistant carries model output
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	// Role is who sent the message: "system", "user", or "assistant"
	Role Role `json:"role"`

	// Content is the message text
	Content string `json:"content"`
}

// ChatRequest contains all parameters for one conversation turn
type ChatRequest struct {
	// Messages is the conversation so far, oldest first
	Messages []Message `json:"messages"`

	// Model is the concrete model name to use.
	// Leave empty to use the client default.
	Model string `json:"model,omitempty"`

	// MaxTokens limits the maximum response length.
	// Set to 0 to use the client default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// StreamChunk represents a single event in a streaming response.
// A response is a sequence of delta chunks followed by exactly one
// terminal chunk: Done with the accumulated Content on success, or
// Done with Err set on failure.
type StreamChunk struct {
	// Delta is the incremental text added by this chunk
	Delta string

	// Content is the complete response text (set on the final chunk)
	Content string

	// Done indicates if this is the final chunk
	Done bool

	// TokensUsed is updated in the final chunk
	TokensUsed int

	// Err contains any error that occurred (in the final chunk)
	Err error

	// Timestamp is when this chunk was generated
	Timestamp time.Time
}
