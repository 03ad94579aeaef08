package provider

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ScriptedResponse is one canned response replayed by a ScriptedClient
type ScriptedResponse struct {
	// Deltas are emitted one chunk at a time before completion
	Deltas []string

	// Content overrides the completion chunk's text. When empty, the
	// completion carries the concatenated deltas. Set Content with no
	// deltas to mimic a provider that only returns complete messages.
	Content string

	// Err, when set, replaces the completion chunk with a failure
	Err error

	// ChunkDelay inserts a pause before each delta, useful for
	// exercising cancellation mid-stream
	ChunkDelay time.Duration
}

// ScriptedClient replays canned responses in order, one per Stream call.
// Calls beyond the scripted responses complete immediately with empty
// content. It records every request for later assertions.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	requests  []*ChatRequest
	calls     int
	closed    bool
}

// NewScriptedClient creates a client that replays the given responses
func NewScriptedClient(responses ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{responses: responses}
}

// Stream implements ChatClient.Stream by replaying the next response
func (c *ScriptedClient) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	idx := c.calls
	c.calls++
	var resp ScriptedResponse
	if idx < len(c.responses) {
		resp = c.responses[idx]
	}
	c.mu.Unlock()

	// Buffered for the whole script so the producer always finishes,
	// even when the consumer walks away early
	chunks := make(chan StreamChunk, len(resp.Deltas)+1)

	go func() {
		defer close(chunks)

		var full strings.Builder
		for _, delta := range resp.Deltas {
			if resp.ChunkDelay > 0 {
				select {
				case <-time.After(resp.ChunkDelay):
				case <-ctx.Done():
					chunks <- StreamChunk{Err: ctx.Err(), Done: true, Timestamp: time.Now()}
					return
				}
			}
			full.WriteString(delta)
			chunks <- StreamChunk{Delta: delta, Timestamp: time.Now()}
		}

		if resp.Err != nil {
			chunks <- StreamChunk{Err: resp.Err, Done: true, Timestamp: time.Now()}
			return
		}

		content := resp.Content
		if content == "" {
			content = full.String()
		}
		chunks <- StreamChunk{Content: content, Done: true, Timestamp: time.Now()}
	}()

	return chunks, nil
}

// Close marks the client closed
func (c *ScriptedClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *ScriptedClient) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Calls returns how many times Stream was invoked
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Requests returns a copy of the recorded requests
func (c *ScriptedClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Compile-time verification that ScriptedClient implements ChatClient
var _ ChatClient = (*ScriptedClient)(nil)
