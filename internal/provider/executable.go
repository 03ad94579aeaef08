package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// ExecClient bridges ChatClient to any executable that speaks JSON over
// stdin/stdout. This is the simplest client type - any program can back
// the AI steps of a run.
//
// Protocol: the executable receives one ChatRequest as JSON on stdin and
// writes one JSON object per line on stdout:
//
//	{"delta": "partial text"}
//	{"content": "full text", "done": true, "tokens_used": 42}
//	{"error": "what went wrong", "done": true}
type ExecClient struct {
	// path is the path to the executable
	path string

	// args are additional arguments to pass to the executable
	args []string
}

// wireChunk is the on-the-wire form of a stream chunk
type wireChunk struct {
	Delta      string `json:"delta,omitempty"`
	Content    string `json:"content,omitempty"`
	Done       bool   `json:"done,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Error      string `json:"error,omitempty"`
}

// NewExecClient creates a client backed by the executable at path
func NewExecClient(path string, args ...string) (*ExecClient, error) {
	if _, err := exec.LookPath(path); err != nil {
		return nil, fmt.Errorf("ai command not found: %s: %w", path, err)
	}

	return &ExecClient{path: path, args: args}, nil
}

// Stream implements ChatClient.Stream for executable clients
func (c *ExecClient) Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.path, c.args...)
	cmd.Stdin = bytes.NewReader(reqJSON)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ai command: %w", err)
	}

	chunks := make(chan StreamChunk, 10)

	go func() {
		defer close(chunks)
		defer cmd.Wait()

		scanner := bufio.NewScanner(stdout)
		// Completion chunks carry the whole response on one line
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

		for scanner.Scan() {
			line := scanner.Bytes()
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}

			var wire wireChunk
			if err := json.Unmarshal(line, &wire); err != nil {
				c.send(ctx, chunks, StreamChunk{
					Err:       fmt.Errorf("failed to parse stream chunk: %w", err),
					Done:      true,
					Timestamp: time.Now(),
				})
				return
			}

			chunk := StreamChunk{
				Delta:      wire.Delta,
				Content:    wire.Content,
				Done:       wire.Done,
				TokensUsed: wire.TokensUsed,
				Timestamp:  time.Now(),
			}
			if wire.Error != "" {
				chunk.Err = fmt.Errorf("%s", wire.Error)
				chunk.Done = true
			}

			if !c.send(ctx, chunks, chunk) {
				return
			}

			if chunk.Done {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			c.send(ctx, chunks, StreamChunk{
				Err:       fmt.Errorf("stream read error: %w", err),
				Done:      true,
				Timestamp: time.Now(),
			})
			return
		}

		// The executable exited without a terminal chunk
		c.send(ctx, chunks, StreamChunk{
			Err:       fmt.Errorf("ai command ended stream without completion"),
			Done:      true,
			Timestamp: time.Now(),
		})
	}()

	return chunks, nil
}

// send delivers a chunk unless the context is cancelled first
func (c *ExecClient) send(ctx context.Context, out chan<- StreamChunk, chunk StreamChunk) bool {
	select {
	case out <- chunk:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close cleans up resources (executable clients hold none between calls)
func (c *ExecClient) Close() error {
	return nil
}

// Compile-time verification that ExecClient implements ChatClient
var _ ChatClient = (*ExecClient)(nil)
