// Command blueprint-ollama bridges AI task steps to a local Ollama
// server. It reads one chat request as JSON on stdin and streams
// response chunks as JSON lines on stdout, the protocol the engine's
// exec client speaks:
//
//	{"delta": "partial text"}
//	{"content": "full text", "done": true, "tokens_used": 42}
//	{"error": "what went wrong", "done": true}
//
// Usage:
//
//	blueprint run --ai-command blueprint-ollama deploy.yaml
//
// OLLAMA_HOST overrides the server address (default
// http://localhost:11434); OLLAMA_MODEL sets the model used when the
// request does not name one.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/blueprint/internal/provider"
)

const defaultModel = "llama3.2"

// chunk is one stdout line of the bridge protocol
type chunk struct {
	Delta      string `json:"delta,omitempty"`
	Content    string `json:"content,omitempty"`
	Done       bool   `json:"done,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ollamaChatRequest is the Ollama /api/chat payload
type ollamaChatRequest struct {
	Model    string             `json:"model"`
	Messages []provider.Message `json:"messages"`
	Stream   bool               `json:"stream"`
	Options  *ollamaOptions     `json:"options,omitempty"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

// ollamaChatResponse is one line of Ollama's streaming response
type ollamaChatResponse struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done      bool   `json:"done"`
	EvalCount int    `json:"eval_count,omitempty"`
	Error     string `json:"error,omitempty"`
}

func main() {
	out := json.NewEncoder(os.Stdout)

	if err := run(out); err != nil {
		// Failures travel on the protocol so the engine can report them
		_ = out.Encode(chunk{Error: err.Error(), Done: true})
		os.Exit(1)
	}
}

func run(out *json.Encoder) error {
	var req provider.ChatRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	model := req.Model
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}
	if model == "" {
		model = defaultModel
	}

	ollamaReq := ollamaChatRequest{
		Model:    model,
		Messages: req.Messages,
		Stream:   true,
	}
	if req.MaxTokens > 0 {
		ollamaReq.Options = &ollamaOptions{NumPredict: req.MaxTokens}
	}

	body, err := json.Marshal(ollamaReq)
	if err != nil {
		return fmt.Errorf("marshal ollama request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, hostURL()+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("call ollama: %w (is the server running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("ollama returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var accumulated strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var r ollamaChatResponse
		if err := json.Unmarshal(line, &r); err != nil {
			return fmt.Errorf("parse ollama response: %w", err)
		}
		if r.Error != "" {
			return fmt.Errorf("ollama: %s", r.Error)
		}

		if r.Message.Content != "" {
			accumulated.WriteString(r.Message.Content)
			if err := out.Encode(chunk{Delta: r.Message.Content}); err != nil {
				return err
			}
		}

		if r.Done {
			return out.Encode(chunk{
				Content:    accumulated.String(),
				Done:       true,
				TokensUsed: r.EvalCount,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ollama stream: %w", err)
	}

	return fmt.Errorf("ollama stream ended without a terminal chunk")
}

// hostURL normalizes OLLAMA_HOST, which may omit the scheme
func hostURL() string {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		return "http://localhost:11434"
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}
