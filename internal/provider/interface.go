package provider

import "context"

// ChatClient is the interface the execution engine consumes for AI
// collaboration. Implementations bridge to whatever backs the model:
// an executable, a test script, or an API client living outside this
// module.
type ChatClient interface {
	// Stream sends a conversation and returns a channel of response
	// chunks. The channel is closed after the terminal chunk. Callers
	// cancel by cancelling ctx; the client must then stop producing
	// and close the channel.
	Stream(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error)

	// Close cleans up any resources used by the client.
	// Should be called when the client is no longer needed.
	Close() error
}

// Collect drains a stream to completion and returns the full response
// text: the concatenated deltas, or the terminal chunk's Content when
// the client streamed no deltas at all.
func Collect(ctx context.Context, client ChatClient, req *ChatRequest) (string, error) {
	chunks, err := client.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var accumulated string
	for {
		select {
		case <-ctx.Done():
			return accumulated, ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return accumulated, nil
			}
			if chunk.Err != nil {
				return accumulated, chunk.Err
			}
			if chunk.Delta != "" {
				accumulated += chunk.Delta
			}
			if chunk.Done {
				if accumulated == "" {
					return chunk.Content, nil
				}
				return accumulated, nil
			}
		}
	}
}
