// Package research implements the produce/score/finalize collaborators of the
// refinement loop on top of LLM chat providers and the local corpus.
package research

import "context"

// CompletionRequest is a single-turn prompt for a chat model.
type CompletionRequest struct {
	System      string  // Optional system prompt
	Prompt      string  // User prompt
	Temperature float32 // 0 = provider default
	MaxTokens   int     // 0 = provider default
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// CompletionResponse is the normalized result of one completion call.
type CompletionResponse struct {
	Text  string
	Usage Usage
}

// ChatClient abstracts the chosen SDK (OpenAI, Anthropic, ...). The
// collaborators only need single-turn completions; conversation state lives
// in the task's artifacts.
type ChatClient interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
