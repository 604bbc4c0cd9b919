package providers

import (
	"context"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/research"
)

// defaultMaxTokens is used when the caller leaves MaxTokens unset; the
// Anthropic API requires an explicit value.
const defaultMaxTokens = 4096

// AnthropicClient implements research.ChatClient over the Anthropic
// Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a client for the given model.
func NewAnthropicClient(apiKey, modelName string) (*AnthropicClient, error) {
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  modelName,
	}, nil
}

// Complete implements research.ChatClient.
func (c *AnthropicClient) Complete(ctx context.Context, req research.CompletionRequest) (research.CompletionResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	apiReq := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(req.Prompt)},
			},
		},
		MaxTokens: maxTokens,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		apiReq.Temperature = &temp
	}
	if req.System != "" {
		apiReq.MultiSystem = []anthropic.MessageSystemPart{{Type: "text", Text: req.System}}
	}

	resp, err := c.client.CreateMessages(ctx, apiReq)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return research.CompletionResponse{}, loop.WrapProviderError(err, httpStatus, retryAfter)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text += *block.Text
		}
	}

	return research.CompletionResponse{
		Text: text,
		Usage: research.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
