// Package providers adapts LLM SDKs to the research.ChatClient interface.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/YashGondaliya36/Agentic-AI/internal/loop"
	"github.com/YashGondaliya36/Agentic-AI/internal/research"
)

// OpenAIClient implements research.ChatClient over the OpenAI chat API and
// any OpenAI-compatible endpoint (Gemini, DeepSeek, Groq, Ollama, ...).
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a client. An empty baseURL targets api.openai.com.
func NewOpenAIClient(apiKey, modelName, baseURL string) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}, nil
}

// Complete implements research.ChatClient.
func (c *OpenAIClient) Complete(ctx context.Context, req research.CompletionRequest) (research.CompletionResponse, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	apiReq := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		apiReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		apiReq.Temperature = &req.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		httpStatus, retryAfter := extractErrorMetadata(err)
		return research.CompletionResponse{}, loop.WrapProviderError(err, httpStatus, retryAfter)
	}
	if len(resp.Choices) == 0 {
		return research.CompletionResponse{}, fmt.Errorf("empty response from provider")
	}

	return research.CompletionResponse{
		Text: resp.Choices[0].Message.Content,
		Usage: research.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}

// extractErrorMetadata pulls HTTP status and Retry-After hints out of SDK
// errors. SDKs flatten these into the error string, so this is best-effort
// pattern matching.
func extractErrorMetadata(err error) (int, string) {
	if err == nil {
		return 0, ""
	}

	errStr := err.Error()
	var httpStatus int
	var retryAfter string

	switch {
	case strings.Contains(errStr, "429"):
		httpStatus = http.StatusTooManyRequests
	case strings.Contains(errStr, "500"):
		httpStatus = http.StatusInternalServerError
	case strings.Contains(errStr, "502"):
		httpStatus = http.StatusBadGateway
	case strings.Contains(errStr, "503"):
		httpStatus = http.StatusServiceUnavailable
	case strings.Contains(errStr, "504"):
		httpStatus = http.StatusGatewayTimeout
	case strings.Contains(errStr, "401"):
		httpStatus = http.StatusUnauthorized
	case strings.Contains(errStr, "403"):
		httpStatus = http.StatusForbidden
	case strings.Contains(errStr, "400"):
		httpStatus = http.StatusBadRequest
	case strings.Contains(errStr, "402"):
		httpStatus = http.StatusPaymentRequired
	}

	lower := strings.ToLower(errStr)
	if idx := strings.Index(lower, "retry-after"); idx != -1 {
		parts := strings.Fields(errStr[idx+len("retry-after"):])
		if len(parts) > 0 {
			retryAfter = strings.Trim(parts[0], ":;,")
		}
	} else if idx := strings.Index(lower, "retry after"); idx != -1 {
		parts := strings.Fields(errStr[idx+len("retry after"):])
		if len(parts) > 0 {
			retryAfter = strings.Trim(parts[0], ":;,")
		}
	}

	return httpStatus, retryAfter
}
