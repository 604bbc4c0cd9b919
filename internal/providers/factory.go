package providers

import (
	"fmt"
	"os"

	"github.com/YashGondaliya36/Agentic-AI/internal/research"
)

// NewChatClientFromEnv creates a research.ChatClient based on environment
// variables. LLM_PROVIDER picks the backend; each backend reads its own
// *_API_KEY and *_MODEL variables. Returns the client and the model name.
func NewChatClientFromEnv() (research.ChatClient, string, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("OPENAI_API_KEY not set")
		}
		modelName := os.Getenv("OPENAI_MODEL")
		if modelName == "" {
			modelName = "gpt-4o-mini"
		}
		baseURL := os.Getenv("OPENAI_BASE_URL") // for OpenAI-compatible APIs
		client, err := NewOpenAIClient(apiKey, modelName, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return client, modelName, nil

	case "anthropic":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
		modelName := os.Getenv("ANTHROPIC_MODEL")
		if modelName == "" {
			modelName = "claude-3-5-sonnet-20241022"
		}
		client, err := NewAnthropicClient(apiKey, modelName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Anthropic client: %w", err)
		}
		return client, modelName, nil

	case "gemini":
		// Google Gemini via its OpenAI-compatible endpoint.
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("GEMINI_API_KEY not set")
		}
		modelName := os.Getenv("GEMINI_MODEL")
		if modelName == "" {
			modelName = "gemini-1.5-flash"
		}
		baseURL := "https://generativelanguage.googleapis.com/v1beta/openai"
		client, err := NewOpenAIClient(apiKey, modelName, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return client, modelName, nil

	case "deepseek":
		apiKey := os.Getenv("DEEPSEEK_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("DEEPSEEK_API_KEY not set")
		}
		modelName := os.Getenv("DEEPSEEK_MODEL")
		if modelName == "" {
			modelName = "deepseek-chat"
		}
		client, err := NewOpenAIClient(apiKey, modelName, "https://api.deepseek.com/v1")
		if err != nil {
			return nil, "", fmt.Errorf("failed to create DeepSeek client: %w", err)
		}
		return client, modelName, nil

	case "groq":
		apiKey := os.Getenv("GROQ_API_KEY")
		if apiKey == "" {
			return nil, "", fmt.Errorf("GROQ_API_KEY not set")
		}
		modelName := os.Getenv("GROQ_MODEL")
		if modelName == "" {
			modelName = "llama-3.1-70b-versatile"
		}
		client, err := NewOpenAIClient(apiKey, modelName, "https://api.groq.com/openai/v1")
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Groq client: %w", err)
		}
		return client, modelName, nil

	case "ollama":
		// Local Ollama server, OpenAI-compatible. The API key is unused but
		// the SDK requires one.
		baseURL := os.Getenv("OLLAMA_BASE_URL")
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		modelName := os.Getenv("OLLAMA_MODEL")
		if modelName == "" {
			modelName = "llama3.1"
		}
		apiKey := os.Getenv("OLLAMA_API_KEY")
		if apiKey == "" {
			apiKey = "ollama"
		}
		client, err := NewOpenAIClient(apiKey, modelName, baseURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, modelName, nil

	default:
		return nil, "", fmt.Errorf("unknown LLM_PROVIDER: %s (supported: openai, anthropic, gemini, deepseek, groq, ollama)", provider)
	}
}
