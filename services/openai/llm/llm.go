package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/kalchan12/echomind/core"
)

// Config holds the configuration for the OpenAI generation service
type Config struct {
	APIKey       string  `json:"api_key"`
	BaseURL      string  `json:"base_url"`
	Model        string  `json:"model"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float32 `json:"temperature"`
	SystemPrompt string  `json:"system_prompt"`
}

// DefaultConfig returns a config with sensible defaults. Override only what
// you need and inject the API key from the environment.
func DefaultConfig() Config {
	return Config{
		Model:       openai.GPT4oMini,
		MaxTokens:   512,
		Temperature: 0.7,
		SystemPrompt: "You are EchoMind, a concise voice and text assistant. " +
			"Answer briefly; your replies may be spoken aloud.",
	}
}

// OpenAILLMService implements core.LLMService using the OpenAI chat
// completions API.
type OpenAILLMService struct {
	config Config
	logger *core.Logger

	client        *openai.Client
	isInitialized bool
	mu            sync.RWMutex
}

// NewOpenAILLMService creates a new instance of OpenAILLMService
func NewOpenAILLMService(config Config, logger *core.Logger) *OpenAILLMService {
	if logger == nil {
		logger = core.GetLogger()
	}
	return &OpenAILLMService{config: config, logger: logger}
}

// Initialize validates the config and connects to OpenAI.
func (s *OpenAILLMService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientConfig)

	// Test the connection
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("failed to connect to OpenAI: %w", err)
	}

	s.isInitialized = true
	s.logger.With(map[string]any{"model": s.config.Model}).Info("OpenAI LLM service initialized")
	return nil
}

// Cleanup releases the client.
func (s *OpenAILLMService) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.isInitialized = false
	return nil
}

// Generate runs a chat completion with the conversation history followed by
// the user prompt.
func (s *OpenAILLMService) Generate(ctx context.Context, prompt string, history []core.LLMMessage) (string, error) {
	s.mu.RLock()
	client := s.client
	initialized := s.isInitialized
	s.mu.RUnlock()

	if !initialized {
		return "", &core.GenerationError{Reason: "OpenAI service not initialized"}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	if s.config.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: s.config.SystemPrompt,
		})
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    convertRole(msg.Role),
			Content: msg.Message,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.config.Model,
		Messages:    messages,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	})
	if err != nil {
		return "", &core.GenerationError{Reason: "chat completion request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &core.GenerationError{Reason: "completion returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// convertRole converts a core role to an OpenAI role
func convertRole(role core.LLMMessageRole) string {
	switch role {
	case core.LLMMessageRoleAssistant:
		return openai.ChatMessageRoleAssistant
	case core.LLMMessageRoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
