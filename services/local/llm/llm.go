// Package llm provides an offline generation backend with no external
// dependencies. It produces contextual echo responses, keeping the assistant
// usable when no API key is configured.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalchan12/echomind/core"
)

// Config holds configuration for the local echo responder.
type Config struct {
	// AssistantName is used in the empty-input response.
	AssistantName string `json:"assistant_name"`
}

func DefaultConfig() Config {
	return Config{AssistantName: "EchoMind"}
}

// EchoLLMService implements core.LLMService with rule-based echo responses.
type EchoLLMService struct {
	config Config
}

func NewEchoLLMService(config Config) *EchoLLMService {
	if config.AssistantName == "" {
		config.AssistantName = "EchoMind"
	}
	return &EchoLLMService{config: config}
}

func (s *EchoLLMService) Initialize(ctx context.Context) error { return nil }

func (s *EchoLLMService) Cleanup() error { return nil }

// Generate echoes the prompt back with a note about available context.
func (s *EchoLLMService) Generate(ctx context.Context, prompt string, history []core.LLMMessage) (string, error) {
	cleaned := strings.TrimSpace(prompt)
	if cleaned == "" {
		return fmt.Sprintf("Please say something or type a message so %s can respond.", s.config.AssistantName), nil
	}

	parts := []string{fmt.Sprintf("You said: %q.", cleaned)}
	if len(history) > 0 {
		parts = append(parts, "I have context from our previous conversation to help provide better responses.")
	}
	switch {
	case len(cleaned) > 50:
		parts = append(parts, "That's quite a detailed message!")
	case len(cleaned) < 10:
		parts = append(parts, "Short and sweet!")
	}
	return strings.Join(parts, " "), nil
}
