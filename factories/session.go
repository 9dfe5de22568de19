package factories

import (
	"context"
	"fmt"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/memory"
	"github.com/kalchan12/echomind/orchestrator"
	localllm "github.com/kalchan12/echomind/services/local/llm"
)

// MemoryConfig controls the conversation window.
type MemoryConfig struct {
	// MaxTurns bounds the conversation window; the oldest turn is evicted
	// when full.
	MaxTurns int `json:"max_turns"`
}

// SessionConfig is the top-level configuration for one assistant session:
// generation backend, optional speech services, memory bounds, and
// orchestration behaviour.
type SessionConfig struct {
	// LLM selects the generation backend. Defaults to the local echo
	// responder so the assistant works without any API keys.
	LLM LLMFactoryConfig `json:"llm"`
	// STT optionally enables voice input.
	STT *STTFactoryConfig `json:"stt,omitempty"`
	// TTS optionally enables voice output.
	TTS *TTSFactoryConfig `json:"tts,omitempty"`

	Memory       MemoryConfig        `json:"memory"`
	Orchestrator orchestrator.Config `json:"orchestrator"`
}

// DefaultSessionConfig returns a text-only session backed by the local echo
// responder.
func DefaultSessionConfig() SessionConfig {
	local := localllm.DefaultConfig()
	return SessionConfig{
		LLM:          LLMFactoryConfig{LocalConfig: &local},
		Memory:       MemoryConfig{MaxTurns: memory.DefaultMaxTurns},
		Orchestrator: orchestrator.DefaultConfig(),
	}
}

// APIKeys holds API credentials for all supported service providers. Pass to
// SessionConfig.InjectAPIKeys after loading from JSON so that secrets are
// never stored in config files.
type APIKeys struct {
	OpenAI     string // OpenAI chat, Whisper STT, and speech TTS providers.
	ElevenLabs string // ElevenLabs TTS provider.
}

// InjectAPIKeys fills provider configs whose API key fields are still empty.
func (c *SessionConfig) InjectAPIKeys(keys APIKeys) {
	if c.LLM.OpenAIConfig != nil && c.LLM.OpenAIConfig.APIKey == "" {
		c.LLM.OpenAIConfig.APIKey = keys.OpenAI
	}
	if c.STT != nil && c.STT.WhisperConfig != nil && c.STT.WhisperConfig.APIKey == "" {
		c.STT.WhisperConfig.APIKey = keys.OpenAI
	}
	if c.TTS != nil {
		if c.TTS.ElevenLabsConfig != nil && c.TTS.ElevenLabsConfig.APIKey == "" {
			c.TTS.ElevenLabsConfig.APIKey = keys.ElevenLabs
		}
		if c.TTS.OpenAIConfig != nil && c.TTS.OpenAIConfig.APIKey == "" {
			c.TTS.OpenAIConfig.APIKey = keys.OpenAI
		}
	}
}

// BuildOrchestrator constructs and initializes an orchestrator from the
// session config. A generation backend that fails to initialize is an error;
// failed speech services only disable the voice path, matching the
// text-only fallback behaviour.
func (c SessionConfig) BuildOrchestrator(ctx context.Context, logger *core.Logger) (*orchestrator.Orchestrator, error) {
	if logger == nil {
		logger = core.GetLogger()
	}

	llm, err := BuildLLMService(c.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("llm service: %w", err)
	}
	if err := llm.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("llm init: %w", err)
	}

	var stt core.STTService
	if c.STT != nil {
		svc, err := BuildSTTService(*c.STT, logger)
		if err != nil {
			return nil, fmt.Errorf("stt service: %w", err)
		}
		if err := svc.Initialize(ctx); err != nil {
			logger.With(map[string]any{"error": err}).Warn("stt init failed, voice input disabled")
		} else {
			stt = svc
		}
	}

	var tts core.TTSService
	if c.TTS != nil {
		svc, err := BuildTTSService(*c.TTS, logger)
		if err != nil {
			return nil, fmt.Errorf("tts service: %w", err)
		}
		if err := svc.Initialize(ctx); err != nil {
			logger.With(map[string]any{"error": err}).Warn("tts init failed, voice output disabled")
		} else {
			tts = svc
		}
	}

	mem := memory.NewConversationMemory(c.Memory.MaxTurns)
	logger.With(map[string]any{
		"speech_in":  stt != nil,
		"speech_out": tts != nil,
		"max_turns":  mem.MaxTurns(),
	}).Info("session built")

	return orchestrator.New(mem, llm, stt, tts, c.Orchestrator, logger), nil
}
