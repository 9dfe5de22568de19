package tts

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/kalchan12/echomind/core"
)

// Config holds configuration for the OpenAI speech synthesis service.
type Config struct {
	APIKey  string  `json:"api_key"`
	BaseURL string  `json:"base_url"`
	Model   string  `json:"model"`
	Voice   string  `json:"voice"`
	Speed   float64 `json:"speed"`
}

func DefaultConfig() Config {
	return Config{
		Model: string(openai.TTSModel1),
		Voice: string(openai.VoiceAlloy),
		Speed: 1.0,
	}
}

var validVoices = map[string]openai.SpeechVoice{
	string(openai.VoiceAlloy):   openai.VoiceAlloy,
	string(openai.VoiceEcho):    openai.VoiceEcho,
	string(openai.VoiceFable):   openai.VoiceFable,
	string(openai.VoiceOnyx):    openai.VoiceOnyx,
	string(openai.VoiceNova):    openai.VoiceNova,
	string(openai.VoiceShimmer): openai.VoiceShimmer,
}

// OpenAITTSService implements core.TTSService using the OpenAI speech API.
// Output is WAV so clients can play it without further framing.
type OpenAITTSService struct {
	config Config
	logger *core.Logger

	client        *openai.Client
	voice         openai.SpeechVoice
	isInitialized bool
	mu            sync.RWMutex
}

func NewOpenAITTSService(config Config, logger *core.Logger) *OpenAITTSService {
	defaults := DefaultConfig()
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Voice == "" {
		config.Voice = defaults.Voice
	}
	if config.Speed == 0 {
		config.Speed = defaults.Speed
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &OpenAITTSService{config: config, logger: logger}
}

func (s *OpenAITTSService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required for speech synthesis")
	}
	voice, ok := validVoices[s.config.Voice]
	if !ok {
		return &core.SynthesisError{Reason: fmt.Sprintf("unknown voice %q", s.config.Voice)}
	}
	s.voice = voice

	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientConfig)
	s.isInitialized = true
	return nil
}

func (s *OpenAITTSService) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.isInitialized = false
	return nil
}

func (s *OpenAITTSService) Synthesize(ctx context.Context, text string) (core.AudioChunk, error) {
	s.mu.RLock()
	client := s.client
	voice := s.voice
	initialized := s.isInitialized
	s.mu.RUnlock()

	if !initialized {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "OpenAI TTS service not initialized"}
	}

	res, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          s.config.Speed,
	})
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "speech request failed", Err: err}
	}
	defer res.Close()

	audioData, err := io.ReadAll(res)
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "read speech response", Err: err}
	}
	if len(audioData) == 0 {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "synthesis returned no audio"}
	}

	return core.AudioChunk{
		Data:       audioData,
		SampleRate: 24000,
		Channels:   1,
		Format:     core.WAV,
	}, nil
}
