package stt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/utils/audio"
)

// Config holds configuration for the Whisper transcription service.
type Config struct {
	APIKey   string `json:"api_key"`
	BaseURL  string `json:"base_url"`
	Model    string `json:"model"`
	Language string `json:"language"` // ISO-639-1 hint, empty for auto-detect
}

// DefaultConfig returns a config with sensible defaults for the Whisper API.
func DefaultConfig() Config {
	return Config{
		Model:    openai.Whisper1,
		Language: "en",
	}
}

// WhisperSTTService implements core.STTService using the OpenAI Whisper API.
type WhisperSTTService struct {
	config Config
	logger *core.Logger

	client        *openai.Client
	isInitialized bool
	mu            sync.RWMutex
}

func NewWhisperSTTService(config Config, logger *core.Logger) *WhisperSTTService {
	if config.Model == "" {
		config.Model = openai.Whisper1
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &WhisperSTTService{config: config, logger: logger}
}

func (s *WhisperSTTService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required for Whisper transcription")
	}
	clientConfig := openai.DefaultConfig(s.config.APIKey)
	if s.config.BaseURL != "" {
		clientConfig.BaseURL = s.config.BaseURL
	}
	s.client = openai.NewClientWithConfig(clientConfig)
	s.isInitialized = true
	return nil
}

func (s *WhisperSTTService) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = nil
	s.isInitialized = false
	return nil
}

// Transcribe sends the audio buffer to the Whisper API. The buffer is wrapped
// in a WAV container when it arrives as raw PCM.
func (s *WhisperSTTService) Transcribe(ctx context.Context, chunk core.AudioChunk) (string, error) {
	s.mu.RLock()
	client := s.client
	initialized := s.isInitialized
	s.mu.RUnlock()

	if !initialized {
		return "", &core.TranscriptionError{Reason: "Whisper service not initialized"}
	}
	if len(chunk.Data) == 0 {
		return "", &core.TranscriptionError{Reason: "empty audio buffer"}
	}

	payload := chunk.Data
	if chunk.Format == core.PCM {
		wav, err := audio.PCMBytesToWavBytes(chunk.Data, chunk.Channels, chunk.SampleRate)
		if err != nil {
			return "", &core.TranscriptionError{Reason: "invalid PCM input", Err: err}
		}
		payload = wav
	}

	req := openai.AudioRequest{
		Model:    s.config.Model,
		FilePath: "input.wav",
		Reader:   bytes.NewReader(payload),
	}
	if s.config.Language != "" && s.config.Language != "auto" {
		req.Language = s.config.Language
	}

	resp, err := client.CreateTranscription(ctx, req)
	if err != nil {
		return "", &core.TranscriptionError{Reason: "Whisper API request failed", Err: err}
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", &core.TranscriptionError{Reason: "no speech detected"}
	}

	s.logger.With(map[string]any{"chars": len(text)}).Debug("transcription complete")
	return text, nil
}
