// Package stt wraps the Google Cloud Speech-to-Text API as an alternative
// transcription provider. Authentication relies on Application Default
// Credentials.
package stt

import (
	"context"
	"fmt"
	"strings"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"

	"github.com/kalchan12/echomind/core"
)

// Config holds configuration for Google Cloud Speech recognition.
type Config struct {
	LanguageCode   string `json:"language_code"`
	SampleRateHint int    `json:"sample_rate_hint"` // Used when the audio chunk carries no sample rate.
}

func DefaultConfig() Config {
	return Config{
		LanguageCode:   "en-US",
		SampleRateHint: 16000,
	}
}

// GoogleSTTService implements core.STTService via the synchronous Recognize
// endpoint.
type GoogleSTTService struct {
	config Config
	logger *core.Logger

	client *speech.Client
	mu     sync.RWMutex
}

func NewGoogleSTTService(config Config, logger *core.Logger) *GoogleSTTService {
	if config.LanguageCode == "" {
		config.LanguageCode = "en-US"
	}
	if config.SampleRateHint == 0 {
		config.SampleRateHint = 16000
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &GoogleSTTService{config: config, logger: logger}
}

func (s *GoogleSTTService) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, err := speech.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}
	s.client = client
	return nil
}

func (s *GoogleSTTService) Cleanup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		err := s.client.Close()
		s.client = nil
		return err
	}
	return nil
}

// Transcribe runs synchronous recognition over the audio buffer and joins the
// top alternative of each result.
func (s *GoogleSTTService) Transcribe(ctx context.Context, chunk core.AudioChunk) (string, error) {
	s.mu.RLock()
	client := s.client
	s.mu.RUnlock()

	if client == nil {
		return "", &core.TranscriptionError{Reason: "Google speech service not initialized"}
	}
	if len(chunk.Data) == 0 {
		return "", &core.TranscriptionError{Reason: "empty audio buffer"}
	}

	encoding := speechpb.RecognitionConfig_LINEAR16
	if chunk.Format == core.ULAW {
		encoding = speechpb.RecognitionConfig_MULAW
	}
	sampleRate := chunk.SampleRate
	if sampleRate == 0 {
		sampleRate = s.config.SampleRateHint
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(sampleRate),
			LanguageCode:    s.config.LanguageCode,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: chunk.Data},
		},
	})
	if err != nil {
		return "", &core.TranscriptionError{Reason: "recognize request failed", Err: err}
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return "", &core.TranscriptionError{Reason: "no speech detected"}
	}
	return text, nil
}
