package elevenlabs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/kalchan12/echomind/core"
)

// ElevenLabsTTSConfig holds configuration for the ElevenLabs TTS service
type ElevenLabsTTSConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	VoiceID string `json:"voice_id"`
	ModelID string `json:"model_id"`

	// Voice settings
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`

	// SampleRate selects the PCM output rate (16000, 22050, 24000, 44100).
	SampleRate int `json:"sample_rate"`
}

// DefaultConfig returns a config with the defaults used across the project.
func DefaultConfig() ElevenLabsTTSConfig {
	return ElevenLabsTTSConfig{
		BaseURL:         "https://api.elevenlabs.io/v1/text-to-speech",
		VoiceID:         "21m00Tcm4TlvDq8ikWAM", // Default: Rachel
		ModelID:         "eleven_turbo_v2_5",
		Stability:       0.5,
		SimilarityBoost: 0.75,
		SampleRate:      16000,
	}
}

// ElevenLabsTTS implements core.TTSService against the ElevenLabs HTTP
// synthesis endpoint.
type ElevenLabsTTS struct {
	config ElevenLabsTTSConfig
	logger *core.Logger

	httpClient    *http.Client
	isInitialized bool
	mu            sync.RWMutex
}

type elVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elSynthesisRequest struct {
	Text          string          `json:"text"`
	ModelID       string          `json:"model_id"`
	VoiceSettings elVoiceSettings `json:"voice_settings"`
}

type elErrorResponse struct {
	Detail struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"detail"`
}

// NewElevenLabsTTS creates a new ElevenLabs TTS service with the provided config
func NewElevenLabsTTS(config ElevenLabsTTSConfig, logger *core.Logger) *ElevenLabsTTS {
	defaults := DefaultConfig()
	if config.BaseURL == "" {
		config.BaseURL = defaults.BaseURL
	}
	if config.VoiceID == "" {
		config.VoiceID = defaults.VoiceID
	}
	if config.ModelID == "" {
		config.ModelID = defaults.ModelID
	}
	if config.Stability == 0 {
		config.Stability = defaults.Stability
	}
	if config.SimilarityBoost == 0 {
		config.SimilarityBoost = defaults.SimilarityBoost
	}
	if config.SampleRate == 0 {
		config.SampleRate = defaults.SampleRate
	}
	if logger == nil {
		logger = core.GetLogger()
	}
	return &ElevenLabsTTS{
		config:     config,
		logger:     logger,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// outputFormatString converts the configured sample rate to the ElevenLabs
// output_format query parameter.
func outputFormatString(sampleRate int) string {
	switch sampleRate {
	case 16000:
		return "pcm_16000"
	case 22050:
		return "pcm_22050"
	case 44100:
		return "pcm_44100"
	default:
		return "pcm_24000"
	}
}

func (e *ElevenLabsTTS) Initialize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config.APIKey == "" {
		return fmt.Errorf("ElevenLabs API key is required")
	}
	e.isInitialized = true
	return nil
}

func (e *ElevenLabsTTS) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.isInitialized = false
	return nil
}

// Synthesize converts text to PCM audio at the configured voice and rate.
func (e *ElevenLabsTTS) Synthesize(ctx context.Context, text string) (core.AudioChunk, error) {
	e.mu.RLock()
	initialized := e.isInitialized
	e.mu.RUnlock()

	if !initialized {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "ElevenLabs service not initialized"}
	}

	body, err := sonic.Marshal(elSynthesisRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: elVoiceSettings{
			Stability:       e.config.Stability,
			SimilarityBoost: e.config.SimilarityBoost,
		},
	})
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "marshal request", Err: err}
	}

	url := fmt.Sprintf("%s/%s?output_format=%s",
		e.config.BaseURL, e.config.VoiceID, outputFormatString(e.config.SampleRate))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "build request", Err: err}
	}
	req.Header.Set("xi-api-key", e.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "synthesis request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		reason := fmt.Sprintf("synthesis returned HTTP %d", resp.StatusCode)
		var apiErr elErrorResponse
		if sonic.Unmarshal(raw, &apiErr) == nil && apiErr.Detail.Message != "" {
			reason = fmt.Sprintf("%s: %s", reason, apiErr.Detail.Message)
		}
		return core.AudioChunk{}, &core.SynthesisError{Reason: reason}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "read audio response", Err: err}
	}
	if len(audioData) == 0 {
		return core.AudioChunk{}, &core.SynthesisError{Reason: "synthesis returned no audio"}
	}

	e.logger.With(map[string]any{"chars": len(text), "bytes": len(audioData)}).Debug("synthesis complete")
	return core.AudioChunk{
		Data:       audioData,
		SampleRate: e.config.SampleRate,
		Channels:   1,
		Format:     core.PCM,
	}, nil
}
