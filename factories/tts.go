package factories

import (
	"errors"

	"github.com/kalchan12/echomind/core"
	elevenlabstts "github.com/kalchan12/echomind/services/elevenlabs/tts"
	openaitts "github.com/kalchan12/echomind/services/openai/tts"
)

// TTSFactoryConfig holds provider-specific configs for TTS service
// construction. Set exactly one provider config; the rest should be left nil.
type TTSFactoryConfig struct {
	ElevenLabsConfig *elevenlabstts.ElevenLabsTTSConfig `json:"elevenlabs,omitempty"`
	OpenAIConfig     *openaitts.Config                  `json:"openai,omitempty"`
}

// BuildTTSService constructs a TTSService from the given factory config.
// Exactly one provider config must be non-nil.
func BuildTTSService(config TTSFactoryConfig, logger *core.Logger) (core.TTSService, error) {
	switch {
	case config.ElevenLabsConfig != nil:
		return elevenlabstts.NewElevenLabsTTS(*config.ElevenLabsConfig, logger), nil
	case config.OpenAIConfig != nil:
		return openaitts.NewOpenAITTSService(*config.OpenAIConfig, logger), nil
	}
	return nil, errors.New("TTSFactoryConfig: no provider config specified")
}
