package factories

import (
	"errors"

	"github.com/kalchan12/echomind/core"
	googlestt "github.com/kalchan12/echomind/services/google/stt"
	openaistt "github.com/kalchan12/echomind/services/openai/stt"
)

// STTFactoryConfig holds provider-specific configs for STT service
// construction. Set exactly one provider config; the rest should be left nil.
type STTFactoryConfig struct {
	WhisperConfig *openaistt.Config `json:"whisper,omitempty"`
	GoogleConfig  *googlestt.Config `json:"google,omitempty"`
}

// BuildSTTService constructs an STTService from the given factory config.
// Exactly one provider config must be non-nil.
func BuildSTTService(config STTFactoryConfig, logger *core.Logger) (core.STTService, error) {
	switch {
	case config.WhisperConfig != nil:
		return openaistt.NewWhisperSTTService(*config.WhisperConfig, logger), nil
	case config.GoogleConfig != nil:
		return googlestt.NewGoogleSTTService(*config.GoogleConfig, logger), nil
	}
	return nil, errors.New("STTFactoryConfig: no provider config specified")
}
