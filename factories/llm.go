package factories

import (
	"errors"

	"github.com/kalchan12/echomind/core"
	localllm "github.com/kalchan12/echomind/services/local/llm"
	openaillm "github.com/kalchan12/echomind/services/openai/llm"
)

// LLMFactoryConfig holds provider-specific configs for generation service
// construction. Set exactly one provider config; the rest should be left nil.
type LLMFactoryConfig struct {
	OpenAIConfig *openaillm.Config `json:"openai,omitempty"`
	LocalConfig  *localllm.Config  `json:"local,omitempty"`
}

// BuildLLMService constructs an LLMService from the given factory config.
// Exactly one provider config must be non-nil.
func BuildLLMService(config LLMFactoryConfig, logger *core.Logger) (core.LLMService, error) {
	switch {
	case config.OpenAIConfig != nil:
		return openaillm.NewOpenAILLMService(*config.OpenAIConfig, logger), nil
	case config.LocalConfig != nil:
		return localllm.NewEchoLLMService(*config.LocalConfig), nil
	}
	return nil, errors.New("LLMFactoryConfig: no provider config specified")
}
