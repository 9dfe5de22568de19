package factories

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openaillm "github.com/kalchan12/echomind/services/openai/llm"
	openaistt "github.com/kalchan12/echomind/services/openai/stt"
)

func TestSettingsConfigFromJSONKeepsDefaults(t *testing.T) {
	cfg, err := SettingsConfigFromJSON([]byte(`{"server":{"addr":"0.0.0.0:9000"}}`))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, "default", cfg.Server.Theme)
	require.NotNil(t, cfg.Session.LLM.LocalConfig)
	assert.Nil(t, cfg.Session.STT)
}

func TestSettingsConfigFromJSONMalformed(t *testing.T) {
	_, err := SettingsConfigFromJSON([]byte(`{"server":`))
	assert.Error(t, err)
}

func TestSettingsConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"session":{"memory":{"max_turns":7}}}`), 0o644))

	cfg, err := SettingsConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Session.Memory.MaxTurns)

	_, err = SettingsConfigFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestInjectAPIKeysFillsEmptyFieldsOnly(t *testing.T) {
	openaiCfg := openaillm.DefaultConfig()
	whisperCfg := openaistt.DefaultConfig()
	whisperCfg.APIKey = "already-set"

	cfg := DefaultSessionConfig()
	cfg.LLM = LLMFactoryConfig{OpenAIConfig: &openaiCfg}
	cfg.STT = &STTFactoryConfig{WhisperConfig: &whisperCfg}

	cfg.InjectAPIKeys(APIKeys{OpenAI: "sk-test"})

	assert.Equal(t, "sk-test", cfg.LLM.OpenAIConfig.APIKey)
	assert.Equal(t, "already-set", cfg.STT.WhisperConfig.APIKey)
}

func TestBuildOrchestratorWithLocalBackend(t *testing.T) {
	cfg := DefaultSessionConfig()
	cfg.Memory.MaxTurns = 4

	o, err := cfg.BuildOrchestrator(context.Background(), nil)
	require.NoError(t, err)

	reply, err := o.HandleText(context.Background(), "hello")
	require.NoError(t, err)
	assert.Contains(t, reply, "hello")
	assert.Equal(t, 4, o.Memory().MaxTurns())
}

func TestBuildLLMServiceRequiresProvider(t *testing.T) {
	_, err := BuildLLMService(LLMFactoryConfig{}, nil)
	assert.Error(t, err)
	_, err = BuildSTTService(STTFactoryConfig{}, nil)
	assert.Error(t, err)
	_, err = BuildTTSService(TTSFactoryConfig{}, nil)
	assert.Error(t, err)
}
