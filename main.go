package main

import (
	"context"
	"encoding/base64"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kalchan12/echomind/core"
	"github.com/kalchan12/echomind/factories"
	"github.com/kalchan12/echomind/orchestrator"
	"github.com/kalchan12/echomind/server"
	"github.com/kalchan12/echomind/store"
	filestore "github.com/kalchan12/echomind/store/file"
	redisstore "github.com/kalchan12/echomind/store/redis"
)

func main() {
	var settingsPath string
	flag.StringVar(&settingsPath, "settings", "", "Path to settings.json (default: $SETTINGS_PATH or ./settings.json)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := godotenv.Load(".env"); err != nil {
		core.GetLogger().With(map[string]any{"error": err}).Warn("No .env file found or failed to load")
	}

	logger := core.GetLogger()
	settings := loadSettings(settingsPath, logger)

	apiKeys := factories.APIKeys{
		OpenAI:     os.Getenv("OPENAI_API_KEY"),
		ElevenLabs: os.Getenv("ELEVENLABS_API_KEY"),
	}
	settings.Session.InjectAPIKeys(apiKeys)

	snapshots := buildSnapshotStore(ctx, settings.Store, logger)
	if snapshots != nil {
		defer snapshots.Close()
	}

	sessionCfg := settings.Session
	builder := func(jobCtx context.Context) (*orchestrator.Orchestrator, error) {
		return sessionCfg.BuildOrchestrator(jobCtx, logger)
	}

	srv := server.New(server.Config{Addr: settings.Server.Addr}, builder, snapshots, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.With(map[string]any{"error": err}).Fatal("server failed")
	}
	logger.Info("shutting down")
}

// loadSettings loads SettingsConfig from a file or the SETTINGS_JSON_B64 env
// var, falling back to defaults on any failure.
func loadSettings(settingsPath string, logger *core.Logger) factories.SettingsConfig {
	if b64 := os.Getenv("SETTINGS_JSON_B64"); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			logger.With(map[string]any{"error": err}).Error("failed to decode SETTINGS_JSON_B64")
			return factories.DefaultSettingsConfig()
		}
		settings, err := factories.SettingsConfigFromJSON(data)
		if err != nil {
			logger.With(map[string]any{"error": err}).Error("failed to parse SETTINGS_JSON_B64")
			return factories.DefaultSettingsConfig()
		}
		logger.Info("loaded settings from SETTINGS_JSON_B64")
		return settings
	}

	if settingsPath == "" {
		settingsPath = getEnv("SETTINGS_PATH", "./settings.json")
	}
	settings, err := factories.SettingsConfigFromFile(settingsPath)
	if err != nil {
		logger.With(map[string]any{"path": settingsPath, "error": err}).Warn("failed to load settings, using defaults")
		return factories.DefaultSettingsConfig()
	}
	return settings
}

// buildSnapshotStore constructs the configured snapshot store. A store that
// fails to come up only disables save/load.
func buildSnapshotStore(ctx context.Context, config *factories.StoreFactoryConfig, logger *core.Logger) store.Store {
	if config == nil {
		return nil
	}
	switch {
	case config.RedisConfig != nil:
		s, err := redisstore.NewRedisStore(ctx, *config.RedisConfig)
		if err != nil {
			logger.With(map[string]any{"error": err}).Warn("redis store unavailable, conversation save/load disabled")
			return nil
		}
		return s
	case config.FileConfig != nil:
		s, err := filestore.NewFileStore(*config.FileConfig)
		if err != nil {
			logger.With(map[string]any{"error": err}).Warn("file store unavailable, conversation save/load disabled")
			return nil
		}
		return s
	}
	return nil
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
