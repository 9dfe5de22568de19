package factories

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"

	filestore "github.com/kalchan12/echomind/store/file"
	redisstore "github.com/kalchan12/echomind/store/redis"
)

// ServerConfig controls the HTTP/WebSocket surface.
type ServerConfig struct {
	Addr  string `json:"addr"`
	Theme string `json:"theme"`
}

// StoreFactoryConfig selects a snapshot store driver. Set at most one; nil
// disables conversation save/load.
type StoreFactoryConfig struct {
	FileConfig  *filestore.Config  `json:"file,omitempty"`
	RedisConfig *redisstore.Config `json:"redis,omitempty"`
}

// SettingsConfig is the process-level configuration, read once at startup.
type SettingsConfig struct {
	Server  ServerConfig        `json:"server"`
	Session SessionConfig       `json:"session"`
	Store   *StoreFactoryConfig `json:"store,omitempty"`
}

// DefaultSettingsConfig returns settings for a local text-only assistant.
func DefaultSettingsConfig() SettingsConfig {
	fileCfg := filestore.DefaultConfig()
	return SettingsConfig{
		Server:  ServerConfig{Addr: "127.0.0.1:7862", Theme: "default"},
		Session: DefaultSessionConfig(),
		Store:   &StoreFactoryConfig{FileConfig: &fileCfg},
	}
}

// SettingsConfigFromJSON parses a JSON blob into a SettingsConfig, starting
// from DefaultSettingsConfig so that any fields absent from the JSON retain
// their defaults. API keys and other secrets should be injected after
// loading via env vars rather than stored in config files.
func SettingsConfigFromJSON(data []byte) (SettingsConfig, error) {
	cfg := DefaultSettingsConfig()
	if err := sonic.Unmarshal(data, &cfg); err != nil {
		return SettingsConfig{}, fmt.Errorf("settings config: %w", err)
	}
	return cfg, nil
}

// SettingsConfigFromFile loads settings from a JSON file.
func SettingsConfigFromFile(path string) (SettingsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SettingsConfig{}, fmt.Errorf("settings config: %w", err)
	}
	return SettingsConfigFromJSON(data)
}
