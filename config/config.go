// Package config loads EchoForge configuration from YAML.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds runtime settings. Keys absent from a loaded file fall
// back to their defaults, so a partial config file is valid.
type Config struct {
	LLMModel               string  `yaml:"llm_model"`
	LLMTemperature         float64 `yaml:"llm_temperature"`
	MaxConversationHistory int     `yaml:"max_conversation_history"`

	// TopK bounds how many historical examples retrieval feeds into
	// generation.
	TopK int `yaml:"top_k"`

	DataDir  string `yaml:"data_dir"`
	LogsDir  string `yaml:"logs_dir"`
	CacheDir string `yaml:"cache_dir"`

	// ListenAddr is the bind address for serve mode.
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		LLMModel:               "claude-sonnet-4-20250514",
		LLMTemperature:         0.7,
		MaxConversationHistory: 10,
		TopK:                   3,
		DataDir:                "data/echoforge",
		LogsDir:                "logs",
		CacheDir:               "cache",
		ListenAddr:             ":8080",
	}
}

// fileConfig mirrors Config with optional fields, so a key that is
// absent from the file is distinguishable from one set explicitly to
// its zero value (llm_temperature: 0 is a valid setting).
type fileConfig struct {
	LLMModel               *string  `yaml:"llm_model"`
	LLMTemperature         *float64 `yaml:"llm_temperature"`
	MaxConversationHistory *int     `yaml:"max_conversation_history"`
	TopK                   *int     `yaml:"top_k"`
	DataDir                *string  `yaml:"data_dir"`
	LogsDir                *string  `yaml:"logs_dir"`
	CacheDir               *string  `yaml:"cache_dir"`
	ListenAddr             *string  `yaml:"listen_addr"`
}

// Load reads the config at path, merged over defaults. Load never fails:
// a missing or unreadable file yields the defaults, with a log line
// explaining what happened.
func Load(path string) Config {
	log.Printf("[CONFIG] Loading config from %s", path)

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[CONFIG] Config file not found, using defaults")
		return cfg
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		log.Printf("[CONFIG] Failed to parse %s: %v, using defaults", path, err)
		return cfg
	}

	if f.LLMModel != nil {
		cfg.LLMModel = *f.LLMModel
	}
	if f.LLMTemperature != nil {
		cfg.LLMTemperature = *f.LLMTemperature
	}
	if f.MaxConversationHistory != nil {
		cfg.MaxConversationHistory = *f.MaxConversationHistory
	}
	if f.TopK != nil {
		cfg.TopK = *f.TopK
	}
	if f.DataDir != nil {
		cfg.DataDir = *f.DataDir
	}
	if f.LogsDir != nil {
		cfg.LogsDir = *f.LogsDir
	}
	if f.CacheDir != nil {
		cfg.CacheDir = *f.CacheDir
	}
	if f.ListenAddr != nil {
		cfg.ListenAddr = *f.ListenAddr
	}
	return cfg
}

// Save writes the config to path, creating parent directories.
func (c Config) Save(path string) error {
	log.Printf("[CONFIG] Saving config to %s", path)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
