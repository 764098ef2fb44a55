// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Speech   SpeechConfig   `toml:"speech"`
	Prompt   PromptConfig   `toml:"prompt"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Locale      *string   `toml:"locale"`
	FillerWords *[]string `toml:"filler-words"`
	DBPath      *string   `toml:"db-path"`
}

// SpeechConfig maps speech capture settings.
type SpeechConfig struct {
	Backend       *string `toml:"backend"`
	Command       *string `toml:"command"`
	RecordCommand *string `toml:"record-command"`
	DeepgramKey   *string `toml:"deepgram-key"`
	DeepgramModel *string `toml:"deepgram-model"`
}

// PromptConfig maps prompt generation settings.
type PromptConfig struct {
	Backend     *string `toml:"backend"`
	OllamaURL   *string `toml:"ollama-url"`
	OllamaModel *string `toml:"ollama-model"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
