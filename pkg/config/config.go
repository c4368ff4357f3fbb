// Package config loads the host-process configuration: struct defaults
// overridden by UNFURL_* environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds the CLI-facing settings.
type Config struct {
	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`
	Strict   bool   `koanf:"strict"`
	TasksKey string `koanf:"tasks_key"`
	Output   string `koanf:"output"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		TasksKey: "tasks",
		Output:   "yaml",
	}
}

const envPrefix = "UNFURL_"

// Load builds the configuration from defaults overridden by UNFURL_*
// environment variables (UNFURL_LOG_LEVEL, UNFURL_STRICT, ...).
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return &cfg, nil
}
