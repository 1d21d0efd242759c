// Package config loads the Helios console configuration from a YAML file
// with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all console configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Chat    ChatConfig    `yaml:"chat"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig points at the backend.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"` // Go duration string for request/response calls
}

// AuthConfig configures bearer-token lookup.
type AuthConfig struct {
	// Token is a fixed bearer token. Takes precedence when set.
	Token string `yaml:"token"`
	// TokenEnv names the environment variable holding the token.
	TokenEnv string `yaml:"token_env"`
}

// ChatConfig configures the chat session.
type ChatConfig struct {
	// GoalID is the default goal queried when none is given on the
	// command line.
	GoalID string `yaml:"goal_id"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "30s",
		},
		Auth: AuthConfig{
			TokenEnv: "HELIOS_TOKEN",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path, layering it over the defaults. A missing file is not an
// error; environment overrides apply last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets deploy environments override the file without
// editing it.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HELIOS_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("HELIOS_GOAL_ID"); v != "" {
		cfg.Chat.GoalID = v
	}
	if v := os.Getenv("HELIOS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// TimeoutDuration parses the API timeout, falling back to 30s.
func (c APIConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
