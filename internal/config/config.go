// Package config loads memochat configuration from a YAML file with
// environment variable overrides applied on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all memochat configuration.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Chat    ChatConfig    `yaml:"chat"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig points at the remote memory decision service.
type ServiceConfig struct {
	// BaseURL is required; Validate fails without it.
	BaseURL string `yaml:"base_url"`
	// APIKey is optional; when set it is sent as X-API-Key.
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

// ChatConfig tunes the conversation behavior.
type ChatConfig struct {
	// PreferredLanguage is the language hint for primary exchanges
	// (e.g. "he", "en"). Empty means no hint.
	PreferredLanguage string `yaml:"preferred_language"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`   // empty logs to stderr
}

// DefaultConfig returns the default configuration. BaseURL is deliberately
// left empty: there is no sensible default service address, so it must come
// from the file, the environment or a flag.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Timeout: "30s",
		},
		Chat: ChatConfig{
			PreferredLanguage: "he",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an error;
// defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks that required settings are present.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("service.base_url is required (or set MEMOCHAT_BASE_URL)")
	}
	if _, err := c.RequestTimeout(); err != nil {
		return fmt.Errorf("service.timeout: %w", err)
	}
	return nil
}

// RequestTimeout parses the configured per-request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Service.Timeout == "" {
		return 30 * time.Second, nil
	}
	return time.ParseDuration(c.Service.Timeout)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("MEMOCHAT_BASE_URL"); url != "" {
		c.Service.BaseURL = url
	}
	if key := os.Getenv("MEMOCHAT_API_KEY"); key != "" {
		c.Service.APIKey = key
	}
	if lang := os.Getenv("MEMOCHAT_LANG"); lang != "" {
		c.Chat.PreferredLanguage = lang
	}
	if level := os.Getenv("MEMOCHAT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// DefaultPath returns the conventional config location,
// $HOME/.memochat/config.yaml, or a relative fallback when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".memochat/config.yaml"
	}
	return filepath.Join(home, ".memochat", "config.yaml")
}
