package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heurist-network/mesh-client-go/mesh"
)

// Config holds everything the CLI needs to talk to a mesh sequencer.
type Config struct {
	BaseURL             string    `yaml:"base_url"`
	APIKey              string    `yaml:"api_key"`
	TimeoutSeconds      int       `yaml:"timeout_seconds"`
	PollIntervalSeconds int       `yaml:"poll_interval_seconds"`
	Log                 LogConfig `yaml:"log"`
}

// LogConfig controls CLI logging output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with all defaults applied and the API key
// resolved from the environment. The CLI works without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load parses the YAML configuration file at path and applies defaults for
// anything left unset.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config file path is empty")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// applyDefaults fills unset fields. The API key falls back to the same
// environment variable the client library consults, keeping the two
// resolution paths consistent.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = mesh.DefaultBaseURL
	}
	if c.APIKey == "" {
		c.APIKey = os.Getenv(mesh.APIKeyEnvVar)
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = int(mesh.DefaultTimeout / time.Second)
	}
	if c.PollIntervalSeconds <= 0 {
		c.PollIntervalSeconds = int(mesh.DefaultPollInterval / time.Second)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the task polling interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
