// Package config loads the ColdScale YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
	AI      AIConfig      `yaml:"ai"`
	Sender  SenderConfig  `yaml:"sender"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	BaseURL      string        `yaml:"base_url"` // external URL for tracking links
}

// StorageConfig contains storage settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// AIConfig contains upstream generative-text API settings. The key can
// also come from the COLDSCALE_AI_API_KEY environment variable, which
// wins over the file.
type AIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// SenderConfig controls the delivery path.
type SenderConfig struct {
	Mode        string        `yaml:"mode"`         // simulated, live
	SendDelay   time.Duration `yaml:"send_delay"`   // delay between successive sends
	FailureRate float64       `yaml:"failure_rate"` // simulated failure probability
	MinLatency  time.Duration `yaml:"min_latency"`
	MaxLatency  time.Duration `yaml:"max_latency"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (c *Config) setDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/coldscale.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.AI.Endpoint == "" {
		c.AI.Endpoint = "https://generativelanguage.googleapis.com/v1beta"
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-pro"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 30 * time.Second
	}
	if key := os.Getenv("COLDSCALE_AI_API_KEY"); key != "" {
		c.AI.APIKey = key
	}
	if c.Sender.Mode == "" {
		c.Sender.Mode = "simulated"
	}
	if c.Sender.SendDelay == 0 {
		c.Sender.SendDelay = 2 * time.Second
	}
	if c.Sender.FailureRate == 0 {
		c.Sender.FailureRate = 0.05
	}
	if c.Sender.MinLatency == 0 {
		c.Sender.MinLatency = 500 * time.Millisecond
	}
	if c.Sender.MaxLatency == 0 {
		c.Sender.MaxLatency = 1500 * time.Millisecond
	}
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format: %s", c.Logging.Format)
	}
	switch c.Sender.Mode {
	case "simulated", "live":
	default:
		return fmt.Errorf("invalid sender mode: %s (must be simulated or live)", c.Sender.Mode)
	}
	if c.Sender.FailureRate < 0 || c.Sender.FailureRate > 1 {
		return fmt.Errorf("sender failure_rate must be between 0 and 1")
	}
	if c.Sender.MinLatency > c.Sender.MaxLatency {
		return fmt.Errorf("sender min_latency must not exceed max_latency")
	}
	return nil
}
