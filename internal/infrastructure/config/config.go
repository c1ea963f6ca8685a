package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is prepended to every environment variable name.
const Prefix = "HQ"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Query     QueryConfig
	Fetch     FetchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// QueryConfig bounds document loading and query parsing.
type QueryConfig struct {
	MaxDepth    int   `envconfig:"MAX_DEPTH" default:"100"`
	MaxHTMLSize int64 `envconfig:"MAX_HTML_SIZE" default:"10485760"`
	Sanitize    bool  `envconfig:"SANITIZE" default:"false"`
}

// FetchConfig holds the URL loader configuration.
type FetchConfig struct {
	Timeout           time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	Retries           int           `envconfig:"FETCH_RETRIES" default:"3"`
	RequestsPerSecond float64       `envconfig:"FETCH_RPS" default:"5"`
	UserAgent         string        `envconfig:"USER_AGENT" default:"hquery/1.0"`
}

// Load loads configuration from HQ_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	sections := map[string]any{
		"server":     &cfg.Server,
		"logging":    &cfg.Logging,
		"rate limit": &cfg.RateLimit,
		"query":      &cfg.Query,
		"fetch":      &cfg.Fetch,
	}
	for name, section := range sections {
		if err := envconfig.Process(Prefix, section); err != nil {
			return nil, fmt.Errorf("failed to load %s config: %w", name, err)
		}
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Query: QueryConfig{
			MaxDepth:    100,
			MaxHTMLSize: 10 * 1024 * 1024,
		},
		Fetch: FetchConfig{
			Timeout:           30 * time.Second,
			Retries:           3,
			RequestsPerSecond: 5,
			UserAgent:         "hquery/1.0",
		},
	}
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
