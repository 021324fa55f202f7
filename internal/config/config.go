// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns a Config populated with defaults.
// - Load layers .env, an optional YAML file and AOELOOKUP_* env vars on top.
// - Validation errors wrap ErrInvalidConfig; source errors wrap ErrLoadConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// PlayersFile points to the JSON seed for the player directory.
	// Empty starts the service with an empty directory.
	PlayersFile string `koanf:"players_file"`

	// SearchLimit caps the number of players returned per search.
	SearchLimit int `koanf:"search_limit"`

	// SearchTimeoutMS bounds a single fetch; 0 disables the timeout.
	SearchTimeoutMS int `koanf:"search_timeout_ms"`

	// SearchLatencyMinMS and SearchLatencyMaxMS simulate upstream API latency.
	SearchLatencyMinMS int `koanf:"search_latency_min_ms"`
	SearchLatencyMaxMS int `koanf:"search_latency_max_ms"`

	// SessionTTLSeconds evicts sessions that saw no event for this long.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// MaxSessions caps concurrently live sessions.
	MaxSessions int `koanf:"max_sessions"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		PlayersFile:        "",
		SearchLimit:        50,
		SearchTimeoutMS:    5000,
		SearchLatencyMinMS: 50,
		SearchLatencyMaxMS: 250,
		SessionTTLSeconds:  1800,
		MaxSessions:        10_000,
	}
}

// SearchTimeout returns SearchTimeoutMS as a duration.
func (c *Config) SearchTimeout() time.Duration {
	return time.Duration(c.SearchTimeoutMS) * time.Millisecond
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.SearchLimit < 1:
		return fmt.Errorf("%w: search_limit must be positive", ErrInvalidConfig)
	case c.SearchTimeoutMS < 0:
		return fmt.Errorf("%w: search_timeout_ms must not be negative", ErrInvalidConfig)
	case c.SearchLatencyMinMS < 0 || c.SearchLatencyMaxMS < c.SearchLatencyMinMS:
		return fmt.Errorf("%w: search latency range [%d, %d] is invalid", ErrInvalidConfig, c.SearchLatencyMinMS, c.SearchLatencyMaxMS)
	case c.SessionTTLSeconds < 1:
		return fmt.Errorf("%w: session_ttl_seconds must be positive", ErrInvalidConfig)
	case c.MaxSessions < 1:
		return fmt.Errorf("%w: max_sessions must be positive", ErrInvalidConfig)
	}
	return nil
}
