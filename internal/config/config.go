// Package config defines the top-level configuration for the odds screen
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by ODDSCREEN_* environment variables.
type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Reference ReferenceConfig `toml:"reference"`
	Correlate CorrelateConfig `toml:"correlate"`
	Redis     RedisConfig     `toml:"redis"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// EngineConfig holds the refresher loop parameters.
type EngineConfig struct {
	Interval     duration `toml:"interval"`
	PositiveTTL  duration `toml:"positive_ttl"`
	NegativeTTL  duration `toml:"negative_ttl"`
	CleanupEvery int      `toml:"cleanup_every"`
	FetchTimeout duration `toml:"fetch_timeout"`
}

// ReferenceConfig holds the sharp reference feed connection parameters.
type ReferenceConfig struct {
	BaseURL    string   `toml:"base_url"`
	APIKey     string   `toml:"api_key"`
	Source     string   `toml:"source"`
	Timeout    duration `toml:"timeout"`
	MaxRetries int      `toml:"max_retries"`
	RetryDelay duration `toml:"retry_delay"`
}

// CorrelateConfig holds event matching parameters.
type CorrelateConfig struct {
	Threshold float64 `toml:"threshold"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled      bool     `toml:"enabled"`
	Port         int      `toml:"port"`
	CORSOrigins  []string `toml:"cors_origins"`
	APIKey       string   `toml:"api_key"`
	IngestLimit  int      `toml:"ingest_limit"`
	IngestWindow duration `toml:"ingest_window"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Engine: EngineConfig{
			Interval:     duration{5 * time.Second},
			PositiveTTL:  duration{180 * time.Second},
			NegativeTTL:  duration{60 * time.Second},
			CleanupEvery: 20,
			FetchTimeout: duration{10 * time.Second},
		},
		Reference: ReferenceConfig{
			BaseURL:    "https://swordfish-production.up.railway.app",
			Source:     "swordfish",
			Timeout:    duration{10 * time.Second},
			MaxRetries: 2,
			RetryDelay: duration{500 * time.Millisecond},
		},
		Correlate: CorrelateConfig{
			Threshold: 0.78,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
		},
		Server: ServerConfig{
			Enabled:      true,
			Port:         8000,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
			IngestLimit:  60,
			IngestWindow: duration{time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "removal"},
		},
		Mode:     "engine",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"engine":  true,
	"monitor": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: engine, monitor)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Engine
	if c.Engine.Interval.Duration <= 0 {
		errs = append(errs, "engine: interval must be > 0")
	}
	if c.Engine.PositiveTTL.Duration <= 0 {
		errs = append(errs, "engine: positive_ttl must be > 0")
	}
	if c.Engine.NegativeTTL.Duration <= 0 {
		errs = append(errs, "engine: negative_ttl must be > 0")
	}
	if c.Engine.NegativeTTL.Duration > c.Engine.PositiveTTL.Duration {
		errs = append(errs, "engine: negative_ttl must not exceed positive_ttl")
	}
	if c.Engine.CleanupEvery < 1 {
		errs = append(errs, "engine: cleanup_every must be >= 1")
	}

	// Reference feed
	if c.Reference.BaseURL == "" {
		errs = append(errs, "reference: base_url must not be empty")
	}
	if c.Reference.Source == "" {
		errs = append(errs, "reference: source must not be empty")
	}
	if c.Reference.MaxRetries < 0 {
		errs = append(errs, "reference: max_retries must be >= 0")
	}

	// Correlate
	if c.Correlate.Threshold <= 0 || c.Correlate.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("correlate: threshold must be in (0, 1], got %g", c.Correlate.Threshold))
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.IngestLimit > 0 && c.Server.IngestWindow.Duration <= 0 {
			errs = append(errs, "server: ingest_window must be > 0 when ingest_limit is set")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
