package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ODDSCREEN_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ODDSCREEN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Engine ──
	setDuration(&cfg.Engine.Interval, "ODDSCREEN_ENGINE_INTERVAL")
	setDuration(&cfg.Engine.PositiveTTL, "ODDSCREEN_ENGINE_POSITIVE_TTL")
	setDuration(&cfg.Engine.NegativeTTL, "ODDSCREEN_ENGINE_NEGATIVE_TTL")
	setInt(&cfg.Engine.CleanupEvery, "ODDSCREEN_ENGINE_CLEANUP_EVERY")
	setDuration(&cfg.Engine.FetchTimeout, "ODDSCREEN_ENGINE_FETCH_TIMEOUT")

	// ── Reference feed ──
	setStr(&cfg.Reference.BaseURL, "ODDSCREEN_REFERENCE_BASE_URL")
	setStr(&cfg.Reference.APIKey, "ODDSCREEN_REFERENCE_API_KEY")
	setStr(&cfg.Reference.Source, "ODDSCREEN_REFERENCE_SOURCE")
	setDuration(&cfg.Reference.Timeout, "ODDSCREEN_REFERENCE_TIMEOUT")
	setInt(&cfg.Reference.MaxRetries, "ODDSCREEN_REFERENCE_MAX_RETRIES")
	setDuration(&cfg.Reference.RetryDelay, "ODDSCREEN_REFERENCE_RETRY_DELAY")

	// ── Correlate ──
	setFloat64(&cfg.Correlate.Threshold, "ODDSCREEN_CORRELATE_THRESHOLD")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ODDSCREEN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ODDSCREEN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ODDSCREEN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ODDSCREEN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ODDSCREEN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ODDSCREEN_REDIS_TLS_ENABLED")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "ODDSCREEN_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "ODDSCREEN_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "ODDSCREEN_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "ODDSCREEN_SERVER_API_KEY")
	setInt(&cfg.Server.IngestLimit, "ODDSCREEN_SERVER_INGEST_LIMIT")
	setDuration(&cfg.Server.IngestWindow, "ODDSCREEN_SERVER_INGEST_WINDOW")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ODDSCREEN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ODDSCREEN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ODDSCREEN_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "ODDSCREEN_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ODDSCREEN_MODE")
	setStr(&cfg.LogLevel, "ODDSCREEN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
