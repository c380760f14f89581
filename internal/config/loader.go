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
// built-in defaults, applies TRADEDASH_* environment variable overrides, and
// returns the final Config. An empty path skips the file. The returned Config
// has NOT been validated; the caller should invoke Config.Validate() after
// Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADEDASH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Environments ──
	// Shared TRADEDASH_SUPABASE_* values apply to both projects first; the
	// per-environment variables then win where set.
	for _, p := range []*SupabaseConfig{&cfg.Environments.Staging, &cfg.Environments.Production} {
		applyProjectOverrides(p, "TRADEDASH_SUPABASE_")
	}
	applyProjectOverrides(&cfg.Environments.Staging, "TRADEDASH_STAGING_")
	applyProjectOverrides(&cfg.Environments.Production, "TRADEDASH_PRODUCTION_")
	setStr(&cfg.DefaultEnvironment, "TRADEDASH_DEFAULT_ENV")

	// ── Auth ──
	setBool(&cfg.Auth.Enabled, "TRADEDASH_AUTH_ENABLED")
	setDuration(&cfg.Auth.Timeout, "TRADEDASH_AUTH_TIMEOUT")
	setBool(&cfg.Auth.CookieSecure, "TRADEDASH_AUTH_COOKIE_SECURE")
	setDuration(&cfg.Auth.Leeway, "TRADEDASH_AUTH_LEEWAY")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TRADEDASH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRADEDASH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADEDASH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADEDASH_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADEDASH_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADEDASH_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADEDASH_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TRADEDASH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADEDASH_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADEDASH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADEDASH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADEDASH_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADEDASH_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADEDASH_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "TRADEDASH_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform alias
	setStringSlice(&cfg.Server.CORSOrigins, "TRADEDASH_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "TRADEDASH_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "TRADEDASH_SERVER_RATE_WINDOW")

	// ── Realtime ──
	setStr(&cfg.Realtime.Source, "TRADEDASH_REALTIME_SOURCE")
	setStr(&cfg.Realtime.Channel, "TRADEDASH_REALTIME_CHANNEL")
	setDuration(&cfg.Realtime.ResyncInterval, "TRADEDASH_REALTIME_RESYNC_INTERVAL")

	// ── Cache / Export ──
	setDuration(&cfg.Cache.SnapshotTTL, "TRADEDASH_CACHE_SNAPSHOT_TTL")
	setStr(&cfg.Export.Prefix, "TRADEDASH_EXPORT_PREFIX")
	setInt64(&cfg.Export.PartSize, "TRADEDASH_EXPORT_PART_SIZE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADEDASH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRADEDASH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADEDASH_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRADEDASH_NOTIFY_EVENTS")

	// ── Log ──
	setStr(&cfg.Log.File, "TRADEDASH_LOG_FILE")
	setInt(&cfg.Log.MaxSizeMB, "TRADEDASH_LOG_MAX_SIZE_MB")
	setInt(&cfg.Log.MaxBackups, "TRADEDASH_LOG_MAX_BACKUPS")
	setInt(&cfg.Log.MaxAgeDays, "TRADEDASH_LOG_MAX_AGE_DAYS")
	setStr(&cfg.LogLevel, "TRADEDASH_LOG_LEVEL")
}

func applyProjectOverrides(p *SupabaseConfig, prefix string) {
	setStr(&p.DSN, prefix+"DSN")
	setStr(&p.Host, prefix+"HOST")
	setInt(&p.Port, prefix+"PORT")
	setStr(&p.Database, prefix+"DATABASE")
	setStr(&p.User, prefix+"USER")
	setStr(&p.Password, prefix+"PASSWORD")
	setStr(&p.SSLMode, prefix+"SSL_MODE")
	setInt(&p.PoolMaxConns, prefix+"POOL_MAX_CONNS")
	setInt(&p.PoolMinConns, prefix+"POOL_MIN_CONNS")
	setStr(&p.ApiURL, prefix+"API_URL")
	setStr(&p.AnonKey, prefix+"ANON_KEY")
	setStr(&p.JWTSecret, prefix+"JWT_SECRET")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
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
