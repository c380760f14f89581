// Package config defines the top-level configuration for the trading
// dashboard and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by TRADEDASH_* environment variables.
type Config struct {
	Environments       EnvironmentsConfig `toml:"environments"`
	DefaultEnvironment string             `toml:"default_environment"`
	Auth               AuthConfig         `toml:"auth"`
	Redis              RedisConfig        `toml:"redis"`
	S3                 S3Config           `toml:"s3"`
	Server             ServerConfig       `toml:"server"`
	Realtime           RealtimeConfig     `toml:"realtime"`
	Cache              CacheConfig        `toml:"cache"`
	Export             ExportConfig       `toml:"export"`
	Notify             NotifyConfig       `toml:"notify"`
	Log                LogConfig          `toml:"log"`
	LogLevel           string             `toml:"log_level"`
}

// EnvironmentsConfig holds one Supabase project per selectable environment.
type EnvironmentsConfig struct {
	Staging    SupabaseConfig `toml:"staging"`
	Production SupabaseConfig `toml:"production"`
}

// For returns the project config for env.
func (e *EnvironmentsConfig) For(env domain.Environment) (SupabaseConfig, error) {
	switch env {
	case domain.EnvironmentStaging:
		return e.Staging, nil
	case domain.EnvironmentProduction:
		return e.Production, nil
	default:
		return SupabaseConfig{}, fmt.Errorf("config: %w: %q", domain.ErrUnknownEnvironment, env)
	}
}

// SupabaseConfig holds PostgreSQL and auth API parameters of one Supabase
// project.
type SupabaseConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
	ApiURL       string `toml:"api_url"`
	AnonKey      string `toml:"anon_key"`
	JWTSecret    string `toml:"jwt_secret"`
}

// AuthConfig controls the session gate.
type AuthConfig struct {
	Enabled      bool     `toml:"enabled"`
	Timeout      duration `toml:"timeout"`
	CookieSecure bool     `toml:"cookie_secure"`
	// Leeway tolerates clock skew when checking token expiry.
	Leeway duration `toml:"leeway"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
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

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// RateLimit is the number of /api requests allowed per client per
	// RateWindow. Zero disables rate limiting.
	RateLimit  int      `toml:"rate_limit"`
	RateWindow duration `toml:"rate_window"`
}

// RealtimeConfig selects where open-position change events come from.
type RealtimeConfig struct {
	// Source is "postgres" (LISTEN/NOTIFY), "redis" (pub/sub) or "off".
	Source  string `toml:"source"`
	Channel string `toml:"channel"`
	// ResyncInterval reloads the open positions from the store periodically.
	// Zero disables resync.
	ResyncInterval duration `toml:"resync_interval"`
}

// CacheConfig controls the Redis snapshot cache.
type CacheConfig struct {
	SnapshotTTL duration `toml:"snapshot_ttl"`
}

// ExportConfig controls journal exports to object storage.
type ExportConfig struct {
	Prefix   string `toml:"prefix"`
	PartSize int64  `toml:"part_size"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// LogConfig adds an optional rotating log file next to stdout.
type LogConfig struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	project := SupabaseConfig{
		Host:         "localhost",
		Port:         5432,
		Database:     "postgres",
		User:         "postgres",
		SSLMode:      "disable",
		PoolMaxConns: 5,
		PoolMinConns: 1,
	}
	return Config{
		Environments: EnvironmentsConfig{
			Staging:    project,
			Production: project,
		},
		DefaultEnvironment: string(domain.EnvironmentStaging),
		Auth: AuthConfig{
			Enabled: true,
			Timeout: duration{10 * time.Second},
			Leeway:  duration{30 * time.Second},
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "tradedash-exports",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        3000,
			CORSOrigins: []string{"http://localhost:3000"},
			RateLimit:   120,
			RateWindow:  duration{time.Minute},
		},
		Realtime: RealtimeConfig{
			Source:  "postgres",
			Channel: "positions_changes",
		},
		Cache: CacheConfig{
			SnapshotTTL: duration{15 * time.Second},
		},
		Export: ExportConfig{
			Prefix:   "exports",
			PartSize: 8 << 20,
		},
		Notify: NotifyConfig{
			Events: []string{"position_opened", "position_closed", "export_completed", "feed_error"},
		},
		Log: LogConfig{
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validRealtimeSources enumerates the accepted values for Realtime.Source.
var validRealtimeSources = map[string]bool{
	"postgres": true,
	"redis":    true,
	"off":      true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if _, ok := domain.ParseEnvironment(c.DefaultEnvironment); !ok {
		errs = append(errs, fmt.Sprintf("unknown default_environment %q (valid: staging, production)", c.DefaultEnvironment))
	}

	for _, env := range domain.Environments {
		p, _ := c.Environments.For(env)
		errs = append(errs, validateProject(string(env), p, c.Auth.Enabled)...)
	}

	if c.Auth.Enabled && c.Auth.Timeout.Duration <= 0 {
		errs = append(errs, "auth: timeout must be > 0")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, "server: rate_limit must be >= 0")
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
		errs = append(errs, "server: rate_window must be > 0 when rate_limit is set")
	}

	src := strings.ToLower(c.Realtime.Source)
	if !validRealtimeSources[src] {
		errs = append(errs, fmt.Sprintf("realtime: unknown source %q (valid: postgres, redis, off)", c.Realtime.Source))
	}
	if src == "redis" && !c.Redis.Enabled {
		errs = append(errs, "realtime: source redis requires redis.enabled")
	}
	if src != "off" && c.Realtime.Channel == "" {
		errs = append(errs, "realtime: channel must not be empty")
	}
	if c.Realtime.ResyncInterval.Duration < 0 {
		errs = append(errs, "realtime: resync_interval must be >= 0")
	}

	if c.Export.PartSize < 5<<20 {
		errs = append(errs, "export: part_size must be >= 5MiB")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func validateProject(name string, p SupabaseConfig, authEnabled bool) []string {
	var errs []string
	prefix := "environments." + name
	if strings.TrimSpace(p.DSN) == "" {
		if p.Host == "" {
			errs = append(errs, prefix+": host must not be empty (or set dsn)")
		}
		if p.Port <= 0 || p.Port > 65535 {
			errs = append(errs, fmt.Sprintf("%s: port must be 1-65535, got %d", prefix, p.Port))
		}
		if p.Database == "" {
			errs = append(errs, prefix+": database must not be empty")
		}
	}
	if p.PoolMaxConns < 1 {
		errs = append(errs, prefix+": pool_max_conns must be >= 1")
	}
	if p.PoolMinConns < 0 {
		errs = append(errs, prefix+": pool_min_conns must be >= 0")
	}
	if p.PoolMinConns > p.PoolMaxConns {
		errs = append(errs, prefix+": pool_min_conns must not exceed pool_max_conns")
	}
	if authEnabled {
		if p.ApiURL == "" {
			errs = append(errs, prefix+": api_url is required when auth is enabled")
		}
		if p.AnonKey == "" {
			errs = append(errs, prefix+": anon_key is required when auth is enabled")
		}
		if p.JWTSecret == "" {
			errs = append(errs, prefix+": jwt_secret is required when auth is enabled")
		}
	}
	return errs
}
