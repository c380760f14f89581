package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradedash.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := writeConfig(t, `
default_environment = "production"
log_level = "debug"

[environments.production]
dsn = "postgres://prod"
api_url = "https://prod.supabase.co"

[realtime]
resync_interval = "2m"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DefaultEnvironment != "production" {
		t.Errorf("default_environment = %q, want production", cfg.DefaultEnvironment)
	}
	if cfg.Environments.Production.DSN != "postgres://prod" {
		t.Errorf("production dsn = %q", cfg.Environments.Production.DSN)
	}
	if cfg.Environments.Staging.Host != "localhost" {
		t.Errorf("staging host should keep default, got %q", cfg.Environments.Staging.Host)
	}
	if cfg.Realtime.ResyncInterval.Duration != 2*time.Minute {
		t.Errorf("resync_interval = %v, want 2m", cfg.Realtime.ResyncInterval.Duration)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port = %d, want default 3000", cfg.Server.Port)
	}
}

func TestEnvOverridesSharedThenPerEnvironment(t *testing.T) {
	t.Setenv("TRADEDASH_SUPABASE_API_URL", "https://shared.supabase.co")
	t.Setenv("TRADEDASH_SUPABASE_ANON_KEY", "shared-anon")
	t.Setenv("TRADEDASH_PRODUCTION_API_URL", "https://prod.supabase.co")
	t.Setenv("TRADEDASH_DEFAULT_ENV", "production")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Environments.Staging.ApiURL; got != "https://shared.supabase.co" {
		t.Errorf("staging api_url = %q, want shared fallback", got)
	}
	if got := cfg.Environments.Production.ApiURL; got != "https://prod.supabase.co" {
		t.Errorf("production api_url = %q, want per-environment value", got)
	}
	if got := cfg.Environments.Production.AnonKey; got != "shared-anon" {
		t.Errorf("production anon_key = %q, want shared fallback", got)
	}
	if cfg.DefaultEnvironment != "production" {
		t.Errorf("default_environment = %q", cfg.DefaultEnvironment)
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "verbose"
	cfg.DefaultEnvironment = "dev"
	cfg.Realtime.Source = "redis"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		`unknown log_level "verbose"`,
		`unknown default_environment "dev"`,
		"source redis requires redis.enabled",
		"environments.staging: api_url is required",
		"environments.production: jwt_secret is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%s", want, err)
		}
	}
}

func TestValidateDefaultsWithoutAuth(t *testing.T) {
	cfg := Defaults()
	cfg.Auth.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Environments.Production.JWTSecret = "super-secret"
	cfg.Environments.Staging.DSN = "postgres://user:pw@host/db"
	cfg.S3.SecretKey = "s3-secret"

	out := RedactedConfig(&cfg)
	if out.Environments.Production.JWTSecret != redacted {
		t.Errorf("jwt_secret not redacted: %q", out.Environments.Production.JWTSecret)
	}
	if out.Environments.Staging.DSN != redacted {
		t.Errorf("dsn not redacted: %q", out.Environments.Staging.DSN)
	}
	if out.S3.SecretKey != redacted {
		t.Errorf("s3 secret not redacted")
	}
	if cfg.Environments.Production.JWTSecret != "super-secret" {
		t.Errorf("original config mutated")
	}
	if out.Environments.Production.AnonKey != "" {
		t.Errorf("empty values must stay empty, got %q", out.Environments.Production.AnonKey)
	}
}
