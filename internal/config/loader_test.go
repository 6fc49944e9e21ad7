package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

var allKeys = []string{
	"HTTP_PORT", "ENV", "LOG_LEVEL", "SQLITE_DSN", "LEDGER_DATABASE_URL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL", "TIMEZONE",
	"OPERATOR_KEY_HASH", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	"RETENTION_INTERVAL", "OTEL_ENDPOINT", "FRESHNESS_SLO",
}

// clearEnv unsets every variable the loader reads and restores them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(EnvPrefix+key, "")
		if err := os.Unsetenv(EnvPrefix + key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := LoadFiles()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:restaurantia.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.CacheTTL != 5*time.Minute || cfg.RetentionInterval != 24*time.Hour || cfg.FreshnessSLO != 24*time.Hour {
			t.Fatalf("unexpected default durations: %+v", cfg)
		}
		if cfg.RateLimitRPS != 5 || cfg.RateLimitBurst != 10 {
			t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
		}
		if cfg.Location() != time.UTC {
			t.Fatalf("expected UTC, got %v", cfg.Location())
		}
		if cfg.Production() {
			t.Fatal("expected development by default")
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RESTAURANT_HTTP_PORT", "9090")
		t.Setenv("RESTAURANT_SQLITE_DSN", "file:/tmp/restaurantia.db")
		t.Setenv("RESTAURANT_CACHE_TTL", "90s")
		t.Setenv("RESTAURANT_RETENTION_INTERVAL", "0")
		t.Setenv("RESTAURANT_RATE_LIMIT_RPS", "2.5")
		t.Setenv("RESTAURANT_REDIS_DB", "3")
		t.Setenv("RESTAURANT_TIMEZONE", "America/Mexico_City")

		cfg, err := LoadFiles()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 || cfg.SQLiteDSN != "file:/tmp/restaurantia.db" {
			t.Fatalf("unexpected values: %+v", cfg)
		}
		if cfg.CacheTTL != 90*time.Second {
			t.Fatalf("expected cache TTL 90s, got %s", cfg.CacheTTL)
		}
		if cfg.RetentionInterval != 0 {
			t.Fatalf("expected disabled retention sweeper, got %s", cfg.RetentionInterval)
		}
		if cfg.RateLimitRPS != 2.5 || cfg.RedisDB != 3 {
			t.Fatalf("unexpected numeric values: %+v", cfg)
		}
		if cfg.Location().String() != "America/Mexico_City" {
			t.Fatalf("expected Mexico City timezone, got %v", cfg.Location())
		}
	})

	t.Run("errors when required values are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RESTAURANT_ENV", "production")

		_, err := LoadFiles()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required environment variables are not set: RESTAURANT_OPERATOR_KEY_HASH"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RESTAURANT_HTTP_PORT", "-1")
		t.Setenv("RESTAURANT_TIMEZONE", "Mars/Olympus")
		t.Setenv("RESTAURANT_RATE_LIMIT_BURST", "0")
		t.Setenv("RESTAURANT_LOG_LEVEL", "chatty")

		_, err := LoadFiles()
		if err == nil {
			t.Fatal("expected error")
		}
		for _, key := range []string{"RESTAURANT_HTTP_PORT", "RESTAURANT_TIMEZONE", "RESTAURANT_RATE_LIMIT_BURST", "RESTAURANT_LOG_LEVEL"} {
			if !strings.Contains(err.Error(), key) {
				t.Fatalf("expected %s in %q", key, err.Error())
			}
		}
	})

	t.Run("rejects unparsable values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("RESTAURANT_CACHE_TTL", "five minutes")

		if _, err := LoadFiles(); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestLoader_DotEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RESTAURANT_HTTP_PORT", "7070")

	path := filepath.Join(t.TempDir(), ".env")
	content := "RESTAURANT_HTTP_PORT=9191\nRESTAURANT_OTEL_ENDPOINT=http://collector:4318\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write dotenv: %v", err)
	}

	cfg, err := LoadFiles(path, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HTTPPort != 7070 {
		t.Fatalf("expected process environment to win, got %d", cfg.HTTPPort)
	}
	if cfg.OTELEndpoint != "http://collector:4318" {
		t.Fatalf("expected endpoint from file, got %q", cfg.OTELEndpoint)
	}
}
