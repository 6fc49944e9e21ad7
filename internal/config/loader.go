package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "RESTAURANT_"

// Config captures environment driven configuration values for the restaurant service.
type Config struct {
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	Env               string        `env:"ENV" envDefault:"development"`
	LogLevel          string        `env:"LOG_LEVEL"`
	SQLiteDSN         string        `env:"SQLITE_DSN" envDefault:"file:restaurantia.db"`
	LedgerDatabaseURL string        `env:"LEDGER_DATABASE_URL"`
	RedisAddr         string        `env:"REDIS_ADDR"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL          time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	Timezone          string        `env:"TIMEZONE" envDefault:"UTC"`
	OperatorKeyHash   string        `env:"OPERATOR_KEY_HASH"`
	RateLimitRPS      float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst    int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RetentionInterval time.Duration `env:"RETENTION_INTERVAL" envDefault:"24h"`
	OTELEndpoint      string        `env:"OTEL_ENDPOINT"`
	FreshnessSLO      time.Duration `env:"FRESHNESS_SLO" envDefault:"24h"`

	location *time.Location
}

// Location returns the timezone analytics and listings bucket days in.
func (c Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// Production reports whether the service runs with production settings.
func (c Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads an optional .env file and then parses configuration values from
// the process environment. Variables already set in the environment win over
// the file.
//
// The loader applies defaults for optional fields while validating values and
// reporting every missing or invalid entry in one error.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Missing files are ignored.
func LoadFiles(paths ...string) (Config, error) {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("invalid environment variable values: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, EnvPrefix+"HTTP_PORT")
	}
	c.SQLiteDSN = strings.TrimSpace(c.SQLiteDSN)
	if c.SQLiteDSN == "" {
		missing = append(missing, EnvPrefix+"SQLITE_DSN")
	}
	if c.LogLevel != "" {
		if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
			invalid = append(invalid, EnvPrefix+"LOG_LEVEL")
		}
	}
	if c.RedisDB < 0 {
		invalid = append(invalid, EnvPrefix+"REDIS_DB")
	}
	if c.CacheTTL <= 0 {
		invalid = append(invalid, EnvPrefix+"CACHE_TTL")
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		invalid = append(invalid, EnvPrefix+"TIMEZONE")
	} else {
		c.location = loc
	}
	if c.OperatorKeyHash == "" && c.Production() {
		missing = append(missing, EnvPrefix+"OPERATOR_KEY_HASH")
	}
	if c.RateLimitRPS <= 0 {
		invalid = append(invalid, EnvPrefix+"RATE_LIMIT_RPS")
	}
	if c.RateLimitBurst < 1 {
		invalid = append(invalid, EnvPrefix+"RATE_LIMIT_BURST")
	}
	if c.RetentionInterval < 0 {
		invalid = append(invalid, EnvPrefix+"RETENTION_INTERVAL")
	}
	if c.FreshnessSLO <= 0 {
		invalid = append(invalid, EnvPrefix+"FRESHNESS_SLO")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}
	return nil
}
