// Package config loads the application configuration. Sources are merged
// with environment variables on top of an optional YAML file on top of
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/guildboard/guildboard/pkg/db"
	"github.com/guildboard/guildboard/pkg/logger"
	"github.com/guildboard/guildboard/pkg/oauth"
	"github.com/guildboard/guildboard/pkg/redis"
)

// EnvPrefix is stripped from environment variables before they are
// mapped onto config keys: GUILDBOARD_HTTP_ADDR becomes http.addr.
const EnvPrefix = "GUILDBOARD_"

// HTTP holds the listener settings and the cookie secret.
type HTTP struct {
	Addr            string        `koanf:"addr"`
	CookieSecret    string        `koanf:"cookie_secret"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Config is the root configuration tree.
type Config struct {
	HTTP     HTTP                `koanf:"http"`
	Discord  oauth.Config        `koanf:"discord"`
	Database db.Config           `koanf:"database"`
	Redis    redis.Config        `koanf:"redis"`
	Log      logger.Config       `koanf:"log"`
	Sentry   logger.SentryConfig `koanf:"sentry"`
}

// Load reads configuration from defaults, then the YAML file at path if
// it exists, then GUILDBOARD_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			// The file is optional; env-only deployments skip it. The
			// default logger is the only one alive this early, since
			// the application logger is built from this config.
			slog.Warn("config file skipped", slog.String("path", path), slog.String("error", err.Error()))
		}
	}

	// GUILDBOARD_DATABASE_CONN_URL maps to database.conn_url: the first
	// underscore separates the section, the rest stays part of the key.
	if err := k.Load(envprovider.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.HTTP.CookieSecret) < 32 {
		errs = append(errs, errors.New("config: http.cookie_secret must be at least 32 bytes"))
	}
	if c.Discord.ClientID == "" {
		errs = append(errs, errors.New("config: discord.client_id is required"))
	}
	if c.Discord.ClientSecret == "" {
		errs = append(errs, errors.New("config: discord.client_secret is required"))
	}
	if c.Database.ConnectionString == "" {
		errs = append(errs, errors.New("config: database.conn_url is required"))
	}
	return errors.Join(errs...)
}

func defaults() map[string]any {
	return map[string]any{
		"http.addr":             ":8080",
		"http.read_timeout":     "15s",
		"http.write_timeout":    "30s",
		"http.idle_timeout":     "60s",
		"http.shutdown_timeout": "10s",

		"log.level":          "info",
		"sentry.environment": "production",

		"database.migrations_table":   "schema_migrations",
		"database.healthcheck_period": "1m",
		"database.max_conn_idle_time": "10m",
		"database.max_conn_lifetime":  "30m",
		"database.retry_attempts":     3,
		"database.retry_interval":     "5s",
		"database.max_open_conns":     10,
		"database.min_conns":          2,

		"redis.pool_size":          10,
		"redis.min_idle_conns":     2,
		"redis.max_conn_idle_time": "10m",
		"redis.max_conn_lifetime":  "30m",
		"redis.retry_attempts":     3,
		"redis.retry_interval":     "5s",
	}
}
