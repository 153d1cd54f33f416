// Package config loads settleup configuration from a YAML file and
// SETTLEUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is the root configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Log       LogConfig       `koanf:"log"`
	Storage   StorageConfig   `koanf:"storage"`
	Auth      AuthConfig      `koanf:"auth"`
	Messenger MessengerConfig `koanf:"messenger"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
	AllowedOrigin   string   `koanf:"allowed_origin"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // text (colored) or json
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver      string `koanf:"driver"`
	SQLitePath  string `koanf:"sqlite_path"`
	PostgresURL Secret `koanf:"postgres_url"`
}

// AuthConfig configures session tokens.
type AuthConfig struct {
	JWTSecret Secret   `koanf:"jwt_secret"`
	TokenTTL  Duration `koanf:"token_ttl"`
}

// MessengerConfig configures the messaging and payment provider.
type MessengerConfig struct {
	BaseURL        string   `koanf:"base_url"`
	MaxPages       int      `koanf:"max_pages"`
	PagesPerSecond float64  `koanf:"pages_per_second"`
	Timeout        Duration `koanf:"timeout"`
	PayLinkBase    string   `koanf:"pay_link_base"`
	Locale         string   `koanf:"locale"`
	Currency       string   `koanf:"currency"`
	ImageURL       string   `koanf:"image_url"`
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if cfg.Server.AllowedOrigin == "" {
		cfg.Server.AllowedOrigin = "*"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./data/settleup.db"
	}

	if cfg.Auth.TokenTTL == 0 {
		cfg.Auth.TokenTTL = Duration(24 * time.Hour)
	}

	if cfg.Messenger.BaseURL == "" {
		cfg.Messenger.BaseURL = "https://kapi.kakao.com"
	}
	if cfg.Messenger.MaxPages == 0 {
		cfg.Messenger.MaxPages = 1000
	}
	if cfg.Messenger.PagesPerSecond == 0 {
		cfg.Messenger.PagesPerSecond = 20
	}
	if cfg.Messenger.Timeout == 0 {
		cfg.Messenger.Timeout = Duration(10 * time.Second)
	}
	if cfg.Messenger.PayLinkBase == "" {
		cfg.Messenger.PayLinkBase = "https://qr.kakaopay.com/"
	}
	if cfg.Messenger.Locale == "" {
		cfg.Messenger.Locale = "ko"
	}
	if cfg.Messenger.Currency == "" {
		cfg.Messenger.Currency = "원"
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var problems []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Errorf("server.http_port must be 1-65535, got %d", c.Server.Port))
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		problems = append(problems, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			problems = append(problems, errors.New("storage.sqlite_path is required for the sqlite driver"))
		}
	case DriverPostgres:
		if !c.Storage.PostgresURL.IsSet() {
			problems = append(problems, errors.New("storage.postgres_url is required for the postgres driver"))
		}
	default:
		problems = append(problems, fmt.Errorf("storage.driver must be sqlite or postgres, got %q", c.Storage.Driver))
	}

	if len(c.Auth.JWTSecret.Value()) < 32 {
		problems = append(problems, errors.New("auth.jwt_secret must be at least 32 characters"))
	}

	for name, raw := range map[string]string{
		"messenger.base_url":      c.Messenger.BaseURL,
		"messenger.pay_link_base": c.Messenger.PayLinkBase,
	} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if c.Messenger.MaxPages < 1 {
		problems = append(problems, fmt.Errorf("messenger.max_pages must be positive, got %d", c.Messenger.MaxPages))
	}
	if c.Messenger.PagesPerSecond < 0 {
		problems = append(problems, fmt.Errorf("messenger.pages_per_second cannot be negative"))
	}
	if _, err := language.Parse(c.Messenger.Locale); err != nil {
		problems = append(problems, fmt.Errorf("messenger.locale %q: %w", c.Messenger.Locale, err))
	}

	return errors.Join(problems...)
}
