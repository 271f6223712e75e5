// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Config struct {
	Port         int    `envconfig:"PORT" default:"8080"`
	StoreDriver  string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	SQLitePath   string `envconfig:"SQLITE_PATH" default:"./data/wireflow.db"`
	DocumentID   string `envconfig:"DOCUMENT_ID" default:"default"`
	JWTSecret    string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	BridgeSecret string `envconfig:"BRIDGE_SECRET_HASH"`
	// AllowedOrigins is a comma-separated list of websocket origin patterns.
	AllowedOrigins string        `envconfig:"ALLOWED_ORIGINS" default:"localhost:5173,localhost:3000"`
	TemplatesPath  string        `envconfig:"TEMPLATES_PATH"`
	AutosaveDelay  time.Duration `envconfig:"AUTOSAVE_DELAY" default:"800ms"`
	HistoryDepth   int           `envconfig:"HISTORY_DEPTH" default:"100"`
	GridSize       float64       `envconfig:"GRID_SIZE" default:"20"`
	// BackspaceDirectOnly limits Backspace to click selections.
	BackspaceDirectOnly bool   `envconfig:"BACKSPACE_DIRECT_ONLY" default:"false"`
	LogLevel            string `envconfig:"LOG_LEVEL" default:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.StoreDriver, validation.Required, validation.In(DriverPostgres, DriverSQLite, DriverMemory)),
		validation.Field(&c.DatabaseURL, validation.When(c.StoreDriver == DriverPostgres, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.StoreDriver == DriverSQLite, validation.Required)),
		validation.Field(&c.DocumentID, validation.Required),
		validation.Field(&c.JWTSecret, validation.When(c.BridgeSecret != "", validation.Required, validation.Length(16, 0))),
		validation.Field(&c.BridgeSecret, validation.When(c.BridgeSecret != "", validation.By(isBcryptHash))),
		validation.Field(&c.AutosaveDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.HistoryDepth, validation.Required, validation.Min(1)),
		validation.Field(&c.GridSize, validation.Required, validation.Min(1.0)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func isBcryptHash(value interface{}) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, "$2a$") && !strings.HasPrefix(s, "$2b$") && !strings.HasPrefix(s, "$2y$") {
		return fmt.Errorf("must be a bcrypt hash")
	}
	return nil
}

// Origins splits AllowedOrigins into patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Level parses LogLevel.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
