// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Record store backends.
const (
	StoreMemory = "memory"
	StoreREST   = "rest"
	StoreSQLite = "sqlite"
)

// Config holds the agency dashboard settings shared by every CLI command.
type Config struct {
	Addr                 string `env:"AGENCY_DASHBOARD_ADDR" envDefault:":9876"`
	Store                string `env:"AGENCY_DASHBOARD_STORE" envDefault:"memory"`
	RESTURL              string `env:"AGENCY_DASHBOARD_REST_URL"`
	RESTKey              string `env:"AGENCY_DASHBOARD_REST_KEY"`
	SQLitePath           string `env:"AGENCY_DASHBOARD_SQLITE_PATH" envDefault:"agency.db"`
	ProfilePath          string `env:"AGENCY_DASHBOARD_PROFILE"`
	ChartAssetsHost      string `env:"AGENCY_DASHBOARD_CHART_ASSETS_HOST"`
	RefetchAfterMutation bool   `env:"AGENCY_DASHBOARD_REFETCH_AFTER_MUTATION" envDefault:"false"`
	ScopeProperties      bool   `env:"AGENCY_DASHBOARD_SCOPE_PROPERTIES" envDefault:"false"`
	LogLevel             string `env:"AGENCY_DASHBOARD_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the store selection and its required settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreREST:
		if strings.TrimSpace(c.RESTURL) == "" {
			return fmt.Errorf("config: AGENCY_DASHBOARD_REST_URL is required for the rest store")
		}
	case StoreSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("config: AGENCY_DASHBOARD_SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level maps LogLevel to a slog level.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}
