package config

import (
	"log/slog"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9876" || cfg.Store != StoreMemory || cfg.SQLitePath != "agency.db" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.RefetchAfterMutation {
		t.Fatalf("refetch should be off by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AGENCY_DASHBOARD_STORE", StoreREST)
	t.Setenv("AGENCY_DASHBOARD_REST_URL", "https://data.example.com/rest/v1")
	t.Setenv("AGENCY_DASHBOARD_REFETCH_AFTER_MUTATION", "true")
	t.Setenv("AGENCY_DASHBOARD_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.RefetchAfterMutation {
		t.Fatalf("expected refetch flag")
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v (%v)", level, err)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]map[string]string{
		"rest without url": {"AGENCY_DASHBOARD_STORE": StoreREST},
		"unknown store":    {"AGENCY_DASHBOARD_STORE": "postgres"},
		"bad level":        {"AGENCY_DASHBOARD_LOG_LEVEL": "loud"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("AGENCY_DASHBOARD_SCOPE_PROPERTIES", "maybe")
	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
