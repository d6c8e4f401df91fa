package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "LISTEN_ADDR", "DATABASE_PATH", "DATABASE_URL", "SESSION_SECRET", "AUTH_SECRET", "AUTH_TTL", "GIN_MODE", "LOG_LEVEL", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected listen addr %q", cfg.ListenAddr)
	}
	if cfg.DatabasePath != "babytracker.db" {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath)
	}
	if cfg.AuthSecret != cfg.SessionSecret {
		t.Fatal("expected auth secret to fall back to the session secret")
	}
	if cfg.AuthTTL != 7*24*time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.AuthTTL)
	}
	if cfg.Location != time.UTC {
		t.Fatalf("unexpected location %v", cfg.Location)
	}
	if cfg.Development() {
		t.Fatal("default mode should be release")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("AUTH_TTL", "36h")
	t.Setenv("TIMEZONE", "Europe/London")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("GIN_MODE", "debug")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("expected listen addr derived from PORT, got %q", cfg.ListenAddr)
	}
	if cfg.AuthTTL != 36*time.Hour {
		t.Fatalf("unexpected ttl %v", cfg.AuthTTL)
	}
	if cfg.Location.String() != "Europe/London" {
		t.Fatalf("unexpected location %v", cfg.Location)
	}
	if cfg.LogLevel != "debug" || !cfg.Development() {
		t.Fatalf("unexpected log level/mode: %q %q", cfg.LogLevel, cfg.GinMode)
	}
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("AUTH_TTL", "forever")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for invalid AUTH_TTL")
	}

	t.Setenv("AUTH_TTL", "")
	t.Setenv("TIMEZONE", "Mars/Olympus")
	if _, err := FromEnv(); err == nil {
		t.Fatal("expected error for invalid TIMEZONE")
	}
}
