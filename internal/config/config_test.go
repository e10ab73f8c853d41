package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	if _, err := Load(); !errors.Is(err, ErrMissingJWTSecret) {
		t.Fatalf("expected ErrMissingJWTSecret, got %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "unit-test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Auth.JWTSecret != "unit-test-secret" {
		t.Fatalf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.AccessTokenTTL() != 30*time.Minute {
		t.Fatalf("AccessTokenTTL = %v, want 30m", cfg.Auth.AccessTokenTTL())
	}
	if !cfg.RateLimit.Enabled {
		t.Fatal("rate limiting should default to enabled")
	}
	if cfg.RateLimit.Window() != time.Minute {
		t.Fatalf("Window = %v, want 1m", cfg.RateLimit.Window())
	}
	if cfg.RateLimit.MaxAuth != 5 || cfg.RateLimit.MaxDefault != 60 {
		t.Fatalf("limits = %d/%d, want 5/60", cfg.RateLimit.MaxAuth, cfg.RateLimit.MaxDefault)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q", cfg.App.Addr())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "unit-test-secret")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "30")
	t.Setenv("RATE_LIMIT_LOGIN", "3")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RateLimit.Window() != 30*time.Second {
		t.Fatalf("Window = %v, want 30s", cfg.RateLimit.Window())
	}
	if cfg.RateLimit.MaxAuth != 3 {
		t.Fatalf("MaxAuth = %d, want 3", cfg.RateLimit.MaxAuth)
	}
	if cfg.RateLimit.Enabled {
		t.Fatal("rate limiting should be disabled")
	}
	if cfg.Auth.AccessTokenTTL() != 15*time.Minute {
		t.Fatalf("AccessTokenTTL = %v, want 15m", cfg.Auth.AccessTokenTTL())
	}
}
