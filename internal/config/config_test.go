package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medbook")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.TokenTTLDays != 30 {
		t.Errorf("expected default token ttl 30 days, got %d", cfg.TokenTTLDays)
	}
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("expected default model gemini-2.5-flash, got %s", cfg.GeminiModel)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/medbook")
	t.Setenv("PORT", "9090")
	t.Setenv("TOKEN_TTL_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.TokenTTL() != 7*24*time.Hour {
		t.Errorf("expected ttl 168h, got %s", cfg.TokenTTL())
	}
}

func TestValidate_RequiresSecretOutsideDev(t *testing.T) {
	cfg := &Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing JWT_SECRET in production")
	}

	cfg = &Config{Env: "development"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error in development: %v", err)
	}

	cfg = &Config{Env: "production", JWTSecret: "secret"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
