package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PAID", "")
	t.Setenv("APP_ENV", "production")

	cfg := Load()

	if cfg.Server.Port == "" {
		t.Fatal("expected a default port")
	}
	if cfg.Server.Paid {
		t.Fatal("unparsable PAID must fall back to false")
	}
	if cfg.DevMode() {
		t.Fatal("production must not be dev mode")
	}
	if cfg.WhatsApp.APIVersion == "" {
		t.Fatal("expected default WhatsApp API version")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("PAID", "TRUE")
	t.Setenv("APP_ENV", "Development")
	t.Setenv("ADMIN_TOKEN_TTL", "90m")
	t.Setenv("TABLE_BACKEND", "Postgres")
	t.Setenv("REQUIRE_TIME", "true")
	t.Setenv("EXPORT_REQUIRES_ADMIN", "1")

	cfg := Load()

	if cfg.Server.Port != "9999" {
		t.Fatalf("port = %q", cfg.Server.Port)
	}
	if !cfg.Server.Paid {
		t.Fatal("PAID=TRUE should enable the site")
	}
	if !cfg.DevMode() {
		t.Fatal("APP_ENV=Development should be dev mode")
	}
	if cfg.Auth.AdminTokenTTL != 90*time.Minute {
		t.Fatalf("ttl = %v", cfg.Auth.AdminTokenTTL)
	}
	if cfg.Tables.Backend != "postgres" {
		t.Fatalf("backend = %q", cfg.Tables.Backend)
	}
	if !cfg.Policy.RequireTime || !cfg.Policy.ExportRequiresAdmin {
		t.Fatalf("policy = %+v", cfg.Policy)
	}
}

func TestValidate_JWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	t.Setenv("APP_ENV", "production")
	if err := Load().Validate(); err == nil {
		t.Fatal("production without JWT_SECRET must not validate")
	}

	t.Setenv("APP_ENV", "development")
	if err := Load().Validate(); err != nil {
		t.Fatalf("development may run without JWT_SECRET: %v", err)
	}

	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Fatalf("secret = %q", cfg.Auth.JWTSecret)
	}
}

func TestLoad_NoDefaultJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if got := Load().Auth.JWTSecret; got != "" {
		t.Fatalf("JWT_SECRET must not have a built-in default, got %q", got)
	}
}
