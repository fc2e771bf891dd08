package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("MODEL_TIMEOUT", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.GeminiModel != "gemini-2.0-flash" {
		t.Fatalf("expected default model, got %s", cfg.GeminiModel)
	}
	if cfg.UseMemoryHistory {
		t.Fatalf("expected memory history disabled by default")
	}
	if cfg.ModelTimeout != 45*time.Second {
		t.Fatalf("expected default model timeout, got %s", cfg.ModelTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("TARIFF_PATH", "/etc/prontocasa/tariffe.json")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("USE_MEMORY_HISTORY", "true")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("MODEL_TIMEOUT", "20s")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.GeminiAPIKey != "test-key" {
		t.Fatalf("expected api key override, got %s", cfg.GeminiAPIKey)
	}
	if cfg.TariffPath != "/etc/prontocasa/tariffe.json" {
		t.Fatalf("expected tariff path override, got %s", cfg.TariffPath)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls override")
	}
	if !cfg.UseMemoryHistory {
		t.Fatalf("expected memory history override")
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.ModelTimeout != 20*time.Second {
		t.Fatalf("expected model timeout override, got %s", cfg.ModelTimeout)
	}
}
