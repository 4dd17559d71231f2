package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.LLMTimeout != 30*time.Second {
		t.Errorf("LLMTimeout = %v, want 30s", cfg.LLMTimeout)
	}
	if cfg.ExtractionWorkers != 2 {
		t.Errorf("ExtractionWorkers = %d, want 2", cfg.ExtractionWorkers)
	}
	if !cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue should default to true")
	}
	if cfg.RateLimitPerSecond != 0 {
		t.Errorf("RateLimitPerSecond = %v, want 0 (disabled)", cfg.RateLimitPerSecond)
	}
	if cfg.RateLimitBurst != 10 {
		t.Errorf("RateLimitBurst = %d, want 10", cfg.RateLimitBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_MAX_ATTEMPTS", "4")
	t.Setenv("USE_MEMORY_QUEUE", "false")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("RATE_LIMIT_PER_SECOND", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "20")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.LLMTimeout != 5*time.Second {
		t.Errorf("LLMTimeout = %v, want 5s", cfg.LLMTimeout)
	}
	if cfg.LLMMaxAttempts != 4 {
		t.Errorf("LLMMaxAttempts = %d, want 4", cfg.LLMMaxAttempts)
	}
	if cfg.UseMemoryQueue {
		t.Error("UseMemoryQueue should be false")
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS should be true")
	}
	if cfg.RateLimitPerSecond != 2.5 {
		t.Errorf("RateLimitPerSecond = %v, want 2.5", cfg.RateLimitPerSecond)
	}
	if cfg.RateLimitBurst != 20 {
		t.Errorf("RateLimitBurst = %d, want 20", cfg.RateLimitBurst)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("EXTRACTION_WORKERS", "not-a-number")
	cfg := Load()
	if cfg.ExtractionWorkers != 2 {
		t.Errorf("invalid int should fall back to default, got %d", cfg.ExtractionWorkers)
	}
}
