package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("HTTP_TIMEOUT", "")
	t.Setenv("SPEECH_LANG", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if cfg.SpeechLang != "pt" {
		t.Errorf("SpeechLang = %q", cfg.SpeechLang)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "OpenRouter")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("BIND_CONCURRENCY", "4")
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLMProvider != "openrouter" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.LLMAPIKey != "sk-test" {
		t.Errorf("LLMAPIKey should fall back to OPENAI_API_KEY, got %q", cfg.LLMAPIKey)
	}
	if cfg.BindConcurrency != 4 {
		t.Errorf("BindConcurrency = %d", cfg.BindConcurrency)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %s", cfg.CacheTTL)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Errorf("invalid SESSION_TTL should fall back to default, got %s", cfg.SessionTTL)
	}
	if got := cfg.LLMSettings()["api_key"]; got != "sk-test" {
		t.Errorf("LLMSettings api_key = %q", got)
	}
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "memcached")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported cache backend")
	}
}
