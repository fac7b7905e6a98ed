package config

import "testing"

func TestDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("RATE_LIMIT_RPS", "")
	t.Setenv("RATE_LIMIT_BURST", "")

	if got := ServerPort(); got != 8080 {
		t.Errorf("ServerPort() = %d, want 8080", got)
	}
	if got := DataDir(); got != "data" {
		t.Errorf("DataDir() = %q, want data", got)
	}
	if got := StoreBackend(); got != "file" {
		t.Errorf("StoreBackend() = %q, want file", got)
	}
	if got := LLMProvider(); got != "openai" {
		t.Errorf("LLMProvider() = %q, want openai", got)
	}
	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want 100", got)
	}
	if got := RateLimitBurst(); got != 20 {
		t.Errorf("RateLimitBurst() = %d, want 20", got)
	}
}

func TestOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	if got := ServerAddr(); got != ":9090" {
		t.Errorf("ServerAddr() = %q, want :9090", got)
	}
	if got := StoreBackend(); got != "postgres" {
		t.Errorf("StoreBackend() = %q", got)
	}
	// Mock provider never exposes a key even when one is configured.
	if got := LLMAPIKey(); got != "" {
		t.Errorf("LLMAPIKey() = %q, want empty for mock provider", got)
	}
}

func TestInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-port")
	t.Setenv("RATE_LIMIT_RPS", "-5")
	t.Setenv("RATE_LIMIT_BURST", "0")

	if got := ServerPort(); got != 8080 {
		t.Errorf("ServerPort() = %d, want fallback 8080", got)
	}
	if got := RateLimitRPS(); got != 100 {
		t.Errorf("RateLimitRPS() = %v, want fallback 100", got)
	}
	if got := RateLimitBurst(); got != 20 {
		t.Errorf("RateLimitBurst() = %d, want fallback 20", got)
	}
}
