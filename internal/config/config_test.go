package config

import (
	"log/slog"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "ENVIRONMENT", "LOG_LEVEL", "LLM_PROVIDER", "MODEL_NAME",
		"BACKEND_MODEL_NAME", "API_KEYS", "DEFAULT_API_KEY", "REDIS_URL",
		"AUTO_PIN_MEMORIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
	if cfg.LLMProvider != "gemini" {
		t.Errorf("LLMProvider = %q, want gemini", cfg.LLMProvider)
	}
	if cfg.ModelName != "gemini-2.5-flash" {
		t.Errorf("ModelName = %q", cfg.ModelName)
	}
	if cfg.BackendModelName != "" {
		t.Errorf("BackendModelName = %q, want empty", cfg.BackendModelName)
	}
	if cfg.APIKeys != nil {
		t.Errorf("APIKeys = %v, want nil", cfg.APIKeys)
	}
	if cfg.RedisURL != "localhost:6379" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.AutoPinMemories {
		t.Error("AutoPinMemories must default to false")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("MODEL_NAME", "claude-sonnet-4-0")
	t.Setenv("BACKEND_MODEL_NAME", "claude-3-5-haiku-latest")
	t.Setenv("API_KEYS", "key-a, key-b,,key-c")
	t.Setenv("DEFAULT_API_KEY", "fallback")
	t.Setenv("REDIS_URL", "redis.internal:6380")
	t.Setenv("AUTO_PIN_MEMORIES", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("LLMProvider = %q", cfg.LLMProvider)
	}
	if cfg.BackendModelName != "claude-3-5-haiku-latest" {
		t.Errorf("BackendModelName = %q", cfg.BackendModelName)
	}
	want := []string{"key-a", "key-b", "key-c"}
	if len(cfg.APIKeys) != len(want) {
		t.Fatalf("APIKeys = %v, want %v", cfg.APIKeys, want)
	}
	for i := range want {
		if cfg.APIKeys[i] != want[i] {
			t.Errorf("APIKeys[%d] = %q, want %q", i, cfg.APIKeys[i], want[i])
		}
	}
	if cfg.DefaultAPIKey != "fallback" {
		t.Errorf("DefaultAPIKey = %q", cfg.DefaultAPIKey)
	}
	if !cfg.AutoPinMemories {
		t.Error("AutoPinMemories must parse true")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLogLevel(tt.raw); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
