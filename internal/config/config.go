package config

import (
	"log/slog"
	"os"
	"strings"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	// LLMProvider selects the generative backend: "gemini" or
	// "anthropic".
	LLMProvider string
	// ModelName is the primary narrative model.
	ModelName string
	// BackendModelName handles background work such as memory
	// summarization; falls back to ModelName when empty.
	BackendModelName string

	// APIKeys is the user-supplied prioritized credential list.
	APIKeys []string
	// DefaultAPIKey is the deployment fallback used when APIKeys is
	// empty.
	DefaultAPIKey string

	RedisURL string

	// AutoPinMemories controls whether turn-summary memories start
	// pinned.
	AutoPinMemories bool
}

func Load() (*Config, error) {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		LogLevel:         parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LLMProvider:      getEnv("LLM_PROVIDER", "gemini"),
		ModelName:        getEnv("MODEL_NAME", "gemini-2.5-flash"),
		BackendModelName: getEnv("BACKEND_MODEL_NAME", ""),
		APIKeys:          splitList(getEnv("API_KEYS", "")),
		DefaultAPIKey:    getEnv("DEFAULT_API_KEY", ""),
		RedisURL:         getEnv("REDIS_URL", "localhost:6379"),
		AutoPinMemories:  getEnv("AUTO_PIN_MEMORIES", "false") == "true",
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// splitList parses a comma-separated priority list, dropping empty
// entries.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
