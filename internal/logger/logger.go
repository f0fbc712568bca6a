package logger

import (
	"log/slog"
	"os"

	"github.com/jwebster45206/saga-engine/internal/config"
)

// Setup configures the global slog logger based on environment.
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithSave adds the save ID to logger context.
func WithSave(logger *slog.Logger, saveID string) *slog.Logger {
	return logger.With("save_id", saveID)
}
