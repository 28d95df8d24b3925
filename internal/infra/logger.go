package infra

import (
	"log/slog"
	"os"
)

// ParseLogLevel converts a config level name to slog.Level.
func ParseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the application logger from config.
func NewLogger(cfg *Config) *slog.Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLogLevel(cfg.Logging.Level),
	})
	return slog.New(handler)
}
