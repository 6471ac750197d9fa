package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/blood-inventory-ledger/internal/config"
)

// NewLogger builds the process-wide JSON logger on stdout
func NewLogger(cfg *config.Config) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter is NewLogger writing to w. Every record carries the
// application name and environment.
func NewLoggerWithWriter(cfg *config.Config, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Logging.Level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	logger := slog.New(handler)
	if cfg.Application.Name != "" {
		logger = logger.With("app", cfg.Application.Name, "env", cfg.Application.Env)
	}

	logger.Info("logger initialized", "level", level)
	return logger
}

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values are info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
