// Package log builds structured loggers from application configuration.
package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/jhleee/geo-search-api/internal/config"
)

// New creates a slog.Logger per the configured format and level, writing to
// stdout.
func New(cfg config.AppConfig) *slog.Logger {
	return NewWithWriter(os.Stdout, cfg.LogFormat(), cfg.SlogLevel())
}

// NewWithWriter creates a slog.Logger that writes to the given writer.
func NewWithWriter(w io.Writer, format config.LogFormat, level slog.Level) *slog.Logger {
	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	default:
		handler = newPrettyHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
