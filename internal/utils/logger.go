package utils

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the engine's root slog.Logger. The level accepts the
// monitoring feed's verbosity names as well ("warning" alongside "warn");
// anything unrecognized falls back to info.
func NewLogger(level string, json bool) *slog.Logger {
	var handlerLevel slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		handlerLevel = slog.LevelDebug
	case "warn", "warning":
		handlerLevel = slog.LevelWarn
	case "error":
		handlerLevel = slog.LevelError
	default:
		handlerLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: handlerLevel}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("app", "oem-insight"))
}

// ComponentLogger tags a child logger with the owning subsystem so one
// question's log lines can be grouped by stage (repo, reasoning, api).
func ComponentLogger(base *slog.Logger, component string) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return base.With(slog.String("component", component))
}
