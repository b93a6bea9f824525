// Package logging configures the process-wide slog logger for the portal
// binaries. Every component logs through slog, so the handler installed
// here shapes all output.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default slog handler. Unrecognized values fall back
// to info-level JSON, which is what the portal runs in production.
func Setup(level, format string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
