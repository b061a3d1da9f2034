// Package logging wires the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the slog text logger the service logs through and installs
// it as the slog default, so anything logging through the package-level
// helpers lands in the same stream. At debug level, records also carry
// their source position.
func Setup(level string) *slog.Logger {
	lvl := parseLevel(level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}))
	slog.SetDefault(logger)
	return logger
}

// parseLevel accepts "debug", "info", "warn", or "error", case-insensitive.
// Empty or unrecognized values mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
