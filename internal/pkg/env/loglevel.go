package env

import (
	"log/slog"
	"strings"
)

// ParseLogLevel reads HOLDINGS_LOG_LEVEL and maps it onto a slog.Level.
// Accepted values are "debug", "info", "warn" and "error"; anything else
// yields the fallback.
func ParseLogLevel(fallback slog.Level) slog.Level {
	switch strings.ToLower(Get("HOLDINGS_LOG_LEVEL", "")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
