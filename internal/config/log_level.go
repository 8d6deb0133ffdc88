package config

import (
	"fmt"
	"log/slog"
	"strings"
)

// ParseLogLevel maps a configured level name to a slog level.
//
// Accepted names are debug, info, warn and error, case-insensitive.
// Legacy aliases are normalized:
//   - "warning" -> warn
//   - "trace" -> debug
//
// An empty name means info.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}
