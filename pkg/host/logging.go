package host

import (
	"fmt"
	"log/slog"
	"os"
)

// NewLogger builds the host logger from config: a text or JSON handler on
// stderr behind a dynamic level. The returned LevelVar is what the config
// watcher adjusts at runtime.
func NewLogger(cfg LogConfig) (*slog.Logger, *slog.LevelVar, error) {
	parsed, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	level := new(slog.LevelVar)
	level.Set(parsed)

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch cfg.Format {
	case "", "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return nil, nil, fmt.Errorf("host: unknown log format %q", cfg.Format)
	}

	return slog.New(handler), level, nil
}

// ParseLevel maps a config level name to a slog.Level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("host: unknown log level %q", s)
	}
}
