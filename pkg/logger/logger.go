package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/yanqian/weather-favorites/internal/infra/config"
)

// New constructs the service logger. The level comes from config, and
// LOG_LEVEL still wins when set so operators can raise verbosity ad hoc.
func New(cfg *config.Config) *slog.Logger {
	raw := cfg.Log.Level
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		raw = v
	}
	opts := &slog.HandlerOptions{Level: parseLevel(raw)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Log.Format, "text") {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With("service", "weather-favorites")
}

func parseLevel(level string) slog.Leveler {
	switch strings.ToLower(level) {
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
