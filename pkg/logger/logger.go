package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mpcrecovery/envconfig/config"
)

// New builds the process logger. The level comes from the environment's
// opentelemetry_level setting; anything outside the known set falls back to
// info. The dev environment logs human-readable text, everything else logs
// JSON for the collector.
func New(level, env string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(env) == config.EnvDev {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		slog.String("service", "mpc-recovery"),
		slog.String("env", env),
	)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case config.LevelDebug:
		return slog.LevelDebug
	case config.LevelWarn:
		return slog.LevelWarn
	case config.LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
