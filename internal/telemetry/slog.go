package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs the process-wide slog default from the logging config.
// Format "json" selects the JSON handler (production); anything else gets the
// text handler. Level is one of debug, info, warn, error (case-insensitive),
// defaulting to info. Source locations are attached only at debug level.
//
// Installing the default means slog.Info and friends work everywhere without
// threading a *slog.Logger through the call graph.
func SetupLogger(format, level string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, format, level)))
	slog.Info("logger initialised", "format", format, "level", parseLevel(level).String())
}

func newHandler(w io.Writer, format, level string) slog.Handler {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}
	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func parseLevel(level string) slog.Level {
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
