// Package observability provides the logging and tracing plumbing shared by
// the engine and the CLI: slog handler construction and OpenTelemetry tracer
// helpers.
package observability

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LogFormat selects the slog handler used for log output.
type LogFormat string

const (
	// LogFormatText emits human-readable key=value logs.
	LogFormatText LogFormat = "text"
	// LogFormatJSON emits structured JSON logs.
	LogFormatJSON LogFormat = "json"
)

// NewLogger creates a structured logger writing to w with the given level and
// format. It is the single place loggers are constructed so every component
// logs consistently.
func NewLogger(w io.Writer, level slog.Level, format LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") into a
// slog.Level. The comparison is case-insensitive.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
