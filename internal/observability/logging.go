// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// GlobalLogger is the default logger instance for the application.
var GlobalLogger *Logger

var levelVar slog.LevelVar

func init() {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: &levelVar,
	})
	GlobalLogger = &Logger{Logger: slog.New(handler)}
}

// SetLevel adjusts the minimum level of the global logger.
// Unknown names fall back to info.
func SetLevel(name string) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

// Component returns a logger annotated with a component name.
func Component(name string) *Logger {
	return &Logger{Logger: GlobalLogger.With(slog.String("component", name))}
}
