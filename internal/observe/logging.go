package observe

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Level aliases for convenience.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Format is the log output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// LogConfig holds logger construction options.
type LogConfig struct {
	Level  slog.Level
	Format Format
	Output io.Writer // defaults to os.Stdout
}

// NewLogger creates a structured logger. JSON is the default format.
func NewLogger(cfg LogConfig) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	switch cfg.Format {
	case FormatText:
		handler = slog.NewTextHandler(cfg.Output, opts)
	default:
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	return slog.New(handler)
}

// NopLogger returns a logger that discards everything. Use where a logger is
// required but output is unwanted (tests, disabled logging).
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel parses a level string; unrecognized values mean info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "warn", "WARN", "warning", "WARNING":
		return LevelWarn
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ParseFormat parses a format string; unrecognized values mean JSON.
func ParseFormat(s string) Format {
	switch s {
	case "text", "TEXT":
		return FormatText
	default:
		return FormatJSON
	}
}

// EventLogger is the logging collaborator contract: it receives a severity
// level, an event name, and a flat field mapping, and performs the actual
// emission. Implementations must be safe for concurrent use; the interceptor
// has no opinion on sink format.
type EventLogger interface {
	Log(level slog.Level, event string, fields map[string]any)
}

// SlogEventLogger emits events through a *slog.Logger.
type SlogEventLogger struct {
	logger *slog.Logger
}

// NewSlogEventLogger wraps logger as an EventLogger.
func NewSlogEventLogger(logger *slog.Logger) *SlogEventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogEventLogger{logger: logger}
}

// Log implements EventLogger.
func (l *SlogEventLogger) Log(level slog.Level, event string, fields map[string]any) {
	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	l.logger.Log(context.Background(), level, event, attrs...)
}

// NopEventLogger discards all events.
type NopEventLogger struct{}

// Log implements EventLogger.
func (NopEventLogger) Log(slog.Level, string, map[string]any) {}

// loggerKey is the context key for the request-scoped logger.
type loggerKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFrom retrieves the logger from context, or returns the default logger.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
