package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// SlogLogger implements the ports.Logger interface on top of log/slog
// with a leveled text handler.
type SlogLogger struct {
	sl *slog.Logger
}

// ParseLevel converts a string level to a slog.Level. Unknown values
// default to Info.
func ParseLevel(levelStr string) slog.Level {
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewSlogLogger creates a logger writing to os.Stderr at the given level.
func NewSlogLogger(level slog.Level) *SlogLogger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogLogger{sl: slog.New(handler)}
}

func attrs(err error, fields ...map[string]interface{}) []any {
	var args []any
	if err != nil {
		args = append(args, slog.Any("error", err))
	}
	if len(fields) > 0 && fields[0] != nil {
		for k, v := range fields[0] {
			args = append(args, slog.Any(k, v))
		}
	}
	return args
}

// Debug logs a message at Debug level.
func (l *SlogLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.sl.DebugContext(ctx, msg, attrs(nil, fields...)...)
}

// Info logs a message at Info level.
func (l *SlogLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.sl.InfoContext(ctx, msg, attrs(nil, fields...)...)
}

// Warn logs a message at Warning level.
func (l *SlogLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.sl.WarnContext(ctx, msg, attrs(nil, fields...)...)
}

// Error logs an error message at Error level.
func (l *SlogLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	l.sl.ErrorContext(ctx, msg, attrs(err, fields...)...)
}
