package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a leveled key/value logger:
//
//	log.Info("Cache set", "key", key, "ttl", ttl)
type Logger struct {
	slog *slog.Logger
}

func NewLogger(level string) *Logger {
	return New(level, os.Stdout)
}

func New(level string, w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return &Logger{slog: slog.New(handler)}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return New("error", io.Discard)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}
