// Package rflog wraps log/slog with rfclientd's console format and a
// per-component tag, following the console-handler idiom grimm-is-glacic
// uses for its daemon log (internal/logging).
package rflog

import (
	"io"
	"log/slog"
	"os"
)

// Level aliases slog.Level so callers don't need to import log/slog directly.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

var defaultLogger = New(Config{Level: LevelInfo, Output: os.Stderr})

// Config configures a Logger.
type Config struct {
	Level  Level
	Output io.Writer
}

// Logger wraps slog.Logger with component tagging.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a Logger writing to cfg.Output in the console format.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	levelVar := &slog.LevelVar{}
	levelVar.Set(cfg.Level)
	handler := NewConsoleHandler(cfg.Output, &slog.HandlerOptions{Level: levelVar})
	return &Logger{Logger: slog.New(handler), level: levelVar}
}

// SetLevel adjusts the minimum level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.level.Set(level)
}

// Component returns a logger tagged with component (rendered as "[component]").
func (l *Logger) Component(component string) *Logger {
	return &Logger{Logger: l.Logger.With("component", component), level: l.level}
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// Component is shorthand for Default().Component(name).
func Component(name string) *Logger {
	return defaultLogger.Component(name)
}
