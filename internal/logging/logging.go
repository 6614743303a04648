// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the structured, leveled logger used across ebtset.
// Calls take a message followed by alternating key/value pairs.
package logging

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Level is a logging severity.
type Level = log.Level

const (
	LevelDebug = log.DebugLevel
	LevelInfo  = log.InfoLevel
	LevelWarn  = log.WarnLevel
	LevelError = log.ErrorLevel
)

// Config controls logger construction.
type Config struct {
	Level  Level
	Output io.Writer
	JSON   bool
	// Timestamps adds a time field to every line.
	Timestamps bool
}

// DefaultConfig logs text at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// ParseLevel converts "debug", "info", "warn" or "error" to a Level.
func ParseLevel(s string) (Level, error) {
	return log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Logger wraps a charmbracelet logger with the key/value call style.
type Logger struct {
	l *log.Logger
}

// New creates a logger from cfg.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	formatter := log.TextFormatter
	if cfg.JSON {
		formatter = log.JSONFormatter
	}
	return &Logger{l: log.NewWithOptions(out, log.Options{
		Level:           cfg.Level,
		ReportTimestamp: cfg.Timestamps,
		Formatter:       formatter,
	})}
}

// Debug logs at debug level.
func (l *Logger) Debug(msg string, args ...any) { l.l.Debug(msg, args...) }

// Info logs at info level.
func (l *Logger) Info(msg string, args ...any) { l.l.Info(msg, args...) }

// Warn logs at warn level.
func (l *Logger) Warn(msg string, args ...any) { l.l.Warn(msg, args...) }

// Error logs at error level.
func (l *Logger) Error(msg string, args ...any) { l.l.Error(msg, args...) }

// Notice logs a message that must reach the operator whatever the
// configured level, such as deprecation warnings. It carries no level field.
func (l *Logger) Notice(msg string, args ...any) { l.l.Print(msg, args...) }

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l: l.l.With(args...)}
}

// WithComponent tags every line with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// WithError attaches err to every line.
func (l *Logger) WithError(err error) *Logger {
	return l.With("error", err)
}

// SetLevel changes the minimum level in place.
func (l *Logger) SetLevel(level Level) {
	l.l.SetLevel(level)
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(New(DefaultConfig()))
}

// Default returns the process-wide logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(name string) *Logger {
	return Default().WithComponent(name)
}

// Debug logs on the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }

// Info logs on the default logger.
func Info(msg string, args ...any) { Default().Info(msg, args...) }

// Warn logs on the default logger.
func Warn(msg string, args ...any) { Default().Warn(msg, args...) }

// Error logs on the default logger.
func Error(msg string, args ...any) { Default().Error(msg, args...) }
