package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is a log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

// ParseLevel converts a LOG_LEVEL value into a Level. Unknown values fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger is a wrapper around the standard library logger
type Logger struct {
	*log.Logger
	scope string
	level Level
}

// New creates a new logger with the given scope (a chat ID, a component name, or empty)
func New(scope string) *Logger {
	return NewWithWriter(os.Stdout, scope, Global.minLevel())
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(w io.Writer, scope string, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", 0),
		scope:  scope,
		level:  level,
	}
}

// With returns a logger sharing the output and level but with another scope
func (l *Logger) With(scope string) *Logger {
	return &Logger{Logger: l.Logger, scope: scope, level: l.level}
}

// SetLevel sets the minimum level that is written
func (l *Logger) SetLevel(level Level) {
	l.level = level
}

func (l *Logger) minLevel() Level {
	if l == nil {
		return LevelInfo
	}
	return l.level
}

// formatMessage formats a log message with timestamp and scope
func (l *Logger) formatMessage(level Level, format string, v ...interface{}) string {
	timestamp := time.Now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.scope != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, levelNames[level], l.scope, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, levelNames[level], message)
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.Logger.Println(l.formatMessage(level, format, v...))
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.output(LevelDebug, format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.output(LevelWarn, format, v...)
}

// Global logger instance for application-wide logging
var Global = NewWithWriter(os.Stdout, "", LevelInfo)
