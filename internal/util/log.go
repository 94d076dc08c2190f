package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level controls which messages a Logger emits.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Logger wraps the standard library logger with level filtering. The level is
// written once at startup and only read afterwards, so an atomic suffices.
type Logger struct {
	level atomic.Int32
	base  *log.Logger
}

// NewLogger creates a level-aware logger writing to stderr.
func NewLogger(level Level) *Logger {
	return NewLoggerWithWriter(level, os.Stderr)
}

// NewLoggerWithWriter creates a level-aware logger writing to the provided destination.
func NewLoggerWithWriter(level Level, w io.Writer) *Logger {
	l := &Logger{base: log.New(w, "", log.LstdFlags|log.Lmsgprefix)}
	l.level.Store(int32(level))
	return l
}

func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) Level() Level {
	return Level(l.level.Load())
}

func (l *Logger) logf(level Level, prefix string, format string, args ...interface{}) {
	if level < Level(l.level.Load()) {
		return
	}
	l.base.Printf("[%s] %s", strings.ToUpper(prefix), fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, "debug", format, args...)
}
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, "info", format, args...)
}
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logf(LevelWarn, "warn", format, args...)
}
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, "error", format, args...)
}

// ParseLevel converts a string into a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
