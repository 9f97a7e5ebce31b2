// Package logger provides the leveled logger used across the application.
// Levels: off, normal (info/warn/error), verbose (adds debug).
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level controls logger verbosity.
type Level int

const (
	LevelOff Level = iota
	LevelNormal
	LevelVerbose
)

// Logger is a leveled logger. Safe for concurrent use.
type Logger struct {
	mu    sync.RWMutex
	level Level
	debug *log.Logger
	info  *log.Logger
	warn  *log.Logger
	fail  *log.Logger
}

// New creates a logger writing to out (os.Stderr when nil).
func New(level Level, out io.Writer) *Logger {
	if out == nil {
		out = os.Stderr
	}
	flags := log.Ltime
	return &Logger{
		level: level,
		debug: log.New(out, "[DBG] ", flags),
		info:  log.New(out, "[INF] ", flags),
		warn:  log.New(out, "[WRN] ", flags),
		fail:  log.New(out, "[ERR] ", flags),
	}
}

// SetLevel changes the log level at runtime.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// Debug logs at debug level, visible only in verbose mode.
func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelVerbose, l.debug, format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	l.write(LevelNormal, l.info, format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelNormal, l.warn, format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.write(LevelNormal, l.fail, format, args...)
}

func (l *Logger) write(min Level, sink *log.Logger, format string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.level >= min {
		sink.Output(3, fmt.Sprintf(format, args...))
	}
}
