// Package logging provides the leveled logger used by the CLI and use cases.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel parses "debug", "info", "warn" or "error".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger writes messages at or above its level.
type Logger struct {
	level Level
	out   *log.Logger
}

// New returns a logger writing to w. Debug loggers also record the caller.
func New(w io.Writer, level Level) *Logger {
	flags := log.Ltime
	if level == LevelDebug {
		flags |= log.Lshortfile
	}
	return &Logger{level: level, out: log.New(w, "", flags)}
}

// NewStderr returns a logger on stderr at the named level.
func NewStderr(level string) (*Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(os.Stderr, l), nil
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return &Logger{level: LevelError + 1, out: log.New(io.Discard, "", 0)}
}

func (l *Logger) Level() Level { return l.level }

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	// Skip logf and the level method so Lshortfile names the caller.
	l.out.Output(3, level.String()+" "+fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }

func (l *Logger) Infof(format string, args ...any) { l.logf(LevelInfo, format, args...) }

func (l *Logger) Warnf(format string, args ...any) { l.logf(LevelWarn, format, args...) }

func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }
