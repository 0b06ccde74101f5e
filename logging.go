package gaiacat

import (
	"log"
	"os"
)

// LogLevel selects which of Logger's methods actually write output.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// ParseLogLevel maps the configuration blob's log_level string (spec.md
// section 4.G) onto a LogLevel, defaulting to LogLevelInfo for anything
// unrecognised.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LogLevelDebug
	case "warn":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// Logger is a small leveled wrapper over the standard library's
// log.Logger, the only logging facility used anywhere in this module --
// no structured logging library is pulled in for it, since the engine
// emits a handful of lifecycle and degraded-query lines, not a
// structured event stream a log pipeline would consume.
type Logger struct {
	level  LogLevel
	stdlog *log.Logger
}

// NewLogger returns a Logger writing to stderr at the given level.
func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level, stdlog: log.New(os.Stderr, "gaiacat: ", log.LstdFlags)}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.level <= LogLevelDebug {
		l.stdlog.Printf("DEBUG "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l.level <= LogLevelInfo {
		l.stdlog.Printf("INFO "+format, args...)
	}
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l.level <= LogLevelWarn {
		l.stdlog.Printf("WARN "+format, args...)
	}
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l.level <= LogLevelError {
		l.stdlog.Printf("ERROR "+format, args...)
	}
}
