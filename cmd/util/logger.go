package util

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
)

// Loggers lists the package loggers configured by InitLoggers
var Loggers = []string{"lock", "striped", "mono", "bench"}

// levelTag is the line prefix of a level
func levelTag(level logger.LogLevel) string {
	switch level {
	case logger.DEBUG:
		return "DEBUG"
	case logger.INFO:
		return "INFO"
	case logger.WARNING:
		return "WARN"
	case logger.ERROR:
		return "ERROR"
	default:
		return "CRIT"
	}
}

// tsLogger is the logger.ILogger of one package. It writes
// "LEVEL | package | message" lines and may be re-leveled while in use.
type tsLogger struct {
	name  string
	level atomic.Int32
	out   *log.Logger
}

func newLogger(name string, w io.Writer) *tsLogger {
	l := &tsLogger{name: name, out: log.New(w, "", log.Ldate|log.Ltime)}
	l.level.Store(int32(logger.INFO))
	return l
}

func (l *tsLogger) SetLevel(level logger.LogLevel) { l.level.Store(int32(level)) }

func (l *tsLogger) Debugf(format string, args ...interface{})   { l.logf(logger.DEBUG, format, args) }
func (l *tsLogger) Infof(format string, args ...interface{})    { l.logf(logger.INFO, format, args) }
func (l *tsLogger) Warningf(format string, args ...interface{}) { l.logf(logger.WARNING, format, args) }
func (l *tsLogger) Errorf(format string, args ...interface{})   { l.logf(logger.ERROR, format, args) }

// Panicf logs unconditionally, then panics with the message.
func (l *tsLogger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("%-5s | %-10s | %s", levelTag(logger.CRITICAL), l.name, msg)
	panic(msg)
}

func (l *tsLogger) logf(at logger.LogLevel, format string, args []interface{}) {
	if logger.LogLevel(l.level.Load()) < at {
		return
	}
	l.out.Printf("%-5s | %-10s | %s", levelTag(at), l.name, fmt.Sprintf(format, args...))
}

// CreateLogger is the logger.Factory used for every package logger. Output
// goes to stderr so benchmark tables on stdout stay machine readable.
func CreateLogger(pkgName string) logger.ILogger {
	return newLogger(pkgName, os.Stderr)
}

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// InitLoggers installs the custom factory and sets the level of all package loggers
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)
	for _, name := range Loggers {
		logger.GetLogger(name).SetLevel(lvl)
	}
	return nil
}
