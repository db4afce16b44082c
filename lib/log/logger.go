package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

type LogLevel int

const (
	TRACE LogLevel = 5
	DEBUG LogLevel = 10
	INFO  LogLevel = 20
	WARN  LogLevel = 30
	ERROR LogLevel = 40
)

var levelPrefix = map[LogLevel]string{
	TRACE: "TRACE ",
	DEBUG: "DEBUG ",
	INFO:  "INFO  ",
	WARN:  "WARN  ",
	ERROR: "ERROR ",
}

func (l LogLevel) String() string {
	if p, ok := levelPrefix[l]; ok {
		return strings.ToLower(strings.TrimSpace(p))
	}
	return fmt.Sprintf("level(%d)", int(l))
}

var (
	// one logger per level, all nil until Init is given a file
	loggers  map[LogLevel]*log.Logger
	minLevel LogLevel = TRACE

	// logfile is closed when Init is called again
	logfile io.Closer
)

// Init directs all logging to file, discarding messages below level. A nil
// file disables logging. The previous log file is closed on the next call
// unless keepOpen was set, as for stderr.
func Init(file *os.File, keepOpen bool, level LogLevel) error {
	if logfile != nil {
		if err := logfile.Close(); err != nil {
			return err
		}
		logfile = nil
	}
	loggers = nil
	minLevel = level

	if file == nil {
		return nil
	}
	if !keepOpen {
		logfile = file
	}
	flags := log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile
	loggers = make(map[LogLevel]*log.Logger, len(levelPrefix))
	for lvl, prefix := range levelPrefix {
		loggers[lvl] = log.New(file, prefix, flags)
	}
	return nil
}

func ParseLevel(value string) (LogLevel, error) {
	switch strings.ToLower(value) {
	case "trace":
		return TRACE, nil
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "err", "error":
		return ERROR, nil
	}
	return 0, fmt.Errorf("%s: invalid log level", value)
}

func ErrorLogger() *log.Logger {
	if l, ok := loggers[ERROR]; ok {
		return l
	}
	return log.New(io.Discard, "", log.LstdFlags)
}

type Logger interface {
	Tracef(string, ...any)
	Debugf(string, ...any)
	Infof(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
}

type logger struct {
	name      string
	calldepth int
}

// NewLogger returns a Logger which prefixes every message with [name].
// calldepth is passed to log.Logger.Output to find the caller file and line.
func NewLogger(name string, calldepth int) Logger {
	return &logger{name: name, calldepth: calldepth}
}

func (l *logger) output(level LogLevel, message string, args ...any) {
	out, ok := loggers[level]
	if !ok || minLevel > level {
		return
	}
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	if l.name != "" {
		message = fmt.Sprintf("[%s] %s", l.name, message)
	}
	out.Output(l.calldepth+1, message) //nolint:errcheck // we can't do anything with what we log
}

func (l *logger) Tracef(message string, args ...any) {
	l.output(TRACE, message, args...)
}

func (l *logger) Debugf(message string, args ...any) {
	l.output(DEBUG, message, args...)
}

func (l *logger) Infof(message string, args ...any) {
	l.output(INFO, message, args...)
}

func (l *logger) Warnf(message string, args ...any) {
	l.output(WARN, message, args...)
}

func (l *logger) Errorf(message string, args ...any) {
	l.output(ERROR, message, args...)
}

var root = logger{calldepth: 3}

func Tracef(message string, args ...any) {
	root.Tracef(message, args...)
}

func Debugf(message string, args ...any) {
	root.Debugf(message, args...)
}

func Infof(message string, args ...any) {
	root.Infof(message, args...)
}

func Warnf(message string, args ...any) {
	root.Warnf(message, args...)
}

func Errorf(message string, args ...any) {
	root.Errorf(message, args...)
}
