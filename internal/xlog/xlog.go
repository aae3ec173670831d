// Package xlog is the supervisor's logging sink: a console output and an
// optional file output, each gated by its own level. Unlike the Rust
// original's process-wide mutable global, a *Logger is constructed once in
// main and passed down to every worker constructor.
package xlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Level orders the supervisor's log levels from least to most severe,
// plus NONE which silences a sink entirely.
type Level int

const (
	TRACE Level = iota
	DEBUG
	INFO
	WARN
	ERROR
	NONE
)

func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE", "trace":
		return TRACE, nil
	case "DEBUG", "debug":
		return DEBUG, nil
	case "INFO", "info", "":
		return INFO, nil
	case "WARN", "warn":
		return WARN, nil
	case "ERROR", "error":
		return ERROR, nil
	case "NONE", "none":
		return NONE, nil
	default:
		return NONE, fmt.Errorf("xlog: unknown level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "NONE"
	}
}

var levelColor = map[Level]*color.Color{
	TRACE: color.New(color.FgCyan),
	DEBUG: color.New(color.FgCyan),
	INFO:  color.New(color.Reset),
	WARN:  color.New(color.FgYellow, color.Bold),
	ERROR: color.New(color.FgRed, color.Bold),
}

// Logger writes to a console sink and an optional file sink, each filtered
// independently by level.
type Logger struct {
	mu sync.Mutex

	consoleLevel Level
	console      *log.Logger
	colorize     bool

	fileLevel Level
	file      *log.Logger
	fileCloser io.Closer
}

// New builds a Logger writing to os.Stderr at consoleLevel, with each line
// colorized by level through fatih/color.
func New(consoleLevel Level) *Logger {
	return &Logger{
		consoleLevel: consoleLevel,
		console:      log.New(os.Stderr, "", log.LstdFlags),
		colorize:     true,
		fileLevel:    NONE,
	}
}

// AttachFile opens path (appending unless truncate is set) and routes every
// record at or above level to it as well as the console.
func (lg *Logger) AttachFile(path string, level Level, truncate bool) error {
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	lg.mu.Lock()
	defer lg.mu.Unlock()
	lg.file = log.New(f, "", log.LstdFlags)
	lg.fileLevel = level
	lg.fileCloser = f
	return nil
}

func (lg *Logger) Close() error {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	if lg.fileCloser != nil {
		return lg.fileCloser.Close()
	}
	return nil
}

func (lg *Logger) log(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("[%s] %s", level, msg)

	lg.mu.Lock()
	defer lg.mu.Unlock()

	if level >= lg.consoleLevel && lg.consoleLevel != NONE {
		if lg.colorize {
			if c, ok := levelColor[level]; ok {
				lg.console.Print(c.Sprint(line))
			} else {
				lg.console.Print(line)
			}
		} else {
			lg.console.Print(line)
		}
	}
	if lg.file != nil && level >= lg.fileLevel && lg.fileLevel != NONE {
		lg.file.Print(line)
	}
}

func (lg *Logger) Tracef(format string, args ...any) { lg.log(TRACE, format, args...) }
func (lg *Logger) Debugf(format string, args ...any) { lg.log(DEBUG, format, args...) }
func (lg *Logger) Infof(format string, args ...any)  { lg.log(INFO, format, args...) }
func (lg *Logger) Warnf(format string, args ...any)  { lg.log(WARN, format, args...) }
func (lg *Logger) Errorf(format string, args ...any) { lg.log(ERROR, format, args...) }

// Nop returns a Logger that discards everything, used by tests that don't
// care about log output.
func Nop() *Logger {
	lg := New(NONE)
	lg.colorize = false
	return lg
}
