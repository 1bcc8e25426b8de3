// Package logging provides the leveled logger used throughout the daemon.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fatih/color"
	slogmulti "github.com/samber/slog-multi"
)

// LogLevel represents the available log levels.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config holds logging configuration.
//
// DebugLogWriter, when non-nil, is a second sink fanned out to alongside
// Output — the byte stream backing the GdbDebugLog transport endpoint, so
// anything connected there sees the same log lines a terminal would.
type Config struct {
	Level          LogLevel
	Format         string // "text" or "json"
	Output         io.Writer
	DebugLogWriter io.Writer
	NoColor        bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: "text",
		Output: os.Stderr,
	}
}

// Logger wraps slog.Logger with the level/context helpers the rest of the
// daemon expects.
type Logger struct {
	log   *slog.Logger
	level LogLevel
}

var (
	defaultLogger *Logger
	mu            sync.RWMutex
)

// NewLogger builds a Logger from config. When DebugLogWriter is set, log
// records are fanned out to both Output and DebugLogWriter via slog-multi.
func NewLogger(config *Config) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	output := config.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: config.Level.slogLevel()}

	var handler slog.Handler
	if config.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	if config.DebugLogWriter != nil {
		mirror := slog.NewTextHandler(config.DebugLogWriter, opts)
		handler = slogmulti.Fanout(handler, mirror)
	}

	return &Logger{log: slog.New(handler), level: config.Level}
}

// Default returns the default logger, creating it if necessary.
func Default() *Logger {
	mu.RLock()
	if defaultLogger != nil {
		defer mu.RUnlock()
		return defaultLogger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(nil)
	}
	return defaultLogger
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func (l *Logger) with(attrs ...any) *Logger {
	return &Logger{log: l.log.With(attrs...), level: l.level}
}

// WithSession returns a Logger that tags every record with the owning
// session's remote address.
func (l *Logger) WithSession(remoteAddr string) *Logger {
	return l.with("session", remoteAddr)
}

// WithThread returns a Logger that tags every record with a thread id.
func (l *Logger) WithThread(threadID uint64) *Logger {
	return l.with("thread", threadID)
}

// WithError returns a Logger that tags every record with err.
func (l *Logger) WithError(err error) *Logger {
	return l.with("error", err)
}

func (l *Logger) Debug(msg string, args ...any) { l.log.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log.Error(msg, args...) }

// Printf-style variants, for call sites translating directly from the
// original C++ AMS_DMNT2_GDB_LOG_* macros.
func (l *Logger) Debugf(format string, args ...any) { l.log.Debug(fmt.Sprintf(format, args...)) }
func (l *Logger) Infof(format string, args ...any)  { l.log.Info(fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log.Warn(fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log.Error(fmt.Sprintf(format, args...)) }

// Global convenience functions delegating to the default logger.
func Debug(msg string, args ...any) { Default().Debug(msg, args...) }
func Info(msg string, args ...any)  { Default().Info(msg, args...) }
func Warn(msg string, args ...any)  { Default().Warn(msg, args...) }
func Error(msg string, args ...any) { Default().Error(msg, args...) }

// Banner prints the daemon's startup banner, colorized unless NoColor is set
// or the output is not a terminal.
func Banner(w io.Writer, version, gdbAddr, debugLogAddr string, noColor bool) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)
	if noColor {
		bold.DisableColor()
		cyan.DisableColor()
	}
	bold.Fprintln(w, "go-dmnt2gdb", version)
	cyan.Fprintf(w, "  gdb server   %s\n", gdbAddr)
	if debugLogAddr != "" {
		cyan.Fprintf(w, "  debug log    %s\n", debugLogAddr)
	}
}
