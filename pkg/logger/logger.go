package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultLogDir  = "~/.local/share/loot-tracker/logs"
	DefaultLogFile = "debug.log"
)

type Logger struct {
	zlog    zerolog.Logger
	file    *os.File
	writers []io.Writer
	hasSink bool
	mu      sync.RWMutex
}

type Option func(*Logger) error

// WithConsole enables console logging
func WithConsole() Option {
	return func(l *Logger) error {
		l.addWriter(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
		return nil
	}
}

// WithLevel sets the logging level
func WithLevel(level zerolog.Level) Option {
	return func(l *Logger) error {
		l.zlog = l.zlog.Level(level)
		return nil
	}
}

// WithFile sets up file logging with an explicit path
func WithFile(path string) Option {
	return func(l *Logger) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
		l.hasSink = true
		l.addWriter(zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
		return nil
	}
}

// WithWriter sends JSON log events to w instead of the default log file.
func WithWriter(w io.Writer) Option {
	return func(l *Logger) error {
		l.hasSink = true
		l.addWriter(w)
		return nil
	}
}

func (l *Logger) addWriter(w io.Writer) {
	l.mu.Lock()
	l.writers = append(l.writers, w)
	out := zerolog.MultiLevelWriter(l.writers...)
	l.mu.Unlock()
	l.zlog = l.zlog.Output(out)
}

// getDefaultLogPath returns the expanded default log path
func getDefaultLogPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	logDir := strings.Replace(DefaultLogDir, "~", homeDir, 1)
	return filepath.Join(logDir, DefaultLogFile), nil
}

// NewLogger creates a new logger with the given options.
// Without WithFile or WithWriter the logger also writes to the default log file.
func NewLogger(opts ...Option) (*Logger, error) {
	logger := &Logger{
		zlog: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}

	for _, opt := range opts {
		if err := opt(logger); err != nil {
			return nil, fmt.Errorf("failed to apply logger option: %w", err)
		}
	}

	if !logger.hasSink {
		defaultPath, err := getDefaultLogPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default log path: %w", err)
		}
		if err := WithFile(defaultPath)(logger); err != nil {
			return nil, fmt.Errorf("failed to apply logger option: %w", err)
		}
	}

	return logger, nil
}

// Nop returns a logger that discards everything. Meant for tests.
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop(), hasSink: true}
}

// Close closes the logger and any open files
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// emit attaches the caller of the public method, the error and the
// key/value pairs, then writes the event.
func emit(e *zerolog.Event, msg string, err error, fields []interface{}) {
	if e == nil {
		return
	}
	if _, file, line, ok := runtime.Caller(2); ok {
		e = e.Str("file", filepath.Base(file)).Int("line", line)
	}
	if err != nil {
		e = e.Err(err)
	}
	// a trailing key without a value is dropped
	for i := 0; i+1 < len(fields); i += 2 {
		if key, ok := fields[i].(string); ok {
			e = e.Interface(key, fields[i+1])
		}
	}
	e.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...interface{}) {
	emit(l.zlog.Debug(), msg, nil, fields)
}

func (l *Logger) Info(msg string, fields ...interface{}) {
	emit(l.zlog.Info(), msg, nil, fields)
}

func (l *Logger) Warn(msg string, fields ...interface{}) {
	emit(l.zlog.Warn(), msg, nil, fields)
}

func (l *Logger) Error(msg string, err error, fields ...interface{}) {
	emit(l.zlog.Error(), msg, err, fields)
}

// Fatal logs and exits the process.
func (l *Logger) Fatal(msg string, err error, fields ...interface{}) {
	emit(l.zlog.Fatal(), msg, err, fields)
}

// SetLevel changes the minimum level. Not safe for concurrent use with logging.
func (l *Logger) SetLevel(level zerolog.Level) {
	l.zlog = l.zlog.Level(level)
}

// AddWriter mirrors log output to w, e.g. the overlay's log pane.
func (l *Logger) AddWriter(w io.Writer) {
	l.addWriter(w)
}
