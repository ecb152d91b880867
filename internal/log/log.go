// Package log provides categorised, structured logging for stackline.
//
// Call sites pass a category, a message and alternating key/value pairs:
//
//	log.Debug(log.CatStack, "Reordering commit", "actor", actor, "target", target)
//	log.ErrorErr(log.CatDB, "Failed to save session", err, "id", id)
//
// Logging is a no-op until Init is called, so packages and tests can log
// freely without configuring anything.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category groups log lines by subsystem.
type Category string

// Log categories.
const (
	CatDB     Category = "db"
	CatStack  Category = "stack"
	CatIPC    Category = "ipc"
	CatEvents Category = "events"
	CatCache  Category = "cache"
	CatForge  Category = "forge"
	CatConfig Category = "config"
	CatWatch  Category = "watch"
	CatCLI    Category = "cli"
	CatGit    Category = "git"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
	closer io.Closer
)

// Options configures the global logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File is the log file path. Empty logs to stderr.
	File string
}

// ParseLevel converts a level string to a zap level.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q (expected debug, info, warn, or error)", level)
	}
}

// Init configures the global logger. It replaces any previous logger and
// closes its log file.
func Init(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	var out zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path comes from config
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		out = zapcore.AddSync(file)
	}

	replace(newSugared(out, level), file)
	return nil
}

// InitWithWriter configures the global logger to write JSON lines to w.
// Used by tests to capture output.
func InitWithWriter(w io.Writer, level zapcore.Level) {
	replace(newSugared(zapcore.AddSync(w), level), nil)
}

// Reset restores the no-op logger.
func Reset() {
	replace(zap.NewNop().Sugar(), nil)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func newSugared(out zapcore.WriteSyncer, level zapcore.Level) *zap.SugaredLogger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), out, zap.NewAtomicLevelAt(level))
	return zap.New(core).Sugar()
}

func replace(l *zap.SugaredLogger, c io.Closer) {
	mu.Lock()
	defer mu.Unlock()
	_ = logger.Sync()
	if closer != nil {
		_ = closer.Close()
	}
	logger = l
	closer = c
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func withCategory(cat Category, kv []any) []any {
	return append([]any{"cat", string(cat)}, kv...)
}

// Debug logs a debug message.
func Debug(cat Category, msg string, kv ...any) {
	current().Debugw(msg, withCategory(cat, kv)...)
}

// Info logs an informational message.
func Info(cat Category, msg string, kv ...any) {
	current().Infow(msg, withCategory(cat, kv)...)
}

// Warn logs a warning.
func Warn(cat Category, msg string, kv ...any) {
	current().Warnw(msg, withCategory(cat, kv)...)
}

// Error logs an error message.
func Error(cat Category, msg string, kv ...any) {
	current().Errorw(msg, withCategory(cat, kv)...)
}

// ErrorErr logs an error message with the error attached under "error".
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	current().Errorw(msg, withCategory(cat, append([]any{"error", err}, kv...))...)
}

// SafeGo runs fn in a goroutine and logs instead of crashing if it panics.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				Error(CatEvents, "Recovered panic in goroutine", "goroutine", name, "panic", r, "stack", string(debug.Stack()))
			}
		}()
		fn()
	}()
}
