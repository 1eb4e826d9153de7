// Package logging provides config-driven categorized file-based logging.
// Logs are written to <dataDir>/logs/ with one file per category. When
// debug mode is off nothing is written; every call is a silent no-op.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category.
type Category string

const (
	CategoryBoot      Category = "boot"      // startup, data-dir bootstrap
	CategoryStore     Category = "store"     // sqlite operations, migrations
	CategoryGateway   Category = "gateway"   // inbound/tool/outbound pipelines
	CategoryPolicy    Category = "policy"    // tool access decisions
	CategoryCanary    Category = "canary"    // injection heuristic
	CategoryServer    Category = "server"    // admin HTTP façade
	CategoryRateLimit Category = "ratelimit" // limiter and sweeper
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Logger writes to one category file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex
	logsDir   string
	enabled   bool
	logLevel  = LevelInfo
)

// Initialize sets up the logging directory. Call once at startup.
// With debug=false the package stays inert and creates nothing.
func Initialize(dataDir string, debug bool, level string) error {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	enabled = debug
	logLevel = parseLevel(level)
	if !enabled {
		return nil
	}
	if dataDir == "" {
		return fmt.Errorf("data directory required")
	}

	logsDir = filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

func parseLevel(level string) int {
	switch level {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Get returns the logger for a category, creating it on first use.
func Get(category Category) *Logger {
	loggersMu.RLock()
	l, ok := loggers[category]
	loggersMu.RUnlock()
	if ok {
		return l
	}

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	l = &Logger{category: category}
	if enabled && logsDir != "" {
		path := filepath.Join(logsDir, string(category)+".log")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			l.file = f
			l.logger = log.New(f, "", 0)
		}
	}
	loggers[category] = l
	return l
}

// Close flushes and closes all category files. Safe to call when inert.
func Close() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			_ = l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

func (l *Logger) write(level int, label, format string, args ...interface{}) {
	if l == nil || l.logger == nil || level < logLevel {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	l.logger.Printf("%s [%s] %s", ts, label, fmt.Sprintf(format, args...))
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.write(LevelDebug, "DEBUG", format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.write(LevelInfo, "INFO", format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.write(LevelWarn, "WARN", format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.write(LevelError, "ERROR", format, args...)
}

// Convenience helpers for the chatty categories.

// Store logs store activity at info level.
func Store(format string, args ...interface{}) {
	Get(CategoryStore).Info(format, args...)
}

// StoreDebug logs store activity at debug level.
func StoreDebug(format string, args ...interface{}) {
	Get(CategoryStore).Debug(format, args...)
}

// Gateway logs pipeline activity at info level.
func Gateway(format string, args ...interface{}) {
	Get(CategoryGateway).Info(format, args...)
}

// Timer measures an operation's wall time for a category.
type Timer struct {
	category Category
	name     string
	start    time.Time
}

// StartTimer begins timing a named operation.
func StartTimer(category Category, name string) *Timer {
	return &Timer{category: category, name: name, start: time.Now()}
}

// Stop logs the elapsed time at debug level.
func (t *Timer) Stop() {
	Get(t.category).Debug("%s took %s", t.name, time.Since(t.start))
}
