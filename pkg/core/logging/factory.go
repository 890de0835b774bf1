// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     logging
// Description: Factory functions for creating loggers
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	dslog "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/log"
)

var (
	// process-wide defaults applied by New
	defaultsMu sync.RWMutex
	defaults   = LoggerConfig{Level: "info", Format: "text"}
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service or component name
	ServiceName string

	// Log level (trace, debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: text)
	Format string

	// Additional outputs besides stderr
	AdditionalOutputs []io.Writer
}

// DefaultLoggerConfig returns the process defaults for a service name
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	cfg := defaults
	cfg.ServiceName = serviceName
	return cfg
}

// Configure sets the level, format and extra outputs used by later calls
// to New and NewSimpleLogger.
func Configure(cfg LoggerConfig) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	if cfg.Level != "" {
		defaults.Level = cfg.Level
	}
	if cfg.Format != "" {
		defaults.Format = cfg.Format
	}
	defaults.AdditionalOutputs = cfg.AdditionalOutputs
}

// NewLogger creates a new foundation logger. Output always goes to stderr
// since stdout is reserved for the MCP stdio transport.
func NewLogger(cfg LoggerConfig) *dslog.Logger {
	var output io.Writer = os.Stderr
	if len(cfg.AdditionalOutputs) > 0 {
		output = io.MultiWriter(append([]io.Writer{output}, cfg.AdditionalOutputs...)...)
	}

	format := dslog.FormatText
	if strings.EqualFold(cfg.Format, "json") {
		format = dslog.FormatJSON
	}

	return dslog.NewWithConfig(dslog.Config{
		Level:  parseLevel(cfg.Level),
		Format: format,
		Output: output,
		Name:   cfg.ServiceName,
	})
}

// NewSimpleLogger creates a logger with the process defaults
func NewSimpleLogger(serviceName string) *dslog.Logger {
	return NewLogger(DefaultLoggerConfig(serviceName))
}

func parseLevel(level string) dslog.Level {
	l, err := dslog.ParseLevel(level)
	if err != nil {
		return dslog.LevelInfo
	}
	return l
}

// Compatibility layer for code using key/value logging

// Logger wraps the foundation logger with key/value methods
type Logger struct {
	*dslog.Logger
	name string
}

// New creates a key/value logger for a component
func New(name string) *Logger {
	return &Logger{
		Logger: NewSimpleLogger(name),
		name:   name,
	}
}

// Wrap adapts an existing foundation logger
func Wrap(l *dslog.Logger, name string) *Logger {
	return &Logger{Logger: l.WithName(name), name: name}
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// With returns a logger carrying the given key/value pairs on every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{Logger: l.Logger.WithFields(toFields(keysAndValues...)), name: l.name}
}

// WithLevel returns a new logger with the specified level
func (l *Logger) WithLevel(level Level) *Logger {
	lvl := dslog.LevelInfo
	switch level {
	case LevelDebug:
		lvl = dslog.LevelDebug
	case LevelWarn:
		lvl = dslog.LevelWarn
	case LevelError:
		lvl = dslog.LevelError
	}
	return &Logger{Logger: l.Logger.WithLevel(lvl), name: l.name}
}

// Debug logs a debug message with key/value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message with key/value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message with key/value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message with key/value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key/value pairs to log fields, skipping non-string keys
func toFields(keysAndValues ...interface{}) dslog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}
	fields := make(dslog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
