// File: timer.go
// Title: Performance Timer
// Description: Measures an operation and logs its duration on completion.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2025-06-02
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation
// - 2025-06-02 v0.2.0: Duration passed through the entry instead of fields

package log

import "time"

// Duration is an elapsed time attached to an entry; zero means none
type Duration time.Duration

func (d Duration) value() time.Duration { return time.Duration(d) }

// Timer represents a performance timer for measuring operation duration
type Timer struct {
	logger    *Logger
	operation string
	startTime time.Time
	fields    Fields
	level     Level
	stopped   bool
}

// NewTimer creates a new timer for the given operation
func NewTimer(logger *Logger, operation string) *Timer {
	return &Timer{
		logger:    logger,
		operation: operation,
		startTime: time.Now(),
		fields:    make(Fields),
		level:     LevelDebug,
	}
}

// WithLevel sets the log level for the timer completion message
func (t *Timer) WithLevel(level Level) *Timer {
	t.level = level
	return t
}

// WithField adds a field to be logged when the timer completes
func (t *Timer) WithField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Elapsed returns the elapsed time since the timer was started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.startTime)
}

// Stop stops the timer and logs the elapsed time. Subsequent calls return 0.
func (t *Timer) Stop(fields ...Fields) time.Duration {
	return t.stop(nil, fields...)
}

// StopWithError stops the timer and logs the error at warn level or above
func (t *Timer) StopWithError(err error, fields ...Fields) time.Duration {
	if t.level < LevelWarn {
		t.level = LevelWarn
	}
	return t.stop(err, fields...)
}

func (t *Timer) stop(err error, fields ...Fields) time.Duration {
	if t.stopped {
		return 0
	}
	t.stopped = true
	elapsed := t.Elapsed()
	if t.logger == nil {
		return elapsed
	}

	all := t.fields.Merge(Fields{"operation": t.operation})
	for _, f := range fields {
		all = all.Merge(f)
	}
	msg := t.operation + " completed"
	if err != nil {
		msg = t.operation + " failed"
	}
	t.logger.logEntry(t.level, msg, err, Duration(elapsed), all)
	return elapsed
}
