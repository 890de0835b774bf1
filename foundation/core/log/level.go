// File: level.go
// Title: Log Levels
// Description: Severity levels and their textual forms.
// Version: v0.2.0
// Created: 2025-12-02
// Modified: 2025-12-09

package log

import "strings"

// Level is the severity of a log entry
type Level int

const (
	LevelTrace Level = iota
	// LevelDebug carries synthesized command lines and resolution details
	LevelDebug
	LevelInfo
	// LevelWarn marks a failed command or a degraded condition
	LevelWarn
	LevelError
	// LevelAudit bypasses the level filter
	LevelAudit
)

var levelNames = [...]struct{ long, short string }{
	LevelTrace: {"trace", "TRC"},
	LevelDebug: {"debug", "DBG"},
	LevelInfo:  {"info", "INF"},
	LevelWarn:  {"warn", "WRN"},
	LevelError: {"error", "ERR"},
	LevelAudit: {"audit", "AUD"},
}

func (l Level) valid() bool { return l >= LevelTrace && l <= LevelAudit }

func (l Level) String() string {
	if !l.valid() {
		return "unknown"
	}
	return levelNames[l].long
}

// ShortString is the three-letter tag used by the text format
func (l Level) ShortString() string {
	if !l.valid() {
		return "???"
	}
	return levelNames[l].short
}

// ShouldLog reports whether an entry at l passes a filter at minLevel
func (l Level) ShouldLog(minLevel Level) bool {
	return l == LevelAudit || l >= minLevel
}

// ParseLevel accepts long and short names case-insensitively. The empty
// string means info; "warning" is an alias for warn.
func ParseLevel(level string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(level))
	switch s {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if s == n.long || s == strings.ToLower(n.short) {
			return Level(l), nil
		}
	}
	return LevelInfo, &ParseError{Input: level, Type: "level"}
}

// ParseError reports an unrecognized level or format name
type ParseError struct {
	Input string
	Type  string
}

func (e *ParseError) Error() string {
	return "invalid " + e.Type + ": " + e.Input
}
