package engine

import (
	"encoding/json"
	"strings"
	"time"
)

// InvocationResult is the uniform envelope returned for every invocation,
// whatever went wrong. It is produced once and not modified afterwards.
type InvocationResult struct {
	ID   string `json:"id"`
	Tool string `json:"tool"`

	// Command is the invocation string without the executable prefix
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exitCode"`
	Error    string `json:"error,omitempty"`

	ErrorCode string `json:"errorCode,omitempty"`

	// RedactedCommand is Command with sensitive values masked
	RedactedCommand string `json:"-"`

	Duration  time.Duration `json:"-"`
	StartedAt time.Time     `json:"-"`

	// Diagnostic is set when the recovery heuristic produced a suggestion
	Diagnostic *Diagnostic `json:"-"`
}

// Succeeded reports exit code zero and no error
func (r *InvocationResult) Succeeded() bool {
	return r.ExitCode == 0 && r.Error == ""
}

// AsMap converts the result to the generic shape used by sequence steps.
// When stdout holds a JSON document it is decoded under "data".
func (r *InvocationResult) AsMap() map[string]interface{} {
	m := map[string]interface{}{
		"command":  r.Command,
		"stdout":   r.Stdout,
		"stderr":   r.Stderr,
		"exitCode": r.ExitCode,
	}
	if r.Error != "" {
		m["error"] = r.Error
	}
	if data, ok := decodeJSON(r.Stdout); ok {
		m["data"] = data
	}
	return m
}

func decodeJSON(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return nil, false
	}
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	return v, true
}
