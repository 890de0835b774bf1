// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     store
// Description: Persistence for saved parameter sets and invocation history
// Created:     2025-12-16
// License:     MIT
// ============================================================================

package store

import (
	"context"
	"time"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
)

// DefaultCategories exist in every new store
var DefaultCategories = []string{"connections", "instances", "rules"}

// InvocationRecord is one history row. Command is the redacted form.
type InvocationRecord struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Command    string    `json:"command"`
	ExitCode   int       `json:"exit_code"`
	ErrorCode  string    `json:"error_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// ParameterStore keeps named parameter sets grouped by category
type ParameterStore interface {
	// SaveParameters creates or replaces a parameter set
	SaveParameters(ctx context.Context, category, name string, params interface{}) error
	// GetParameters returns a copy of a parameter set, CodeNotFound if missing
	GetParameters(ctx context.Context, category, name string) (interface{}, error)
	ListParameters(ctx context.Context, category string) ([]string, error)
	// DeleteParameters reports whether the set existed
	DeleteParameters(ctx context.Context, category, name string) (bool, error)
	ListCategories(ctx context.Context) ([]string, error)
}

// HistoryStore records finished invocations
type HistoryStore interface {
	engine.Recorder
	ListInvocations(ctx context.Context, limit int) ([]*InvocationRecord, error)
}

// Store combines both stores
type Store interface {
	ParameterStore
	HistoryStore
	Statistics(ctx context.Context) (map[string]interface{}, error)
	Close() error
}

func recordFromResult(r *engine.InvocationResult) *InvocationRecord {
	command := r.RedactedCommand
	if command == "" {
		command = r.Command
	}
	return &InvocationRecord{
		ID:         r.ID,
		Tool:       r.Tool,
		Command:    command,
		ExitCode:   r.ExitCode,
		ErrorCode:  r.ErrorCode,
		Error:      r.Error,
		DurationMs: r.Duration.Milliseconds(),
		StartedAt:  r.StartedAt,
	}
}
