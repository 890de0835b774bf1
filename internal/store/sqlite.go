package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
)

// SQLiteConfig holds configuration for the SQLite store
type SQLiteConfig struct {
	Path string
	// HistoryLimit bounds the invocation history; 0 keeps everything
	HistoryLimit int
}

// DefaultSQLiteConfig returns default configuration
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		Path:         "./data/dsmcp.db",
		HistoryLimit: 500,
	}
}

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db           *sql.DB
	mu           sync.RWMutex
	historyLimit int
}

// NewSQLiteStore opens or creates the database
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, dbError(err, "failed to create directory")
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, dbError(err, "failed to open database")
	}

	s := &SQLiteStore{db: db, historyLimit: cfg.HistoryLimit}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, dbError(err, "failed to initialize schema")
	}
	return s, nil
}

func dbError(err error, msg string) error {
	return dserror.Wrap(err, msg).WithCode(dserror.CodeDatabaseError)
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS categories (
		name TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS parameter_sets (
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		params TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (category, name),
		FOREIGN KEY (category) REFERENCES categories(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS invocations (
		id TEXT PRIMARY KEY,
		tool TEXT NOT NULL,
		command TEXT NOT NULL DEFAULT '',
		exit_code INTEGER NOT NULL,
		error_code TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL,
		seq INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_invocations_seq ON invocations(seq DESC);
	CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	for _, c := range DefaultCategories {
		if _, err := s.db.Exec(`INSERT OR IGNORE INTO categories (name) VALUES (?)`, c); err != nil {
			return err
		}
	}
	return nil
}

// SaveParameters implements ParameterStore
func (s *SQLiteStore) SaveParameters(ctx context.Context, category, name string, params interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" || name == "" {
		return dserror.New("category and name are required").WithCode(dserror.CodeInvalidParameter)
	}
	data, err := json.Marshal(params)
	if err != nil {
		return dserror.Wrap(err, "parameters are not JSON serializable").WithCode(dserror.CodeInvalidParameter)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO categories (name) VALUES (?)`, category); err != nil {
		return dbError(err, "failed to create category")
	}
	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO parameter_sets (category, name, params, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(category, name) DO UPDATE SET params = excluded.params, updated_at = excluded.updated_at
	`, category, name, string(data), now, now)
	if err != nil {
		return dbError(err, "failed to save parameters")
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit parameters")
	}
	return nil
}

// GetParameters implements ParameterStore
func (s *SQLiteStore) GetParameters(ctx context.Context, category, name string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT params FROM parameter_sets WHERE category = ? AND name = ?`, category, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(category, name)
	}
	if err != nil {
		return nil, dbError(err, "failed to get parameters")
	}

	var params interface{}
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, dbError(err, "stored parameters are corrupt")
	}
	return params, nil
}

func notFound(category, name string) error {
	return dserror.Newf("no parameter set %q in category %q", name, category).
		WithCode(dserror.CodeNotFound).
		WithDetail("category", category).
		WithDetail("name", name)
}

// ListParameters implements ParameterStore
func (s *SQLiteStore) ListParameters(ctx context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStrings(ctx, `SELECT name FROM parameter_sets WHERE category = ? ORDER BY name`, category)
}

// DeleteParameters implements ParameterStore
func (s *SQLiteStore) DeleteParameters(ctx context.Context, category, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM parameter_sets WHERE category = ? AND name = ?`, category, name)
	if err != nil {
		return false, dbError(err, "failed to delete parameters")
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// ListCategories implements ParameterStore
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryStrings(ctx, `SELECT name FROM categories ORDER BY name`)
}

func (s *SQLiteStore) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbError(err, "query failed")
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, dbError(err, "scan failed")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// RecordInvocation implements engine.Recorder. The oldest rows beyond
// the history limit are pruned.
func (s *SQLiteStore) RecordInvocation(ctx context.Context, r *engine.InvocationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := recordFromResult(r)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbError(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invocations (id, tool, command, exit_code, error_code, error, duration_ms, started_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM invocations))
	`, rec.ID, rec.Tool, rec.Command, rec.ExitCode, rec.ErrorCode, rec.Error, rec.DurationMs, rec.StartedAt)
	if err != nil {
		return dbError(err, "failed to record invocation")
	}

	if s.historyLimit > 0 {
		_, err = tx.ExecContext(ctx, `
			DELETE FROM invocations WHERE seq <= (SELECT MAX(seq) FROM invocations) - ?
		`, s.historyLimit)
		if err != nil {
			return dbError(err, "failed to prune history")
		}
	}

	if err := tx.Commit(); err != nil {
		return dbError(err, "failed to commit invocation")
	}
	return nil
}

// ListInvocations returns the newest records first
func (s *SQLiteStore) ListInvocations(ctx context.Context, limit int) ([]*InvocationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tool, command, exit_code, error_code, error, duration_ms, started_at
		FROM invocations ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, dbError(err, "failed to list invocations")
	}
	defer rows.Close()

	var records []*InvocationRecord
	for rows.Next() {
		var rec InvocationRecord
		if err := rows.Scan(&rec.ID, &rec.Tool, &rec.Command, &rec.ExitCode, &rec.ErrorCode,
			&rec.Error, &rec.DurationMs, &rec.StartedAt); err != nil {
			return nil, dbError(err, "failed to scan invocation")
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// Statistics returns store statistics
func (s *SQLiteStore) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sets, invocations, failed int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parameter_sets`).Scan(&sets); err != nil {
		return nil, dbError(err, "failed to count parameter sets")
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(CASE WHEN exit_code != 0 THEN 1 ELSE 0 END), 0) FROM invocations`).
		Scan(&invocations, &failed); err != nil {
		return nil, dbError(err, "failed to count invocations")
	}

	return map[string]interface{}{
		"parameter_sets":     sets,
		"invocations":        invocations,
		"failed_invocations": failed,
	}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
