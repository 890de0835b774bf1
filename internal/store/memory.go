package store

import (
	"context"
	"encoding/json"
	"sync"

	dserror "github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/core/error"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/foundation/utils/mapx"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
)

// MemoryStore implements Store in memory, used when persistence is disabled
type MemoryStore struct {
	mu           sync.RWMutex
	params       map[string]map[string]interface{}
	history      []*InvocationRecord
	historyLimit int
}

// NewMemoryStore creates an empty store with the default categories
func NewMemoryStore(historyLimit int) *MemoryStore {
	s := &MemoryStore{
		params:       make(map[string]map[string]interface{}),
		historyLimit: historyLimit,
	}
	for _, c := range DefaultCategories {
		s.params[c] = make(map[string]interface{})
	}
	return s
}

// SaveParameters implements ParameterStore
func (s *MemoryStore) SaveParameters(ctx context.Context, category, name string, params interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if category == "" || name == "" {
		return dserror.New("category and name are required").WithCode(dserror.CodeInvalidParameter)
	}
	// a JSON round trip matches what the SQLite store returns
	data, err := json.Marshal(params)
	if err != nil {
		return dserror.Wrap(err, "parameters are not JSON serializable").WithCode(dserror.CodeInvalidParameter)
	}
	var copied interface{}
	if err := json.Unmarshal(data, &copied); err != nil {
		return dserror.Wrap(err, "parameters are not JSON serializable").WithCode(dserror.CodeInvalidParameter)
	}

	if s.params[category] == nil {
		s.params[category] = make(map[string]interface{})
	}
	s.params[category][name] = copied
	return nil
}

// GetParameters implements ParameterStore
func (s *MemoryStore) GetParameters(ctx context.Context, category, name string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.params[category][name]
	if !ok {
		return nil, notFound(category, name)
	}
	return mapx.DeepCopy(v), nil
}

// ListParameters implements ParameterStore
func (s *MemoryStore) ListParameters(ctx context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := mapx.SortedKeys(s.params[category])
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// DeleteParameters implements ParameterStore
func (s *MemoryStore) DeleteParameters(ctx context.Context, category, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.params[category][name]; !ok {
		return false, nil
	}
	delete(s.params[category], name)
	return true, nil
}

// ListCategories implements ParameterStore
func (s *MemoryStore) ListCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return mapx.SortedKeys(s.params), nil
}

// RecordInvocation implements engine.Recorder
func (s *MemoryStore) RecordInvocation(ctx context.Context, r *engine.InvocationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, recordFromResult(r))
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = append([]*InvocationRecord(nil), s.history[len(s.history)-s.historyLimit:]...)
	}
	return nil
}

// ListInvocations returns the newest records first
func (s *MemoryStore) ListInvocations(ctx context.Context, limit int) ([]*InvocationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*InvocationRecord, 0, limit)
	for i := len(s.history) - 1; i >= 0 && len(out) < limit; i-- {
		rec := *s.history[i]
		out = append(out, &rec)
	}
	return out, nil
}

// Statistics returns store statistics
func (s *MemoryStore) Statistics(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sets, failed int64
	for _, c := range s.params {
		sets += int64(len(c))
	}
	for _, r := range s.history {
		if r.ExitCode != 0 {
			failed++
		}
	}
	return map[string]interface{}{
		"parameter_sets":     sets,
		"invocations":        int64(len(s.history)),
		"failed_invocations": failed,
	}, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

// compile-time interface checks
var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
