// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     catalog
// Description: Swappable catalog holder with file hot-reload
// Created:     2025-12-11
// License:     MIT
// ============================================================================

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

// Registry holds the active catalog. Readers always see a complete
// catalog; a reload swaps it atomically and never mutates the old one.
type Registry struct {
	current atomic.Pointer[Catalog]
	path    string
	opts    Options
	logger  *logging.Logger

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	onReload func(*Catalog)
}

// NewRegistry loads path (or the embedded catalog when empty)
func NewRegistry(path string, opts Options) (*Registry, error) {
	c, err := LoadOrDefault(path, opts)
	if err != nil {
		return nil, err
	}
	r := &Registry{path: path, opts: opts, logger: logging.New("catalog")}
	r.current.Store(c)
	return r, nil
}

// NewStaticRegistry wraps an already loaded catalog
func NewStaticRegistry(c *Catalog) *Registry {
	r := &Registry{logger: logging.New("catalog")}
	r.current.Store(c)
	return r
}

// Catalog returns the active catalog
func (r *Registry) Catalog() *Catalog {
	return r.current.Load()
}

// Lookup resolves a tool name against the active catalog
func (r *Registry) Lookup(toolName string) (*CommandSpec, error) {
	return r.Catalog().Lookup(toolName)
}

// OnReload registers a callback invoked after each successful reload
func (r *Registry) OnReload(fn func(*Catalog)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onReload = fn
}

// Reload re-reads the catalog file. On error the active catalog is kept.
func (r *Registry) Reload() error {
	if r.path == "" {
		return nil
	}
	c, err := Load(r.path, r.opts)
	if err != nil {
		return err
	}
	r.current.Store(c)

	r.mu.Lock()
	fn := r.onReload
	r.mu.Unlock()
	if fn != nil {
		fn(c)
	}
	r.logger.Info("Catalog reloaded", "path", r.path, "commands", c.Len())
	return nil
}

// Watch reloads the catalog whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file on
// save are handled. Watch is a no-op for the embedded catalog.
func (r *Registry) Watch(ctx context.Context) error {
	if r.path == "" {
		return nil
	}

	r.mu.Lock()
	if r.watcher != nil {
		r.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		r.mu.Unlock()
		return fmt.Errorf("failed to watch directory: %w", err)
	}
	r.watcher = watcher
	r.mu.Unlock()

	r.logger.Info("Watching catalog for changes", "path", r.path)
	go r.watchLoop(ctx, watcher)
	return nil
}

func (r *Registry) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer func() {
		watcher.Close()
		r.mu.Lock()
		r.watcher = nil
		r.mu.Unlock()
	}()

	target := filepath.Clean(r.path)
	const debounceDelay = 250 * time.Millisecond
	// reload once the file has been quiet for debounceDelay
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case <-pending:
			pending = nil
			if err := r.Reload(); err != nil {
				r.logger.Warn("Catalog reload failed, keeping previous version", "path", r.path, "error", err)
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.After(debounceDelay)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			r.logger.Error("Watcher error", "error", err)
		}
	}
}
