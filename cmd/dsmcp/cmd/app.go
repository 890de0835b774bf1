package cmd

import (
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/catalog"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/engine"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/sequence"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/internal/store"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/config"
	"github.com/datasunrise-github/datasunrise-mcp-cli-sub000/pkg/core/logging"
)

// app holds the components shared by the subcommands
type app struct {
	cfg      *config.Config
	registry *catalog.Registry
	store    store.Store
	engine   *engine.Engine
	logger   *logging.Logger
}

// newApp builds the catalog, store and engine from cfg. A store that
// cannot be opened is replaced by an in-memory one so the bridge keeps
// working without history.
func newApp(cfg *config.Config) (*app, error) {
	logger := logging.New("dsmcp")

	registry, err := catalog.NewRegistry(cfg.Catalog.Path, catalog.Options{
		InjectSessionToken: cfg.CLI.InjectSessionToken,
	})
	if err != nil {
		return nil, err
	}

	var st store.Store
	if cfg.Store.Enabled {
		sqlite, err := store.NewSQLiteStore(store.SQLiteConfig{
			Path:         cfg.Store.Path,
			HistoryLimit: cfg.Store.HistoryLimit,
		})
		if err != nil {
			logger.Warn("Parameter store unavailable, using memory store", "path", cfg.Store.Path, "error", err)
			st = store.NewMemoryStore(cfg.Store.HistoryLimit)
		} else {
			st = sqlite
		}
	} else {
		st = store.NewMemoryStore(cfg.Store.HistoryLimit)
	}

	opts := engine.Options{
		Executable: cfg.CLI.Executable,
		Timeout:    cfg.CLI.Timeout.Duration,
		Recorder:   st,
	}
	if cfg.Recovery.Enabled {
		opts.Recovery = &engine.RecoveryConfig{
			Tools:         cfg.Recovery.Tools,
			KeyParam:      cfg.Recovery.KeyParam,
			InstanceParam: cfg.Recovery.InstanceParam,
			SuggestedTool: cfg.Recovery.SuggestedTool,
			Window:        cfg.Recovery.Window.Duration,
			MaxEntries:    cfg.Recovery.MaxEntries,
		}
	}

	return &app{
		cfg:      cfg,
		registry: registry,
		store:    st,
		engine:   engine.New(registry, opts),
		logger:   logger,
	}, nil
}

// runnerConfig maps the [sequence] section onto the plan runner
func (a *app) runnerConfig() sequence.RunnerConfig {
	auto := sequence.DefaultAutoResolveConfig()
	auto.Enabled = a.cfg.Sequence.AutoResolve
	auto.MaxLookback = a.cfg.Sequence.Lookback
	auto.ExcludeParams = a.cfg.Sequence.ExcludeParams

	return sequence.RunnerConfig{
		Commands:    a.registry,
		MaxSteps:    a.cfg.Sequence.MaxSteps,
		AutoResolve: auto,
	}
}

func (a *app) Close() {
	a.engine.Close()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close store", "error", err)
	}
}
