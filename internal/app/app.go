// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary execution lifecycle, decoupled
// from any specific entrypoint like a CLI or server.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/designgridgo/internal/cache"
	"github.com/vk/designgridgo/internal/designer"
	"github.com/vk/designgridgo/internal/designer/builtin"
	"github.com/vk/designgridgo/internal/engine"
	"github.com/vk/designgridgo/internal/executor"
	"github.com/vk/designgridgo/internal/hcl"
	"github.com/vk/designgridgo/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *designer.Registry
	store      cache.Store
	engine     *engine.Engine
	metrics    *metrics.Metrics
	loader     *hcl.Loader
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger, registry and cache
// store. A store that cannot be opened is a fatal startup error and panics;
// the entrypoint recovers it into a clean exit.
func NewApp(outW, logW io.Writer, config *Config, designers ...designer.Evaluator) *App {
	logger := newLogger(config.LogLevel, config.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	store, err := openStore(config)
	if err != nil {
		panic(fmt.Errorf("failed to open cache store: %w", err))
	}
	logger.Debug("Cache store opened.", "backend", config.CacheBackend, "dir", config.CacheDir)

	reg := designer.NewRegistry()
	if len(designers) == 0 {
		builtin.RegisterAll(reg)
	} else {
		for _, d := range designers {
			reg.Register(d)
		}
	}
	logger.Debug("Designers registered.", "names", reg.Names())

	m := metrics.New()
	pool := executor.NewPool(config.WorkerCount, m)
	eng := engine.New(store, pool, config.MaxPoints, m)

	return &App{
		outW:     outW,
		logW:     logW,
		logger:   logger,
		config:   config,
		registry: reg,
		store:    store,
		engine:   eng,
		metrics:  m,
		loader:   hcl.NewLoader(),
	}
}

// Registry returns the application's designer registry. Primarily for testing.
func (a *App) Registry() *designer.Registry {
	return a.registry
}

// Store returns the application's cache store. Primarily for testing.
func (a *App) Store() cache.Store {
	return a.store
}

func openStore(config *Config) (cache.Store, error) {
	switch config.CacheBackend {
	case BackendBadger:
		return cache.NewBadgerStore(cache.BadgerConfig{Path: config.CacheDir})
	case BackendMemory:
		return cache.NewMemStore(), nil
	default:
		return cache.NewFSStore(config.CacheDir)
	}
}
