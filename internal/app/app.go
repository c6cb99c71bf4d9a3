package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/dqgrid/internal/config"
	"github.com/vk/dqgrid/internal/ctxlog"
	"github.com/vk/dqgrid/internal/listener"
	"github.com/vk/dqgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	loader     config.Loader
	registry   *registry.Registry
	progress   *listener.Progress
	httpServer *http.Server
}

// NewApp returns an App with its own logger and registry. Modules default
// to the core modules. A registry that fails validation is a programming
// error and panics.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.Load(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules), "descriptors", reg.Names())

	if err := reg.Validate(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		loader:   loader,
		registry: reg,
		progress: listener.NewProgress(),
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Progress returns the live counters of the current run.
func (a *App) Progress() *listener.Progress {
	return a.progress
}
