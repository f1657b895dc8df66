package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/specialistvlad/algogrid/internal/catalog"
	"github.com/specialistvlad/algogrid/internal/ctxlog"
	"github.com/specialistvlad/algogrid/internal/executor"
	"github.com/specialistvlad/algogrid/internal/handlers"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	catalog    *catalog.Catalog
	handlers   *handlers.Manager
	registry   *prometheus.Registry
	metrics    *executor.Metrics
	httpServer *http.Server
	ctx        context.Context
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own logger, catalog and metrics registry. With
// no modules, the built-in ones are registered.
func NewApp(outW io.Writer, cfg *Config, modules ...catalog.Module) *App {
	logW := cfg.LogOutput
	if logW == nil {
		logW = outW
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	cat := catalog.New()
	if err := catalog.Load(ctx, cat, modules...); err != nil {
		// A unit that cannot be registered is a programmer error.
		panic(fmt.Errorf("failed to load units: %w", err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	return &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		catalog:  cat,
		handlers: handlers.Default(),
		registry: reg,
		metrics:  executor.NewMetrics(reg),
		ctx:      ctx,
	}
}

// Catalog returns the application's unit catalog. This is primarily for testing.
func (a *App) Catalog() *catalog.Catalog {
	return a.catalog
}

// Handlers returns the data handler manager, so callers can register
// additional formats before Run.
func (a *App) Handlers() *handlers.Manager {
	return a.handlers
}

// Registry returns the Prometheus registry served on /metrics.
func (a *App) Registry() *prometheus.Registry {
	return a.registry
}
