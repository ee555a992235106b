// Package serverapp wires configuration into a running progress service:
// key-value backend, storage adapter, metrics, telemetry and store.
package serverapp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"catbattle/internal/clock"
	"catbattle/internal/config"
	"catbattle/internal/game"
	"catbattle/internal/kv"
	"catbattle/internal/metrics"
	"catbattle/internal/server"
	"catbattle/internal/storage"
	"catbattle/internal/telemetry"
)

type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

type App struct {
	KV      kv.Store
	Adapter *storage.Adapter
	Store   *game.Store
	Events  telemetry.Repository
	Metrics http.Handler

	cfg     *config.Config
	logger  *slog.Logger
	closeKV func() error
}

// Open builds every component named by opts.Config. Close releases the
// backend.
func Open(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	cfg := opts.Config

	store, closeKV, err := kv.Open(cfg.KVOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var metricsHandler http.Handler
	if cfg.Metrics {
		pr := metrics.NewPrometheusRecorder(nil)
		rec, metricsHandler = pr, pr.Handler()
	}

	adapter := storage.New(store, storage.Options{
		Key:     cfg.Storage.Key,
		Logger:  opts.Logger,
		Clock:   opts.Clock,
		Metrics: rec,
	})

	var events telemetry.Repository
	if cfg.Telemetry.Enabled {
		events = telemetry.NewMemoryRepository(opts.Clock, cfg.Telemetry.Limit)
	}

	return &App{
		KV:      store,
		Adapter: adapter,
		Store:   game.New(adapter, game.Options{Logger: opts.Logger, Metrics: rec, Events: events}),
		Events:  events,
		Metrics: metricsHandler,
		cfg:     cfg,
		logger:  opts.Logger,
		closeKV: closeKV,
	}, nil
}

// Server returns an HTTP server bound to the configured address.
func (a *App) Server() *server.Server {
	if !a.Adapter.IsStorageAvailable() {
		a.logger.Warn("storage unavailable, progress will not survive a restart",
			"backend", a.cfg.Storage.Backend)
	}
	return server.New(a.cfg.HTTP.Addr, a.logger, server.Deps{
		Store:   a.Store,
		Storage: a.Adapter,
		Events:  a.Events,
		Metrics: a.Metrics,
	})
}

func (a *App) Close() error {
	return a.closeKV()
}
