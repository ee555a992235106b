// Package server exposes the progress store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"catbattle/internal/game"
	"catbattle/internal/httpmw"
	"catbattle/internal/progress"
	"catbattle/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StorageInfo describes the backing save slot. *storage.Adapter implements it.
type StorageInfo interface {
	IsStorageAvailable() bool
	Key() string
	LoadState() progress.StorageState
}

type Deps struct {
	Store   *game.Store
	Storage StorageInfo
	// Events is optional; /api/telemetry answers 404 without it.
	Events telemetry.Repository
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

type Server struct {
	srv    *http.Server
	logger *slog.Logger
	routes *RouteRegistry
}

func New(addr string, logger *slog.Logger, deps Deps) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmw.AccessLog(logger))
	r.Use(httpmw.Recover(logger))

	rr := &RouteRegistry{}
	addRoutes(r, rr, logger, deps)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
		routes: rr,
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) Routes() []RouteDoc { return s.routes.List() }

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
