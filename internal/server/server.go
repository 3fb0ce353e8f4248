// Package server provides the JSON HTTP API over the query engine.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/garrett-reinhard/ord-interface/internal/config"
	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/metrics"
	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/result"
	"github.com/garrett-reinhard/ord-interface/internal/store"
)

// Runner executes queries. Implemented by *engine.Engine.
type Runner interface {
	Run(ctx context.Context, q query.Query, opts engine.RunOptions) ([]*result.Result, error)
	Datasets(ctx context.Context) ([]store.Dataset, error)
	MaxResults() int
}

// Pinger reports store health. Implemented by *engine.Engine and *store.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PoolStater reports connection pool usage. Implemented by *engine.Engine
// and *store.Store.
type PoolStater interface {
	Stat() store.PoolStat
}

// Server is the HTTP server for the query API.
type Server struct {
	runner  Runner
	pinger  Pinger
	config  config.ServerConfig
	limiter *rate.Limiter
	logger  *zap.Logger
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithPinger enables the store check in /health.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// WithRateLimit limits API requests to cfg.RPS with bursts of cfg.Burst.
// RPS 0 disables limiting.
func WithRateLimit(cfg config.RateLimitConfig) Option {
	return func(s *Server) {
		if cfg.RPS <= 0 {
			s.limiter = nil
			return
		}
		burst := cfg.Burst
		if burst <= 0 {
			burst = int(cfg.RPS)
			if burst < 1 {
				burst = 1
			}
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
}

// New creates a server with the given dependencies.
func New(runner Runner, cfg config.ServerConfig, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		runner: runner,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Routes returns the API handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/query", s.handleQuery)
		r.Get("/search", s.handleSearch)
		r.Post("/fetch_reactions", s.handleFetchReactions)
		r.Post("/download_results", s.handleDownloadResults)
		r.Get("/reaction/{id}", s.handleReaction)
		r.Get("/datasets", s.handleDatasets)
	})
	return r
}

// Start serves on the configured address and blocks until the server stops.
// It returns nil after a graceful Stop, including a Stop that ran first.
func (s *Server) Start() error {
	s.logger.Info("starting server", zap.String("addr", s.config.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server. A server stopped before Start
// never listens.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
