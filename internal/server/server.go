// Package server exposes a [confab.Confabulator] over HTTP.
//
// Routes:
//
//	POST /v1/confabulate   {"phrase": "..."} or {"phrases": ["...", ...]}
//	GET  /v1/homophones    ?word=
//	GET  /v1/partners      ?from=TH&to=DH&limit=
//	GET  /healthz, /readyz
//	GET  /metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/confab/internal/confab"
	"github.com/MrWong99/confab/internal/health"
	"github.com/MrWong99/confab/internal/observe"
)

const (
	// DefaultMaxBatch caps the phrases accepted in one request.
	DefaultMaxBatch = 100

	// maxBodyBytes caps request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout = 15 * time.Second
)

// Server serves the confab HTTP API. The confabulator can be swapped while
// serving, which is how configuration reloads reach in-flight traffic.
type Server struct {
	conf atomic.Pointer[confab.Confabulator]

	health         *health.Handler
	metrics        *observe.Metrics
	metricsHandler http.Handler
	maxBatch       int
	logger         *slog.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithHealth sets the probe handler. Default: no readiness checks.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithMetrics sets the metrics used by the request middleware. Default:
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsHandler sets the /metrics handler. Default: [promhttp.Handler].
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metricsHandler = h }
}

// WithMaxBatch caps the number of phrases in one request.
func WithMaxBatch(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New returns a Server answering with c.
func New(c *confab.Confabulator, opts ...Option) *Server {
	s := &Server{
		maxBatch: DefaultMaxBatch,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.health == nil {
		s.health = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.metricsHandler == nil {
		s.metricsHandler = promhttp.Handler()
	}
	s.conf.Store(c)
	return s
}

// SetConfabulator replaces the confabulator used by subsequent requests.
func (s *Server) SetConfabulator(c *confab.Confabulator) {
	s.conf.Store(c)
}

// Confabulator returns the confabulator currently serving requests.
func (s *Server) Confabulator() *confab.Confabulator {
	return s.conf.Load()
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/confabulate", s.handleConfabulate)
	mux.HandleFunc("GET /v1/homophones", s.handleHomophones)
	mux.HandleFunc("GET /v1/partners", s.handlePartners)
	mux.Handle("GET /metrics", s.metricsHandler)
	s.health.Register(mux)

	return observe.Middleware(s.metrics, observe.WithQuietPaths("/healthz", "/readyz", "/metrics"))(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %q: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("http server listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: serve: %w", err)
	}
	return nil
}
