package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Nikolay-Shirokov/va-ai/internal/library"
	"github.com/Nikolay-Shirokov/va-ai/internal/resolve"
)

const maxBodyBytes = 1 << 20

// ResolverFactory builds the resolver for a freshly loaded library.
type ResolverFactory func(*library.Library) *resolve.Resolver

// Loader loads the library from its source.
type Loader func() (*library.Library, error)

// Server serves one library at a time.
type Server struct {
	current atomic.Pointer[resolve.Resolver]

	factory  ResolverFactory
	loader   Loader
	search   resolve.SearchOptions
	registry *prometheus.Registry
	stats    *Stats
	logger   *slog.Logger
	router   *mux.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRegistry registers the service collectors with reg and serves it on
// /metrics. The default is a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithResolverFactory sets how resolvers are built for reloaded libraries.
func WithResolverFactory(f ResolverFactory) Option {
	return func(s *Server) { s.factory = f }
}

// WithLoader enables Reload.
func WithLoader(l Loader) Option {
	return func(s *Server) { s.loader = l }
}

// WithSearchDefaults sets the search options used when a request omits them.
func WithSearchDefaults(o resolve.SearchOptions) Option {
	return func(s *Server) { s.search = o }
}

// New returns a Server serving lib.
func New(lib *library.Library, opts ...Option) *Server {
	s := &Server{search: resolve.DefaultSearchOptions()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	if s.factory == nil {
		logger := s.logger
		s.factory = func(l *library.Library) *resolve.Resolver {
			return resolve.New(l, resolve.WithLogger(logger))
		}
	}
	s.stats = NewStats(s.registry)
	s.install(lib)
	s.router = s.routes()
	return s
}

func (s *Server) install(lib *library.Library) {
	s.current.Store(s.factory(lib))
	s.stats.Templates.Set(float64(lib.Len()))
}

// Resolver returns the resolver currently in service.
func (s *Server) Resolver() *resolve.Resolver {
	return s.current.Load()
}

// Stats returns the service collectors.
func (s *Server) Stats() *Stats { return s.stats }

// Reload loads the library again and swaps it in. On failure the current
// library stays in service.
func (s *Server) Reload() error {
	if s.loader == nil {
		return errors.New("reload not configured")
	}
	lib, err := s.loader()
	if err != nil {
		s.stats.Reloads.WithLabelValues("error").Inc()
		s.logger.Warn("library reload failed; keeping current library", "error", err)
		return err
	}
	s.install(lib)
	s.stats.Reloads.WithLabelValues("ok").Inc()
	s.logger.Info("library reloaded", "source", lib.Source(), "templates", lib.Len())
	return nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/resolve", s.handleResolve).Methods(http.MethodPost)
	v1.HandleFunc("/search", s.handleSearch).Methods(http.MethodPost)
	v1.HandleFunc("/library", s.handleLibrary).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
