// Package api exposes the settings engine over HTTP for operators and web
// dashboards. It is a front-end like the chat bot: it decides authorization
// from the admin token and hands every read and write to Engine.Dispatch.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	settings "github.com/mldkyt/go-settings"
	"github.com/mldkyt/go-settings/schema/openapi"
)

// Server provides the admin HTTP API.
type Server struct {
	router      chi.Router
	engine      *settings.Engine
	logger      *slog.Logger
	adminToken  string
	metrics     http.Handler
	corsOrigins []string
	limiter     *rate.Limiter
	schemaOpts  []openapi.GeneratorOption
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAdminToken sets the bearer token that grants the elevated permission.
// With no token every dispatch is rejected as unauthorized.
func WithAdminToken(token string) ServerOption {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithMetricsHandler mounts handler at /metrics.
func WithMetricsHandler(handler http.Handler) ServerOption {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithCORSOrigins enables CORS for the given origins.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = append(s.corsOrigins, origins...)
	}
}

// WithRateLimit caps mutating requests to r per second with the given burst.
func WithRateLimit(r rate.Limit, burst int) ServerOption {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// WithSchemaOptions customises the document served at /schema.
func WithSchemaOptions(opts ...openapi.GeneratorOption) ServerOption {
	return func(s *Server) {
		s.schemaOpts = append(s.schemaOpts, opts...)
	}
}

// NewServer creates a new API server over engine.
func NewServer(engine *settings.Engine, opts ...ServerOption) *Server {
	s := &Server{
		engine: engine,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(s.loggingMiddleware)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Actor-ID", requestIDHeader},
			MaxAge:         300,
		}).Handler)
	}
	r.Use(s.authMiddleware)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Get("/schema", s.handleSchema)
	r.Get("/groups", s.handleListGroups)
	r.Get("/groups/{group}", s.handleGetGroup)

	r.Route("/domains/{domain}", func(r chi.Router) {
		r.With(requireAuthorized).Get("/settings", s.handleSnapshot)
		r.With(requireAuthorized).Post("/evaluate", s.handleEvaluate)
		r.Get("/settings/{group}/{item}", s.handleRead)
		r.With(s.rateLimit).Put("/settings/{group}/{item}", s.handleWrite)
		r.With(s.rateLimit).Delete("/settings/{group}/{item}", s.handleReset)
		r.With(s.rateLimit).Post("/actions/{group}/{item}", s.handleAction)
	})

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting API server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("stopping API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
