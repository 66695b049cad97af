// Package apiserver assembles the JSON API router and HTTP server
package apiserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/healthylife/server/internal/infrastructure/config"
	"github.com/healthylife/server/internal/infrastructure/http/handlers"
	"github.com/healthylife/server/internal/infrastructure/http/middleware"
	"github.com/healthylife/server/internal/infrastructure/monitoring"
	"github.com/healthylife/server/internal/infrastructure/security"
	"github.com/healthylife/server/pkg/healthcheck"
)

// compressibleTypes are the content types run through the compressor
var compressibleTypes = []string{
	"application/json",
	"application/x-yaml",
	"text/plain",
	"text/html",
}

// Handlers groups the route handlers
type Handlers struct {
	Auth     *handlers.AuthAPIHandlers
	Meals    *handlers.MealAPIHandlers
	Calories *handlers.CalorieAPIHandlers
	Grocery  *handlers.GroceryAPIHandlers
	Chat     *handlers.ChatAPIHandlers
	Health   *handlers.HealthAPIHandlers
}

// Dependencies are everything the server needs besides the handlers
type Dependencies struct {
	Config  *config.Config
	Logger  *zap.Logger
	Tokens  middleware.TokenValidator
	Limiter *security.RateLimitService
	Metrics *monitoring.MetricsCollector
	Tracing *monitoring.TracingProvider
	Checks  *healthcheck.HealthCheck
}

// APIServer serves the HealthyLife JSON API
type APIServer struct {
	deps     Dependencies
	handlers Handlers
	logger   *zap.Logger
	router   *chi.Mux
	server   *http.Server
	openAPI  *OpenAPIHandler
}

// NewAPIServer creates the server and its routes
func NewAPIServer(deps Dependencies, h Handlers) *APIServer {
	s := &APIServer{
		deps:     deps,
		handlers: h,
		logger:   deps.Logger.Named("api-server"),
		openAPI:  NewOpenAPIHandler(deps.Logger),
	}

	s.router = s.setupRoutes()

	var handler http.Handler = s.router
	if deps.Tracing != nil && deps.Tracing.Enabled() {
		handler = otelhttp.NewHandler(s.router, "healthylife-api")
	}

	srv := deps.Config.Server
	// h2c serves cleartext HTTP/2 to proxies that speak it; HTTP/1 passes through
	if srv.EnableH2C {
		handler = h2c.NewHandler(handler, &http2.Server{IdleTimeout: srv.IdleTimeout})
	}

	s.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", srv.Host, srv.Port),
		Handler:        handler,
		ReadTimeout:    srv.ReadTimeout,
		WriteTimeout:   srv.WriteTimeout,
		IdleTimeout:    srv.IdleTimeout,
		MaxHeaderBytes: srv.MaxHeaderBytes,
	}
	return s
}

// Router exposes the routes for tests
func (s *APIServer) Router() http.Handler {
	return s.server.Handler
}

func (s *APIServer) setupRoutes() *chi.Mux {
	cfg := s.deps.Config
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins, cfg.Server.AllowedOriginGlob))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.Server.RequestTimeout))
	}
	if cfg.Server.EnableCompression {
		r.Use(newCompressor().Handler)
	}

	if cfg.Monitoring.EnableMetrics && s.deps.Metrics != nil {
		r.Method(http.MethodGet, metricsPath(cfg.Monitoring.MetricsPath), s.deps.Metrics.Handler())
	}

	if cfg.Storage.LocalPath != "" {
		public := "/" + strings.Trim(cfg.Storage.PublicPath, "/")
		fs := http.StripPrefix(public+"/", http.FileServer(http.Dir(cfg.Storage.LocalPath)))
		r.Method(http.MethodGet, public+"/*", fs)
	}

	r.Route("/api", s.setupAPIRoutes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
	})

	return r
}

func (s *APIServer) setupAPIRoutes(r chi.Router) {
	h := s.handlers
	required := middleware.Authenticate(s.deps.Tokens, true)
	optional := middleware.Authenticate(s.deps.Tokens, false)

	limited := func(next http.Handler) http.Handler { return next }
	if s.deps.Config.RateLimit.Enable && s.deps.Limiter != nil {
		limited = middleware.RateLimit(s.deps.Limiter)
	}

	r.Get("/health", h.Health.Health)
	if s.deps.Checks != nil {
		r.Get("/health/live", s.deps.Checks.LivenessHandler())
		r.Get("/health/ready", s.deps.Checks.ReadinessHandler())
	}

	r.Get("/openapi.yaml", s.openAPI.ServeYAML)
	r.Get("/openapi.json", s.openAPI.ServeJSON)
	r.Get("/docs", s.openAPI.ServeDocs)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Auth.Signup)
		r.Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(required)
			r.Get("/me", h.Auth.Me)
			r.Patch("/me", h.Auth.UpdateMe)
		})
	})

	r.Route("/meals", func(r chi.Router) {
		r.Use(required)
		r.Get("/", h.Meals.List)
		r.Post("/upload", h.Meals.Upload)
		r.Delete("/{id}", h.Meals.Delete)
	})

	r.With(required).Get("/calories/smart-budget", h.Calories.SmartBudget)

	r.Route("/grocery", func(r chi.Router) {
		r.Get("/", h.Grocery.WeeklyPlan)
		r.With(optional, limited).Post("/recommend", h.Grocery.Recommend)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Use(optional, limited)
		r.Post("/", h.Chat.Chat)
		r.Post("/image", h.Chat.ChatImage)
	})
}

// Start serves until the server is shut down
func (s *APIServer) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Server returns the underlying HTTP server instance
func (s *APIServer) Server() *http.Server {
	return s.server
}

// ShutdownTimeout bounds graceful shutdown, 15s when unset
func (s *APIServer) ShutdownTimeout() time.Duration {
	if t := s.deps.Config.Server.ShutdownTimeout; t > 0 {
		return t
	}
	return 15 * time.Second
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}

// newCompressor prefers brotli and falls back to chi's gzip and deflate
func newCompressor() *chimiddleware.Compressor {
	c := chimiddleware.NewCompressor(5, compressibleTypes...)
	c.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})
	return c
}

func metricsPath(p string) string {
	if p == "" {
		return "/metrics"
	}
	return "/" + strings.TrimLeft(p, "/")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
