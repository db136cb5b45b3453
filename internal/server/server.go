package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/paramgw/internal/config"
	"github.com/vyrodovalexey/paramgw/internal/health"
	"github.com/vyrodovalexey/paramgw/internal/observability"
	"github.com/vyrodovalexey/paramgw/internal/server/middleware"
	"github.com/vyrodovalexey/paramgw/internal/template"
	"github.com/vyrodovalexey/paramgw/internal/transform"
)

// ginModeOnce ensures gin.SetMode is only called once.
var ginModeOnce sync.Once

// Templates is the template registry the server reads from.
type Templates interface {
	Lookup(name string) (*template.Definition, error)
	Names() []string
	Refresh(ctx context.Context) error
}

// Server is the HTTP server of the service.
type Server struct {
	engine      *gin.Engine
	httpServer  *http.Server
	config      config.ServerConfig
	logger      observability.Logger
	templates   Templates
	transformer *transform.Transformer

	metrics        *observability.Metrics
	metricsPath    string
	limiter        *middleware.RateLimiter
	checker        *health.Checker
	tracerProvider trace.TracerProvider

	mu      sync.RWMutex
	running bool
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics enables request metrics and serves them on path.
func WithMetrics(m *observability.Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// WithRateLimiter enables client rate limiting.
func WithRateLimiter(rl *middleware.RateLimiter) Option {
	return func(s *Server) {
		s.limiter = rl
	}
}

// WithHealthChecker serves the health and readiness endpoints.
func WithHealthChecker(c *health.Checker) Option {
	return func(s *Server) {
		s.checker = c
	}
}

// WithTracerProvider enables the tracing middleware with the given
// provider. A nil provider leaves tracing off.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracerProvider = tp
	}
}

// New creates a Server and registers its middleware and routes.
func New(cfg config.ServerConfig, templates Templates, transformer *transform.Transformer, opts ...Option) *Server {
	ginModeOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)
	})

	s := &Server{
		engine:      gin.New(),
		config:      cfg,
		logger:      observability.NopLogger(),
		templates:   templates,
		transformer: transformer,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.transformer == nil {
		s.transformer = transform.New(s.logger)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	zl := observability.Zap(s.logger)

	s.engine.Use(middleware.Logging(zl, health.HealthPath, health.ReadinessPath))
	if s.tracerProvider != nil {
		s.engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			TracerProvider: s.tracerProvider,
			SkipPaths:      []string{health.HealthPath, health.ReadinessPath, s.metricsPath},
		}))
	}
	s.engine.Use(middleware.Recovery(zl))
	if s.metrics != nil {
		s.engine.Use(middleware.Metrics(s.metrics))
	}
	if s.config.MaxBodySize > 0 {
		s.engine.Use(s.maxRequestBodySizeMiddleware())
	}
}

// maxRequestBodySizeMiddleware limits request body size.
func (s *Server) maxRequestBodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodySize)
		c.Next()
	}
}

func (s *Server) setupRoutes() {
	if s.checker != nil {
		s.checker.RegisterRoutes(s.engine)
	}
	if s.metrics != nil && s.metricsPath != "" {
		s.engine.GET(s.metricsPath, gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.engine.Group("/v1")
	v1.Use(middleware.RateLimit(s.limiter))

	v1.POST("/transform/:name/request", s.handleTransformRequest)
	v1.POST("/transform/:name/response", s.handleTransformResponse)
	v1.GET("/templates", s.handleListTemplates)
	v1.POST("/templates/refresh", s.handleRefreshTemplates)

	s.engine.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "no route matched the request")
	})
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens and serves until Stop is called. It returns nil after a
// graceful shutdown.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}

	addr := s.config.ListenAddress()
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadTimeout:       s.config.ReadTimeout.Duration(),
		ReadHeaderTimeout: s.config.ReadTimeout.Duration(),
		WriteTimeout:      s.config.WriteTimeout.Duration(),
		IdleTimeout:       s.config.IdleTimeout.Duration(),
		MaxHeaderBytes:    1 << 20,
	}
	httpServer := s.httpServer
	s.running = true
	s.mu.Unlock()

	s.logger.Info("starting HTTP server",
		observability.String("address", addr),
		observability.Duration("read_timeout", s.config.ReadTimeout.Duration()),
		observability.Duration("write_timeout", s.config.WriteTimeout.Duration()),
	)

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	s.logger.Info("stopping HTTP server")

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.logger.Info("HTTP server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}
