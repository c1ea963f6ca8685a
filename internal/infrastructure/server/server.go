package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hquery"
	apihttp "github.com/GriffinCanCode/hquery/internal/api/http"
	"github.com/GriffinCanCode/hquery/internal/api/middleware"
	"github.com/GriffinCanCode/hquery/internal/fetch"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/config"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/logging"
	"github.com/GriffinCanCode/hquery/internal/infrastructure/monitoring"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *http.Server
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer wires the query API. A nil fetcher gets the default HTTP
// client built from cfg.Fetch.
func NewServer(cfg *config.Config, fetcher apihttp.Fetcher) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing hquery server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Int("max_depth", cfg.Query.MaxDepth),
		zap.Int64("max_html_size", cfg.Query.MaxHTMLSize),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(registry)

	if fetcher == nil {
		fc := fetch.DefaultConfig()
		fc.Timeout = cfg.Fetch.Timeout
		fc.Retries = cfg.Fetch.Retries
		fc.RequestsPerSecond = cfg.Fetch.RequestsPerSecond
		fc.UserAgent = cfg.Fetch.UserAgent
		fc.MaxSize = cfg.Query.MaxHTMLSize
		fetcher = fetch.New(fc, logger.Named("fetch"))
	}

	opts := []hquery.Option{
		hquery.WithLogger(logger.Named("query")),
		hquery.WithMaxDepth(cfg.Query.MaxDepth),
		hquery.WithMaxSize(cfg.Query.MaxHTMLSize),
	}
	if cfg.Query.Sanitize {
		opts = append(opts, hquery.WithSanitize())
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Named("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(fetcher, metrics, logger.Named("api"), opts...)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)
	router.POST("/query", handlers.Query)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	err := s.http.Shutdown(ctx)
	s.logger.Sync()
	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
