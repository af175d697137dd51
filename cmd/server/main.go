package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/api"
	"github.com/tendant/simple-embed/pkg/simpleembed/config"
	"github.com/tendant/simple-embed/pkg/simpleembed/metrics"
)

const maxRequestBytes = 1 << 20

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Optional .env next to the binary
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env file", "err", err)
	}

	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		logger.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	svc, err := buildService(serverConfig, logger, m)
	if err != nil {
		logger.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	server := NewHTTPServer(svc, serverConfig, m, logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", serverConfig.Port),
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Simple Embed Server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"storage", serverConfig.DefaultStorageBackend,
			"cache_images", serverConfig.Embed.CacheImageAsAsset)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info("Server exiting")
}

// buildService builds the service with an instrumented fetcher.
func buildService(cfg *config.ServerConfig, logger *slog.Logger, m *metrics.Metrics) (simpleembed.Service, error) {
	f, err := cfg.BuildFetcher()
	if err != nil {
		return nil, err
	}
	var extra []simpleembed.Option
	if f != nil {
		extra = append(extra, simpleembed.WithFetcher(m.InstrumentFetcher(f)))
	}
	return cfg.BuildService(logger, extra...)
}

// HTTPServer wraps the embed service for HTTP access
type HTTPServer struct {
	service simpleembed.Service
	config  *config.ServerConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewHTTPServer creates a new HTTP server wrapper
func NewHTTPServer(service simpleembed.Service, serverConfig *config.ServerConfig, m *metrics.Metrics, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		service: service,
		config:  serverConfig,
		metrics: m,
		logger:  logger,
	}
}

// Routes sets up the HTTP routes
func (s *HTTPServer) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequestSizeLimitMiddleware(maxRequestBytes))
		r.Use(api.PrincipalMiddleware)

		r.Mount("/embeds", api.NewEmbedHandler(s.service, s.logger).Routes())
		r.Mount("/assets", api.NewAssetHandler(s.service, s.logger).Routes())
		r.Get("/config", s.handleGetConfig)
	})

	return r
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.config.DatabaseType == "postgres" {
		if err := s.config.PingPostgres(r.Context()); err != nil {
			s.logger.Error("Health check failed", "err", err)
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, map[string]string{"status": "unavailable"})
			return
		}
	}
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// handleGetConfig reports the non-secret settings of the running server
func (s *HTTPServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	embed := s.config.Embed
	render.JSON(w, r, map[string]interface{}{
		"environment":          s.config.Environment,
		"database_type":        s.config.DatabaseType,
		"storage_backend":      s.config.DefaultStorageBackend,
		"cache_image_as_asset": embed.CacheImageAsAsset,
		"folder":               embed.Folder,
		"allowed_types":        embed.AllowedTypes,
		"validate":             embed.Validate,
		"template":             embed.Template,
		"reuse_existing_asset": embed.ReuseExistingAsset,
		"object_key_strategy":  embed.ObjectKeyStrategy,
		"fetcher_configured":   embed.FetcherRelayURL != "",
	})
}
