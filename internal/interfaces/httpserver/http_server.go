package httpserver

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/auth"
	"github.com/janhq/sessions-api/internal/infrastructure/metrics"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/handlers"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/responses"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/routes"
	"github.com/janhq/sessions-api/internal/utils/platformerrors"
)

const readyTimeout = 3 * time.Second

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg         *config.Config
	engine      *gin.Engine
	log         zerolog.Logger
	handlerProv *handlers.Provider
	routeProv   *routes.Provider
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg *config.Config, log zerolog.Logger, sessionService domain.Service, authValidator *auth.Validator) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	log = log.With().Str("component", "http").Logger()

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.EnableTracing {
		engine.Use(middlewares.TracingMiddleware(cfg.ServiceName))
	}
	engine.Use(middlewares.LoggingMiddleware(log))
	engine.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	if cfg.MetricsEnabled {
		engine.Use(metrics.GinMiddleware())
	}

	var writeGuard gin.HandlerFunc
	if authValidator.Enabled() {
		writeGuard = authValidator.Middleware()
	}

	handlerProvider := handlers.NewProvider(sessionService)
	routeProvider := routes.NewProvider(handlerProvider, writeGuard, log)
	registerCoreRoutes(engine, cfg, handlerProvider, routeProvider)

	return &HttpServer{
		cfg:         cfg,
		engine:      engine,
		log:         log,
		handlerProv: handlerProvider,
		routeProv:   routeProvider,
	}
}

// Handler exposes the engine, mainly for tests.
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func registerCoreRoutes(engine *gin.Engine, cfg *config.Config, handlerProvider *handlers.Provider, routeProvider *routes.Provider) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, responses.StatusResponse{
			Service: cfg.ServiceName,
			Status:  "ok",
			Backend: cfg.StoreBackend,
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, responses.StatusResponse{Status: "healthy"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()
		if err := handlerProvider.Session.Ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, responses.StatusResponse{Status: "unavailable", Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, responses.StatusResponse{Status: "ready"})
	})

	if cfg.MetricsEnabled {
		engine.GET("/metrics", metrics.Handler())
	}

	routeProvider.Register(engine)
	engine.NoRoute(noRoute(cfg.StaticDir))
}

// noRoute answers unknown /api paths with a JSON 404 and, when staticDir is
// set, serves files from it with index.html as the SPA fallback.
func noRoute(staticDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if staticDir == "" || path == "/api" || strings.HasPrefix(path, "/api/") ||
			(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			platformerrors.WriteNotFound(c, "Not found")
			return
		}

		if file, ok := staticFile(staticDir, path); ok {
			c.File(file)
			return
		}
		index := filepath.Join(staticDir, "index.html")
		if _, err := os.Stat(index); err != nil {
			platformerrors.WriteNotFound(c, "Not found")
			return
		}
		c.File(index)
	}
}

func staticFile(root, urlPath string) (string, bool) {
	clean := filepath.Clean("/" + urlPath)
	if clean == "/" {
		return "", false
	}
	full := filepath.Join(root, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
