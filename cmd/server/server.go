package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/auth"
	"github.com/janhq/sessions-api/internal/infrastructure/logger"
	"github.com/janhq/sessions-api/internal/infrastructure/observability"
	"github.com/janhq/sessions-api/internal/infrastructure/store"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HttpServer
	store      *store.Store
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, st *store.Store, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		store:      st,
		log:        log,
	}
}

// Start serves until ctx is cancelled, then releases the store handles once
// the HTTP server has drained.
func (a *Application) Start(ctx context.Context, cfg *config.Config) error {
	runErr := a.httpServer.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := a.store.Close(closeCtx); err != nil {
		a.log.Error().Err(err).Msg("close store")
	}
	return runErr
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	// Phase one: the store must be reachable before anything listens.
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("connect store")
	}
	repository := st.WithCache(ctx, cfg, log)

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		_ = st.Close(context.Background())
		log.Fatal().Err(err).Msg("initialize auth validator")
	}
	defer authValidator.Close()

	// Phase two: serve.
	sessionService := domain.NewService(repository, log)
	httpServer := httpserver.New(cfg, log, sessionService, authValidator)
	app := NewApplication(httpServer, st, log)

	if err := app.Start(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
