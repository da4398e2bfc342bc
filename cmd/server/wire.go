//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/auth"
	"github.com/janhq/sessions-api/internal/infrastructure/logger"
	"github.com/janhq/sessions-api/internal/infrastructure/store"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver"
)

var sessionSet = wire.NewSet(
	store.Open,
	newRepository,
	domain.NewService,
)

// BuildApplication assembles the sessions service with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		sessionSet,
		newAuthValidator,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newRepository(ctx context.Context, st *store.Store, cfg *config.Config, log zerolog.Logger) domain.Repository {
	return st.WithCache(ctx, cfg, log)
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}
