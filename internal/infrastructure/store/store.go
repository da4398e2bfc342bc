// Package store opens the session backend selected by configuration.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/cache"
	"github.com/janhq/sessions-api/internal/infrastructure/database"
	"github.com/janhq/sessions-api/internal/infrastructure/mongodb"
	sessionrepo "github.com/janhq/sessions-api/internal/infrastructure/repository/session"
)

// Backend is a connected, pinged store.
type Backend interface {
	domain.Repository
	domain.Seeder
}

// Store bundles the opened backend with the handles that must be released.
type Store struct {
	Name    string
	Backend Backend
	closers []func(context.Context) error
}

// Close releases every handle in reverse acquisition order.
func (s *Store) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Open connects to the configured backend and verifies it with a ping. The
// postgres schema is migrated on open.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	log = log.With().Str("component", "store").Str("backend", cfg.StoreBackend).Logger()

	switch cfg.StoreBackend {
	case config.BackendMongo:
		handle, err := mongodb.Connect(ctx, mongodb.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.MongoDatabase,
			Collection:     cfg.MongoCollection,
			ConnectTimeout: cfg.StoreConnectTimeout,
			AppName:        cfg.ServiceName,
		})
		if err != nil {
			return nil, err
		}
		repo := sessionrepo.NewMongoRepository(handle.Client, handle.Collection)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn().Err(err).Msg("website_index index not ensured")
		}
		log.Info().Str("database", cfg.MongoDatabase).Str("collection", cfg.MongoCollection).Msg("connected to mongo")
		return &Store{Name: cfg.StoreBackend, Backend: repo, closers: []func(context.Context) error{handle.Close}}, nil

	case config.BackendPostgres:
		db, err := database.Connect(ctx, database.Config{
			DSN:             cfg.PostgresDSN(),
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnLifetime,
			ConnectTimeout:  cfg.StoreConnectTimeout,
			LogLevel:        gormlogger.Warn,
		})
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(ctx, db, log); err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		log.Info().Msg("connected to postgres")
		closeDB := func(context.Context) error { return database.Close(db) }
		return &Store{Name: cfg.StoreBackend, Backend: sessionrepo.NewPostgresRepository(db), closers: []func(context.Context) error{closeDB}}, nil

	case config.BackendMemory:
		log.Warn().Msg("using in-memory store; data is lost on restart")
		return &Store{Name: cfg.StoreBackend, Backend: sessionrepo.NewInMemoryRepository()}, nil

	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

// WithCache decorates the backend with a Redis read-through cache when
// REDIS_URL is set. A cache that cannot be reached is skipped with a warning.
func (s *Store) WithCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) domain.Repository {
	if cfg.RedisURL == "" {
		return s.Backend
	}
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn().Err(err).Msg("redis cache unavailable; serving directly from the store")
		return s.Backend
	}
	s.closers = append(s.closers, func(context.Context) error { return redisCache.Close() })
	return sessionrepo.NewCachedRepository(s.Backend, redisCache, cfg.CacheTTL, log)
}
