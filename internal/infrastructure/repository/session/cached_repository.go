package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/cache"
	"github.com/janhq/sessions-api/internal/infrastructure/metrics"
)

const (
	cacheNamespace  = "sessions:v1:"
	generationKey   = cacheNamespace + "gen"
	dataPrefix      = cacheNamespace + "data:"
	defaultCacheTTL = time.Minute
)

// Cache is the subset of a key/value cache the decorator needs. Get returns
// cache.ErrMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	DeletePattern(ctx context.Context, pattern string) error
}

type cachedPage struct {
	Sessions []domain.Session `json:"sessions"`
	Total    int64            `json:"total"`
}

// CachedRepository serves List and FindOne from a cache and invalidates the
// whole namespace after every successful update. Cache failures are logged and
// the call falls through to the wrapped repository.
//
// Every data key embeds the generation counter read before the store is
// queried. Invalidation bumps the counter first, so a read that raced with an
// update can only populate a generation nobody reads any more.
type CachedRepository struct {
	next  domain.Repository
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

var _ domain.Repository = (*CachedRepository)(nil)

// NewCachedRepository decorates next with cache.
func NewCachedRepository(next domain.Repository, c Cache, ttl time.Duration, log zerolog.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedRepository{
		next:  next,
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "session-cache").Logger(),
	}
}

func (r *CachedRepository) ParseNativeID(raw string) (domain.ID, bool) {
	return r.next.ParseNativeID(raw)
}

func (r *CachedRepository) List(ctx context.Context, params domain.ListParams) ([]domain.Session, int64, error) {
	gen, ok := r.generation(ctx)
	if !ok {
		metrics.RecordCacheLookup("list", false)
		return r.next.List(ctx, params)
	}
	key := listKey(gen, params)

	var page cachedPage
	if r.load(ctx, "list", key, &page) {
		return page.Sessions, page.Total, nil
	}

	sessions, total, err := r.next.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	r.store(ctx, key, cachedPage{Sessions: sessions, Total: total})
	return sessions, total, nil
}

func (r *CachedRepository) FindOne(ctx context.Context, id domain.Identifier) (domain.Session, error) {
	gen, ok := r.generation(ctx)
	if !ok {
		metrics.RecordCacheLookup("get", false)
		return r.next.FindOne(ctx, id)
	}
	key := getKey(gen, id)

	var s domain.Session
	if r.load(ctx, "get", key, &s) {
		return s, nil
	}

	s, err := r.next.FindOne(ctx, id)
	if err != nil {
		return domain.Session{}, err
	}
	r.store(ctx, key, s)
	return s, nil
}

func (r *CachedRepository) UpdateTranscript(ctx context.Context, id domain.Identifier, transcript string) (domain.Session, error) {
	s, err := r.next.UpdateTranscript(ctx, id, transcript)
	if err != nil {
		return domain.Session{}, err
	}
	r.invalidate(ctx)
	return s, nil
}

func (r *CachedRepository) UpdatePeople(ctx context.Context, id domain.Identifier, people []domain.Person) (domain.Session, error) {
	s, err := r.next.UpdatePeople(ctx, id, people)
	if err != nil {
		return domain.Session{}, err
	}
	r.invalidate(ctx)
	return s, nil
}

func (r *CachedRepository) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// ReplaceAll forwards to the wrapped repository when it is a Seeder.
func (r *CachedRepository) ReplaceAll(ctx context.Context, sessions []domain.Session) (int, error) {
	seeder, ok := r.next.(domain.Seeder)
	if !ok {
		return 0, errors.New("wrapped repository does not support seeding")
	}
	n, err := seeder.ReplaceAll(ctx, sessions)
	if err != nil {
		return 0, err
	}
	r.invalidate(ctx)
	return n, nil
}

func (r *CachedRepository) load(ctx context.Context, op, key string, dst any) bool {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		metrics.RecordCacheLookup(op, false)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		metrics.RecordCacheLookup(op, false)
		return false
	}
	metrics.RecordCacheLookup(op, true)
	return true
}

func (r *CachedRepository) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	if err := r.cache.Set(ctx, key, string(data), r.ttl); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// generation returns the current cache generation. A missing counter is
// generation 0; any other failure disables caching for the call.
func (r *CachedRepository) generation(ctx context.Context) (int64, bool) {
	raw, err := r.cache.Get(ctx, generationKey)
	if errors.Is(err, cache.ErrMiss) {
		return 0, true
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("cache generation read failed")
		return 0, false
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		r.log.Warn().Err(err).Str("value", raw).Msg("cache generation is not an integer")
		return 0, false
	}
	return gen, true
}

func (r *CachedRepository) invalidate(ctx context.Context) {
	if _, err := r.cache.Incr(ctx, generationKey); err != nil {
		r.log.Error().Err(err).Msg("cache generation bump failed")
	}
	if err := r.cache.DeletePattern(ctx, dataPrefix+"*"); err != nil {
		r.log.Error().Err(err).Msg("cache invalidation failed")
	}
}

func listKey(gen int64, p domain.ListParams) string {
	return fmt.Sprintf("%s%d:list:%d:%d:%s", dataPrefix, gen, p.Page, p.Limit, url.QueryEscape(p.Query))
}

func getKey(gen int64, id domain.Identifier) string {
	return fmt.Sprintf("%s%d:get:%s:%s", dataPrefix, gen, id.Kind, url.QueryEscape(id.Raw))
}
