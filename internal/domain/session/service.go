package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/sessions-api/internal/utils/platformerrors"
)

// NotFoundMessage is the client-visible message for unknown identifiers.
const NotFoundMessage = "Session not found"

const tracerName = "github.com/janhq/sessions-api/internal/domain/session"

// Service describes the business logic surface for session operations.
type Service interface {
	List(ctx context.Context, params ListParams) (Page, error)
	Get(ctx context.Context, rawID string) (Session, error)
	UpdateTranscript(ctx context.Context, rawID string, transcript *string) (Session, error)
	UpdatePeople(ctx context.Context, rawID string, people []Person) (Session, error)
	Ready(ctx context.Context) error
}

type service struct {
	repo   Repository
	log    zerolog.Logger
	tracer trace.Tracer
}

// NewService wires the session service with its repository.
func NewService(repo Repository, log zerolog.Logger) Service {
	return &service{
		repo:   repo,
		log:    log.With().Str("component", "session-service").Logger(),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *service) List(ctx context.Context, params ListParams) (Page, error) {
	ctx, span := s.tracer.Start(ctx, "session.List", trace.WithAttributes(
		attribute.Int("session.page", params.Page),
		attribute.Int("session.limit", params.Limit),
		attribute.Bool("session.search", params.HasQuery()),
	))
	defer span.End()

	sessions, total, err := s.repo.List(ctx, params)
	if err != nil {
		return Page{}, s.fail(span, err, "list sessions")
	}
	if sessions == nil {
		sessions = []Session{}
	}

	span.SetAttributes(attribute.Int64("session.total", total))
	return Page{
		Sessions: sessions,
		Total:    total,
		Page:     params.Page,
		Limit:    params.Limit,
	}, nil
}

func (s *service) Get(ctx context.Context, rawID string) (Session, error) {
	id := ResolveIdentifier(rawID, s.repo)
	ctx, span := s.startForIdentifier(ctx, "session.Get", id)
	defer span.End()

	result, err := s.repo.FindOne(ctx, id)
	if err != nil {
		return Session{}, s.fail(span, err, "find session")
	}
	return result, nil
}

func (s *service) UpdateTranscript(ctx context.Context, rawID string, transcript *string) (Session, error) {
	id := ResolveIdentifier(rawID, s.repo)
	ctx, span := s.startForIdentifier(ctx, "session.UpdateTranscript", id)
	defer span.End()

	text := ""
	if transcript != nil {
		text = *transcript
	}

	result, err := s.repo.UpdateTranscript(ctx, id, text)
	if err != nil {
		return Session{}, s.fail(span, err, "update transcript")
	}

	s.log.Info().
		Str("session_id", result.ID.String()).
		Int64("website_index", result.WebsiteIndex).
		Int("transcript_length", len(text)).
		Msg("transcript updated")
	return result, nil
}

func (s *service) UpdatePeople(ctx context.Context, rawID string, people []Person) (Session, error) {
	id := ResolveIdentifier(rawID, s.repo)
	ctx, span := s.startForIdentifier(ctx, "session.UpdatePeople", id)
	defer span.End()

	result, err := s.repo.UpdatePeople(ctx, id, CopyPeople(people))
	if err != nil {
		return Session{}, s.fail(span, err, "update people")
	}

	s.log.Info().
		Str("session_id", result.ID.String()).
		Int64("website_index", result.WebsiteIndex).
		Int("people", len(result.People)).
		Msg("people updated")
	return result, nil
}

func (s *service) Ready(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return platformerrors.Database(platformerrors.LayerDomain, "store unavailable", err)
	}
	return nil
}

func (s *service) startForIdentifier(ctx context.Context, name string, id Identifier) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("session.identifier", id.Raw),
		attribute.String("session.identifier_kind", id.Kind.String()),
	))
}

// fail converts repository errors into platform errors and records them on the span.
func (s *service) fail(span trace.Span, err error, op string) error {
	if errors.Is(err, ErrNotFound) {
		span.SetStatus(codes.Unset, NotFoundMessage)
		return platformerrors.NotFound(platformerrors.LayerDomain, NotFoundMessage, err)
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, op)
	s.log.Error().Err(err).Str("operation", op).Msg("store operation failed")
	return platformerrors.Database(platformerrors.LayerDomain, op, err)
}
