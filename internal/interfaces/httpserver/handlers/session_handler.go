package handlers

import (
	"bytes"
	"context"
	"encoding/json"

	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/metrics"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/responses"
	"github.com/janhq/sessions-api/internal/utils/platformerrors"
)

// TranscriptRequest is the body of PATCH /api/sessions/:id/transcript.
// Any JSON value is accepted; non-string values are stored as their JSON text.
type TranscriptRequest struct {
	Transcript json.RawMessage `json:"transcript" swaggertype:"string"`
}

// Text returns the transcript coerced to a string, or nil when it is
// absent or null.
func (r TranscriptRequest) Text() *string {
	raw := bytes.TrimSpace(r.Transcript)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var text string
	if raw[0] == '"' && json.Unmarshal(raw, &text) == nil {
		return &text
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		text = string(raw)
		return &text
	}
	text = compact.String()
	return &text
}

// PeopleRequest is the body of PATCH /api/sessions/:id/people.
type PeopleRequest struct {
	People []domain.Person `json:"people"`
}

// SessionHandler invokes domain logic for session use cases.
type SessionHandler struct {
	service domain.Service
}

// NewSessionHandler wires dependencies for session routes.
func NewSessionHandler(service domain.Service) *SessionHandler {
	return &SessionHandler{
		service: service,
	}
}

// List returns one page of sessions.
func (h *SessionHandler) List(ctx context.Context, params domain.ListParams) (responses.SessionListResponse, error) {
	page, err := h.service.List(ctx, params)
	if err != nil {
		return responses.SessionListResponse{}, err
	}
	return responses.NewSessionListResponse(page), nil
}

// Get returns the session addressed by rawID.
func (h *SessionHandler) Get(ctx context.Context, rawID string) (domain.Session, error) {
	return h.service.Get(ctx, rawID)
}

// UpdateTranscript overwrites the transcript of the addressed session.
func (h *SessionHandler) UpdateTranscript(ctx context.Context, rawID string, req TranscriptRequest) (domain.Session, error) {
	result, err := h.service.UpdateTranscript(ctx, rawID, req.Text())
	metrics.RecordMutation("transcript", outcome(err))
	return result, err
}

// UpdatePeople replaces the people list of the addressed session.
func (h *SessionHandler) UpdatePeople(ctx context.Context, rawID string, req PeopleRequest) (domain.Session, error) {
	result, err := h.service.UpdatePeople(ctx, rawID, req.People)
	metrics.RecordMutation("people", outcome(err))
	return result, err
}

// Ready checks the backing store.
func (h *SessionHandler) Ready(ctx context.Context) error {
	return h.service.Ready(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound):
		return "not_found"
	default:
		return "error"
	}
}
