package responses

import (
	domain "github.com/janhq/sessions-api/internal/domain/session"
)

// SessionListResponse is the body of GET /api/sessions.
type SessionListResponse struct {
	Sessions []domain.Session `json:"sessions"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// NewSessionListResponse converts a domain page. Sessions is never null.
func NewSessionListResponse(page domain.Page) SessionListResponse {
	sessions := page.Sessions
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return SessionListResponse{
		Sessions: sessions,
		Total:    page.Total,
		Page:     page.Page,
		Limit:    page.Limit,
	}
}

// StatusResponse is returned by the service and probe endpoints.
type StatusResponse struct {
	Service string `json:"service,omitempty"`
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Error   string `json:"error,omitempty"`
}
