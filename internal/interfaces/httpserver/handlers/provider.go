package handlers

import (
	domain "github.com/janhq/sessions-api/internal/domain/session"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Session *SessionHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(sessionService domain.Service) *Provider {
	return &Provider{
		Session: NewSessionHandler(sessionService),
	}
}
