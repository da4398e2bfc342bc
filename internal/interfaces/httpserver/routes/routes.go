package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/interfaces/httpserver/handlers"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/routes/api"
)

// Provider aggregates every route registrar.
type Provider struct {
	api *api.Routes
}

// NewProvider builds the registrars from the handler provider.
func NewProvider(handlerProvider *handlers.Provider, writeGuard gin.HandlerFunc, log zerolog.Logger) *Provider {
	return &Provider{
		api: api.NewRoutes(handlerProvider, writeGuard, log),
	}
}

// Register attaches all routes to the engine.
func (p *Provider) Register(engine *gin.Engine) {
	p.api.Register(engine)
}
