package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/sessions-api/internal/interfaces/httpserver/handlers"
)

// Routes encapsulates registration of the /api surface.
type Routes struct {
	handlers *handlers.Provider
	guard    gin.HandlerFunc
	log      zerolog.Logger
}

// NewRoutes builds the /api route registrar. guard runs before every write
// route; nil means writes are open.
func NewRoutes(handlerProvider *handlers.Provider, guard gin.HandlerFunc, log zerolog.Logger) *Routes {
	if guard == nil {
		guard = func(c *gin.Context) { c.Next() }
	}
	return &Routes{
		handlers: handlerProvider,
		guard:    guard,
		log:      log,
	}
}

// Register attaches all routes under the /api prefix.
func (r *Routes) Register(engine *gin.Engine) {
	group := engine.Group("/api")
	registerSessionRoutes(group, r.handlers.Session, r.guard, r.log)
}
