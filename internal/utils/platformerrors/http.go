package platformerrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorResponse is the error body returned by every endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteError writes err as an HTTP response.
// PlatformErrors map to their status and client message; anything else is a 500
// carrying the error text. Server-side failures are logged.
func WriteError(c *gin.Context, err error, log zerolog.Logger) {
	if err == nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "unknown error"})
		return
	}

	status := http.StatusInternalServerError
	message := err.Error()
	if platformErr := GetPlatformError(err); platformErr != nil {
		status = ErrorTypeToHTTPStatus(platformErr.Type)
		message = platformErr.Message
		if status >= http.StatusInternalServerError && platformErr.Err != nil {
			message = platformErr.Err.Error()
		}
	}

	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.JSON(status, ErrorResponse{Error: message})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: message})
}

// WriteValidationError writes a 400 Bad Request response.
func WriteValidationError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// AbortUnauthorized aborts the chain with a 401 response.
func AbortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: message})
}
