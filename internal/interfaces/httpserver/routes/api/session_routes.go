package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"

	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/interfaces/httpserver/handlers"
	"github.com/janhq/sessions-api/internal/utils/platformerrors"
	"github.com/janhq/sessions-api/internal/utils/stringutils"
)

// maxBodyBytes bounds PATCH bodies; full talk transcripts are large.
const maxBodyBytes = 16 << 20

func registerSessionRoutes(router gin.IRouter, handler *handlers.SessionHandler, guard gin.HandlerFunc, log zerolog.Logger) {
	sessions := router.Group("/sessions")
	sessions.GET("", listSessions(handler, log))
	sessions.GET("/:id", getSession(handler, log))
	sessions.PATCH("/:id/transcript", guard, updateTranscript(handler, log))
	sessions.PATCH("/:id/people", guard, updatePeople(handler, log))
}

// listParamsFromQuery reads page, limit and q. Numeric values use their
// leading integer; anything unparsable falls back to the default.
func listParamsFromQuery(c *gin.Context) domain.ListParams {
	page, _ := stringutils.ParseLeadingInt(c.Query("page"))
	limit, _ := stringutils.ParseLeadingInt(c.Query("limit"))
	return domain.NewListParams(clampInt(page), clampInt(limit), c.Query("q"))
}

func clampInt(n int64) int {
	const maxInt = int64(^uint32(0) >> 1)
	switch {
	case n > maxInt:
		return int(maxInt)
	case n < 0:
		return 0
	default:
		return int(n)
	}
}

// listSessions godoc
// @Summary      List sessions
// @Description  Paginated listing ordered by website_index with optional case-insensitive search.
// @Tags         sessions
// @Produce      json
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Page size (default 20, max 100)"
// @Param        q      query  string  false  "Substring matched against title, speakers and description"
// @Success      200  {object}  responses.SessionListResponse
// @Failure      500  {object}  platformerrors.ErrorResponse
// @Router       /api/sessions [get]
func listSessions(handler *handlers.SessionHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := handler.List(c.Request.Context(), listParamsFromQuery(c))
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// getSession godoc
// @Summary      Get a session
// @Description  Looks up by native id first, then by website_index.
// @Tags         sessions
// @Produce      json
// @Param        id  path  string  true  "Native id or website_index"
// @Success      200  {object}  session.Session
// @Failure      404  {object}  platformerrors.ErrorResponse
// @Failure      500  {object}  platformerrors.ErrorResponse
// @Router       /api/sessions/{id} [get]
func getSession(handler *handlers.SessionHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := handler.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// updateTranscript godoc
// @Summary      Update a session transcript
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Native id or website_index"
// @Param        body  body  handlers.TranscriptRequest  false "Missing transcript clears it"
// @Success      200  {object}  session.Session
// @Failure      400  {object}  platformerrors.ErrorResponse
// @Failure      404  {object}  platformerrors.ErrorResponse
// @Router       /api/sessions/{id}/transcript [patch]
func updateTranscript(handler *handlers.SessionHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req handlers.TranscriptRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		result, err := handler.UpdateTranscript(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// updatePeople godoc
// @Summary      Replace the people attached to a session
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "Native id or website_index"
// @Param        body  body  handlers.PeopleRequest  false "Missing people clears the list"
// @Success      200  {object}  session.Session
// @Failure      400  {object}  platformerrors.ErrorResponse
// @Failure      404  {object}  platformerrors.ErrorResponse
// @Router       /api/sessions/{id}/people [patch]
func updatePeople(handler *handlers.SessionHandler, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req handlers.PeopleRequest
		if !bindOptionalJSON(c, &req) {
			return
		}
		result, err := handler.UpdatePeople(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			platformerrors.WriteError(c, err, log)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// bindOptionalJSON decodes the request body into dst. An empty body leaves dst
// zero-valued. It writes a 400 and returns false for malformed JSON.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, platformerrors.ErrorResponse{Error: "request body too large"})
			return false
		}
		platformerrors.WriteValidationError(c, "unable to read request body")
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := binding.JSON.BindBody(body, dst); err != nil {
		platformerrors.WriteValidationError(c, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
