package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/sessions-api/internal/config"
	domain "github.com/janhq/sessions-api/internal/domain/session"
	"github.com/janhq/sessions-api/internal/infrastructure/auth"
	sessionrepo "github.com/janhq/sessions-api/internal/infrastructure/repository/session"
)

type listBody struct {
	Sessions []map[string]any `json:"sessions"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

func testConfig() *config.Config {
	return &config.Config{
		ServiceName:        "sessions-api",
		Environment:        "test",
		StoreBackend:       config.BackendMemory,
		CORSAllowedOrigins: []string{"*"},
		MetricsEnabled:     true,
	}
}

func scenarioSessions() []domain.Session {
	return []domain.Session{
		{WebsiteIndex: 1, Title: "Keynote", Speakers: "Asha Rao"},
		{WebsiteIndex: 2, Title: "Panel A", Speakers: "Meera N"},
		{WebsiteIndex: 3, Title: "Panel B", Speakers: "Ravi Kumar", Transcript: "notes"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, repo domain.Repository, validator *auth.Validator) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := domain.NewService(repo, zerolog.Nop())
	return New(cfg, zerolog.Nop(), svc, validator).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestListSearchScenario(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodGet, "/api/sessions?q=panel&limit=10&page=1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[listBody](t, w)
	assert.Equal(t, int64(2), body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 10, body.Limit)
	require.Len(t, body.Sessions, 2)
	assert.Equal(t, "Panel A", body.Sessions[0]["title"])
	assert.Equal(t, "Panel B", body.Sessions[1]["title"])
}

func TestListDefaultsAndClamps(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	tests := []struct {
		query string
		page  int
		limit int
		count int
	}{
		{query: "", page: 1, limit: 20, count: 3},
		{query: "?page=0&limit=0", page: 1, limit: 20, count: 3},
		{query: "?page=abc&limit=-3", page: 1, limit: 20, count: 3},
		{query: "?limit=1000", page: 1, limit: 100, count: 3},
		{query: "?page=2&limit=2", page: 2, limit: 2, count: 1},
		{query: "?page=2x&limit=2.5", page: 2, limit: 2, count: 1},
		{query: "?page=9", page: 9, limit: 20, count: 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := do(t, h, http.MethodGet, "/api/sessions"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)
			body := decode[listBody](t, w)
			assert.Equal(t, tt.page, body.Page)
			assert.Equal(t, tt.limit, body.Limit)
			assert.Equal(t, int64(3), body.Total)
			assert.NotNil(t, body.Sessions)
			assert.Len(t, body.Sessions, tt.count)
		})
	}
}

func TestListAbsentTermReturnsEmptyArray(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodGet, "/api/sessions?q=quantum", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[],"total":0,"page":1,"limit":20}`, w.Body.String())
}

func TestGetSession(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodGet, "/api/sessions/2", "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, float64(2), got["_id"])
	assert.Equal(t, "Panel A", got["title"])
	assert.Equal(t, "", got["transcript"])
	assert.Equal(t, []any{}, got["people"])

	w = do(t, h, http.MethodGet, "/api/sessions/3rd-session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Panel B", decode[map[string]any](t, w)["title"])
}

func TestGetSessionNotFound(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	for _, id := range []string{"99", "nope", "42abc"} {
		w := do(t, h, http.MethodGet, "/api/sessions/"+id, "")
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.JSONEq(t, `{"error":"Session not found"}`, w.Body.String())
	}
}

func TestUpdateTranscript(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodPatch, "/api/sessions/1/transcript", `{"transcript":"hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", decode[map[string]any](t, w)["transcript"])

	w = do(t, h, http.MethodGet, "/api/sessions/1", "")
	assert.Equal(t, "hello", decode[map[string]any](t, w)["transcript"])

	for _, body := range []string{`{}`, `{"transcript":null}`, ""} {
		w = do(t, h, http.MethodPatch, "/api/sessions/1/transcript", body)
		require.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, "", decode[map[string]any](t, w)["transcript"], body)
	}
}

func TestUpdateTranscriptErrors(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodPatch, "/api/sessions/77/transcript", `{"transcript":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Session not found"}`, w.Body.String())

	w = do(t, h, http.MethodPatch, "/api/sessions/1/transcript", `{"transcript":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error"`)
}

func TestUpdateTranscriptCoercesToString(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	tests := []struct {
		body string
		want string
	}{
		{`{"transcript":42}`, "42"},
		{`{"transcript":true}`, "true"},
		{`{"transcript":1.5}`, "1.5"},
		{`{"transcript":"plain"}`, "plain"},
	}
	for _, tt := range tests {
		w := do(t, h, http.MethodPatch, "/api/sessions/1/transcript", tt.body)
		require.Equal(t, http.StatusOK, w.Code, tt.body)
		assert.Equal(t, tt.want, decode[map[string]any](t, w)["transcript"], tt.body)

		w = do(t, h, http.MethodGet, "/api/sessions/1", "")
		assert.Equal(t, tt.want, decode[map[string]any](t, w)["transcript"], tt.body)
	}
}

func TestUpdatePeople(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), nil)

	w := do(t, h, http.MethodPatch, "/api/sessions/3/people",
		`{"people":[{"name":"Ana","linkedin_url":"https://linkedin.com/in/ana"}]}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, []any{map[string]any{"name": "Ana", "linkedin_url": "https://linkedin.com/in/ana"}}, got["people"])
	assert.Equal(t, "notes", got["transcript"])

	w = do(t, h, http.MethodPatch, "/api/sessions/3/people", `{"people":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["people"])

	w = do(t, h, http.MethodPatch, "/api/sessions/missing/people", `{"people":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type failingRepository struct {
	*sessionrepo.InMemoryRepository
}

func (failingRepository) List(context.Context, domain.ListParams) ([]domain.Session, int64, error) {
	return nil, 0, errors.New("connection refused")
}

func (failingRepository) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestStoreFailureReturns500WithMessage(t *testing.T) {
	repo := failingRepository{sessionrepo.NewInMemoryRepository()}
	h := newTestServer(t, testConfig(), repo, nil)

	w := do(t, h, http.MethodGet, "/api/sessions", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"connection refused"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProbesAndMetrics(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(), nil)

	w := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/", "")
	assert.JSONEq(t, `{"service":"sessions-api","status":"ok","backend":"memory"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "indiaai_sessions_api_requests_total")
}

func TestUnknownAPIPathIsJSON404(t *testing.T) {
	cfg := testConfig()
	cfg.StaticDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "index.html"), []byte("<html>app</html>"), 0o644))
	h := newTestServer(t, cfg, sessionrepo.NewInMemoryRepository(), nil)

	w := do(t, h, http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}

func TestStaticSPAFallback(t *testing.T) {
	cfg := testConfig()
	cfg.StaticDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "index.html"), []byte("<html>app</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.StaticDir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	h := newTestServer(t, cfg, sessionrepo.NewInMemoryRepository(), nil)

	w := do(t, h, http.MethodGet, "/assets/app.js", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = do(t, h, http.MethodGet, "/sessions/12", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = do(t, h, http.MethodGet, "/../../etc/passwd", "")
	assert.NotContains(t, w.Body.String(), "root:")
}

func TestStaticFileStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("x"), 0o644))

	file, ok := staticFile(root, "/app.js")
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(root, "app.js"), file)

	_, ok = staticFile(root, "/../app.js")
	assert.True(t, ok)
	_, ok = staticFile(root, "/../../etc/passwd")
	assert.False(t, ok)
	_, ok = staticFile(root, "/")
	assert.False(t, ok)
}

func TestNoStaticDirReturns404(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(), nil)
	w := do(t, h, http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWriteRoutesRequireTokenWhenAuthEnabled(t *testing.T) {
	validator := auth.NewValidatorWithKeyfunc("issuer", "", nil, zerolog.Nop())
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(scenarioSessions()...), validator)

	w := do(t, h, http.MethodPatch, "/api/sessions/1/transcript", `{"transcript":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, h, http.MethodGet, "/api/sessions/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decode[map[string]any](t, w)["transcript"])
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, testConfig(), sessionrepo.NewInMemoryRepository(), nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions/1/transcript", nil)
	req.Header.Set("Origin", "https://sessions.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
