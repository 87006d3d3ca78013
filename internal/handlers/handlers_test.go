package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	levels []string
}

func (c *captureLogger) Info(string, ...interface{})  { c.levels = append(c.levels, "info") }
func (c *captureLogger) Error(string, ...interface{}) { c.levels = append(c.levels, "error") }
func (c *captureLogger) Debug(string, ...interface{}) { c.levels = append(c.levels, "debug") }
func (c *captureLogger) Warn(string, ...interface{})  { c.levels = append(c.levels, "warn") }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAPIHealth(t *testing.T) {
	fixed := func() time.Time { return time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) }
	rec := httptest.NewRecorder()
	APIHealth(fixed)(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "healthy", "service": "neu-scheduler", "timestamp": "2025-09-01T12:00:00Z"}, body)
}

func TestLogFrontendEvent(t *testing.T) {
	logger := &captureLogger{}
	h := NewLogHandler(logger)

	for _, level := range []string{"error", "WARN", "debug", "trace"} {
		rec := httptest.NewRecorder()
		body := `{"level": "` + level + `", "message": "button exploded", "context": {"page": "/plan"}}`
		h.LogFrontendEvent(rec, httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(body)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
	assert.Equal(t, []string{"error", "warn", "debug", "info"}, logger.levels)

	rec := httptest.NewRecorder()
	h.LogFrontendEvent(rec, httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(`{"level": "info"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.LogFrontendEvent(rec, httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type pingResolver struct{}

func (pingResolver) Ping() string { return "pong" }

func TestGraphQLHandler(t *testing.T) {
	schema := graphql.MustParseSchema(`type Query { ping: String! }`, &pingResolver{})

	rec := httptest.NewRecorder()
	NewGraphQLHandler(schema, false).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query": "{ ping }"}`)))
	assert.JSONEq(t, `{"data": {"ping": "pong"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	NewGraphQLHandler(schema, false).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	NewGraphQLHandler(schema, true).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graphiql")
}
