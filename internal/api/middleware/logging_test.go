package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trafficpulse/trafficpulse/internal/api/middleware"
)

func captureLog(t *testing.T, status int, body string, method, path string) map[string]interface{} {
	t.Helper()

	var buf bytes.Buffer
	log := zerolog.New(&buf)

	handler := middleware.RequestID(middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, http.NoBody))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output: %s", buf.String())
	return entry
}

func TestLogger_RecordsRequestFields(t *testing.T) {
	entry := captureLog(t, http.StatusOK, `{"count":0}`, http.MethodGet, "/v1/traffic/conditions")

	assert.Equal(t, "request completed", entry["message"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/v1/traffic/conditions", entry["path"])
	assert.Equal(t, float64(http.StatusOK), entry["status"])
	assert.Equal(t, float64(len(`{"count":0}`)), entry["bytes"])
	assert.NotEmpty(t, entry["request_id"])
	assert.Contains(t, entry, "duration")
}

func TestLogger_RecordsErrorStatus(t *testing.T) {
	entry := captureLog(t, http.StatusInternalServerError, "", http.MethodPost, "/v1/sync")

	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
	assert.Equal(t, "/v1/sync", entry["path"])
}

func TestLogger_DefaultStatusIs200(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	// Handler writes a body without calling WriteHeader.
	handler := middleware.Logger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/alerts", http.NoBody))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(http.StatusOK), entry["status"])
}

func TestLogger_OmitsTraceFieldsWithoutSpan(t *testing.T) {
	entry := captureLog(t, http.StatusOK, "", http.MethodGet, "/v1/alerts")

	// No tracing middleware ran, so no trace correlation fields.
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}
