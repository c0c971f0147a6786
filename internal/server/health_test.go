package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthChecker_Endpoints(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		ready    bool
		wantCode int
	}{
		{"liveness ready", "/healthz", true, http.StatusOK},
		{"liveness not ready", "/healthz", false, http.StatusOK},
		{"readiness ready", "/readyz", true, http.StatusOK},
		{"readiness not ready", "/readyz", false, http.StatusServiceUnavailable},
		{"detailed ready", "/healthz/detailed", true, http.StatusOK},
		{"detailed not ready", "/healthz/detailed", false, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			h.SetReady(tt.ready)

			mux := http.NewServeMux()
			h.RegisterHealthEndpoints(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestHealthChecker_ObserveRun(t *testing.T) {
	h := NewHealthChecker()
	h.ObserveRun(3, 1)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	var resp DetailedHealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, healthStatusOK, resp.Status)
	assert.Equal(t, 3, resp.EmailsProcessed)
	assert.Equal(t, 1, resp.PendingReplies)
	assert.NotEmpty(t, resp.LastProgress)
}
