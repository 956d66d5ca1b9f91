package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("configured origin is echoed", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://app.example.test"})(okHandler())
		req := httptest.NewRequest(http.MethodPost, "/api/verses/1/enrich", nil)
		req.Header.Set("Origin", "https://app.example.test")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "https://app.example.test", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("unknown origin gets no allow header", func(t *testing.T) {
		handler := CORSMiddleware([]string{"https://app.example.test"})(okHandler())
		req := httptest.NewRequest(http.MethodPost, "/api/verses/1/enrich", nil)
		req.Header.Set("Origin", "https://evil.example.test")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		handler := CORSMiddleware(nil)(okHandler())
		req := httptest.NewRequest(http.MethodOptions, "/api/verses/1/enrich", nil)
		req.Header.Set("Origin", "https://anywhere.example.test")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	})
}

func TestLoggingAndObservabilityPassThroughStatus(t *testing.T) {
	handler := LoggingMiddleware(ObservabilityMiddleware(nil, nil)(okHandler()))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
}
