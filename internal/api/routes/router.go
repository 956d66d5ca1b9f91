package routes

import (
	"net/http"

	"github.com/zatekoja/fellowship/backend/internal/api/handlers"
	"github.com/zatekoja/fellowship/backend/internal/api/middleware"
	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	verseHandler   *handlers.VerseHandler
	metrics        *observability.Metrics
	allowedOrigins []string
}

// NewRouter creates a new router
func NewRouter(verseHandler *handlers.VerseHandler, metrics *observability.Metrics, allowedOrigins []string) *Router {
	return &Router{
		mux:            http.NewServeMux(),
		verseHandler:   verseHandler,
		metrics:        metrics,
		allowedOrigins: allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Verse endpoints
	r.mux.HandleFunc("POST /api/verses/{id}/enrich", r.verseHandler.EnrichVerse)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics, r.routePattern)(handler)

	// CORS wraps everything so preflight never reaches the mux
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}

// routePattern labels a request with the mux pattern it will be served by
// so per-verse paths share one metric series.
func (r *Router) routePattern(req *http.Request) string {
	if _, pattern := r.mux.Handler(req); pattern != "" {
		return pattern
	}
	return req.Method + " unmatched"
}
