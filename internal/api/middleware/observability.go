package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zatekoja/fellowship/backend/internal/infrastructure/observability"
)

// routeLabel prefers the matched mux pattern over the raw path
func routeLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return r.Method + " " + r.URL.Path
}

// ObservabilityMiddleware adds OpenTelemetry tracing and metrics to HTTP requests.
// route resolves the label used for the span name and metrics.
func ObservabilityMiddleware(metrics *observability.Metrics, route func(*http.Request) string) func(http.Handler) http.Handler {
	if route == nil {
		route = routeLabel
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			label := route(r)

			ctx, span := observability.StartSpan(r.Context(), label)
			defer span.End()

			observability.SetSpanAttributes(span,
				attribute.String("http.method", r.Method),
				attribute.String("http.route", label),
				attribute.String("http.user_agent", r.UserAgent()),
			)

			rw := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(rw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, label, rw.statusCode, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", rw.statusCode))
		})
	}
}
