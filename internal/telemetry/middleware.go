package telemetry

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMiddleware wraps the otelhttp handler with chi route pattern
func OTelMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return fmt.Sprintf("%s %s", r.Method, routePattern(r))
			}),
		)
	}
}

// MetricsMiddleware records RED metrics to the OTLP meter and, when prom is
// non-nil, to the Prometheus registry. Either side may be nil.
func MetricsMiddleware(metrics *Metrics, prom *Prom) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			if prom != nil {
				prom.HTTPInFlight.Inc()
				defer prom.HTTPInFlight.Dec()
			}

			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			// resolved after routing so the pattern is populated
			route := routePattern(r)

			if metrics != nil {
				attrs := metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("route", route),
					attribute.Int("status", ww.statusCode),
				)
				metrics.RequestsTotal.Add(r.Context(), 1, attrs)
				metrics.RequestDuration.Record(r.Context(), duration, attrs)
			}
			if prom != nil {
				status := strconv.Itoa(ww.statusCode)
				prom.HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
				prom.HTTPDuration.WithLabelValues(r.Method, route, status).Observe(duration)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return "unmatched"
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
