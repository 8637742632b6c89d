package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Prom is the scrape-side registry served on /metrics. Each instance owns
// its own registry so routers can be built repeatedly in tests.
type Prom struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
	AuditRecords        *prometheus.CounterVec
	RateLimitRejections prometheus.Counter
	UploadedBytes       prometheus.Counter

	otlp *Metrics
}

// NewProm creates a registry with Go runtime and process collectors.
func NewProm() *Prom {
	reg := prometheus.NewRegistry()
	p := &Prom{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "casewise_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "casewise_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		HTTPInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "casewise_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		AuditRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "casewise_audit_records_total",
			Help: "Audit entries processed, by result.",
		}, []string{"result"}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casewise_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		UploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "casewise_document_uploaded_bytes_total",
			Help: "Bytes written to blob storage by document uploads.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.HTTPRequests,
		p.HTTPDuration,
		p.HTTPInFlight,
		p.AuditRecords,
		p.RateLimitRejections,
		p.UploadedBytes,
	)
	return p
}

// WithOTLP mirrors audit outcomes to the OTLP instruments in m.
func (p *Prom) WithOTLP(m *Metrics) *Prom {
	p.otlp = m
	return p
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (p *Prom) Registry() *prometheus.Registry {
	return p.registry
}

// ObserveAudit counts an audit write outcome ("ok", "error", "panic").
func (p *Prom) ObserveAudit(result string) {
	if p == nil {
		return
	}
	p.AuditRecords.WithLabelValues(result).Inc()
	if p.otlp != nil {
		p.otlp.AuditRecords.Add(context.Background(), 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

// ObserveRateLimitRejection counts a 429.
func (p *Prom) ObserveRateLimitRejection() {
	if p == nil {
		return
	}
	p.RateLimitRejections.Inc()
}

// ObserveUpload counts bytes written by an upload.
func (p *Prom) ObserveUpload(n int64) {
	if p == nil {
		return
	}
	p.UploadedBytes.Add(float64(n))
}
