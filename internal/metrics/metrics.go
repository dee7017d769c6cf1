// Package metrics exposes Prometheus instrumentation for ColdScale.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for ColdScale.
type Metrics struct {
	// Send pipeline
	EmailsSentTotal     prometheus.Counter
	EmailsFailedTotal   prometheus.Counter
	SendDurationSeconds prometheus.Histogram
	QueuePending        prometheus.Gauge
	QueueDrainsTotal    prometheus.Counter

	// Tracking events
	TrackingEventsTotal *prometheus.CounterVec

	// AI generation
	GenerationsTotal       *prometheus.CounterVec
	GenerationDurationSecs prometheus.Histogram

	// HTTP API
	APIRequestsTotal          *prometheus.CounterVec
	APIRequestDurationSeconds *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all metrics registered on a
// private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		EmailsSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coldscale_emails_sent_total",
			Help: "Total number of successfully sent campaign emails",
		}),
		EmailsFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coldscale_emails_failed_total",
			Help: "Total number of failed campaign emails",
		}),
		SendDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coldscale_send_duration_seconds",
			Help:    "Time spent sending a single email",
			Buckets: prometheus.DefBuckets,
		}),
		QueuePending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coldscale_queue_pending",
			Help: "Number of emails waiting in the send queue",
		}),
		QueueDrainsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coldscale_queue_drains_total",
			Help: "Total number of queue drain runs",
		}),
		TrackingEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coldscale_tracking_events_total",
			Help: "Total tracking events received",
		}, []string{"event"}),
		GenerationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coldscale_generations_total",
			Help: "Total AI copy generation requests",
		}, []string{"outcome"}),
		GenerationDurationSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coldscale_generation_duration_seconds",
			Help:    "Upstream AI generation latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
		APIRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coldscale_api_requests_total",
			Help: "Total API requests",
		}, []string{"method", "path", "status"}),
		APIRequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "coldscale_api_request_duration_seconds",
			Help:    "API request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		registry: reg,
	}

	reg.MustRegister(
		m.EmailsSentTotal,
		m.EmailsFailedTotal,
		m.SendDurationSeconds,
		m.QueuePending,
		m.QueueDrainsTotal,
		m.TrackingEventsTotal,
		m.GenerationsTotal,
		m.GenerationDurationSecs,
		m.APIRequestsTotal,
		m.APIRequestDurationSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveAPIRequest records one served HTTP request.
func (m *Metrics) ObserveAPIRequest(method, path, status string, elapsed time.Duration) {
	m.APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.APIRequestDurationSeconds.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
