package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	upstreamCalls    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	realtimeClients  prometheus.Gauge
	notifications    *prometheus.CounterVec
}

// NewMetrics registers collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plantpal_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_http_errors_total",
			Help: "Error responses by route and error code",
		}, []string{"route", "method", "code"}),

		upstreamCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_upstream_calls_total",
			Help: "Calls to external providers by outcome",
		}, []string{"provider", "operation", "outcome"}),

		upstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "plantpal_upstream_call_duration_seconds",
			Help:    "Latency of external provider calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		}, []string{"provider", "operation"}),

		realtimeClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "plantpal_realtime_clients",
			Help: "Currently connected realtime clients",
		}),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "plantpal_notifications_total",
			Help: "Notifications handed to realtime clients by result",
		}, []string{"result"}),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordUpstream tracks one call to an external provider.
func (m *Metrics) RecordUpstream(provider, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamCalls.WithLabelValues(provider, operation, outcome).Inc()
	m.upstreamDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}

// NotificationDelivered counts a frame queued for a client.
func (m *Metrics) NotificationDelivered() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("delivered").Inc()
}

// NotificationDropped counts a frame dropped because the client queue was full.
func (m *Metrics) NotificationDropped() {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues("dropped").Inc()
}
