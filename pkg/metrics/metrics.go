// Package metrics exposes Prometheus instruments for practice sessions,
// microphone capture, chat, and gateway calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the client.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	TransitionsTotal *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec

	// Gateway metrics
	GatewayRequestsTotal   *prometheus.CounterVec
	GatewayRequestDuration *prometheus.HistogramVec

	// Capture metrics
	RecordingsActive  prometheus.Gauge
	RecordingsTotal   *prometheus.CounterVec
	RecordingBytes    prometheus.Counter
	RecordingDuration prometheus.Histogram

	// Chat metrics
	ChatMessagesTotal *prometheus.CounterVec
}

// New creates a Metrics instance with all metrics registered on a private
// registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "vai_speak"
	}

	registry := prometheus.NewRegistry()

	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transitions_total",
			Help:      "Practice session state transitions",
		},
		[]string{"from", "to"},
	)

	fallbacksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Locally synthesized values installed after a gateway failure",
		},
		[]string{"kind"},
	)

	gatewayRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Total number of gateway requests",
		},
		[]string{"operation", "status"},
	)

	gatewayRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Gateway request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation"},
	)

	recordingsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recordings_active",
			Help:      "Number of microphone recordings in progress",
		},
	)

	recordingsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recordings_total",
			Help:      "Total number of recording attempts by outcome",
		},
		[]string{"outcome"},
	)

	recordingBytes := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recording_bytes_total",
			Help:      "Total audio bytes captured",
		},
	)

	recordingDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recording_duration_seconds",
			Help:      "Recording duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 60},
		},
	)

	chatMessagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages appended to the log",
		},
		[]string{"role"},
	)

	registry.MustRegister(
		transitionsTotal,
		fallbacksTotal,
		gatewayRequestsTotal,
		gatewayRequestDuration,
		recordingsActive,
		recordingsTotal,
		recordingBytes,
		recordingDuration,
		chatMessagesTotal,
	)

	return &Metrics{
		registry:               registry,
		TransitionsTotal:       transitionsTotal,
		FallbacksTotal:         fallbacksTotal,
		GatewayRequestsTotal:   gatewayRequestsTotal,
		GatewayRequestDuration: gatewayRequestDuration,
		RecordingsActive:       recordingsActive,
		RecordingsTotal:        recordingsTotal,
		RecordingBytes:         recordingBytes,
		RecordingDuration:      recordingDuration,
		ChatMessagesTotal:      chatMessagesTotal,
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// All Record* methods are safe on a nil *Metrics so callers can leave
// metrics unset.

// RecordTransition records a practice session state change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordFallback records a placeholder installed after a failure.
func (m *Metrics) RecordFallback(kind string) {
	if m == nil {
		return
	}
	m.FallbacksTotal.WithLabelValues(kind).Inc()
}

// RecordGatewayRequest records a completed gateway request.
func (m *Metrics) RecordGatewayRequest(operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequestsTotal.WithLabelValues(operation, status).Inc()
	m.GatewayRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordRecordingStart records a recording attempt starting.
func (m *Metrics) RecordRecordingStart() {
	if m == nil {
		return
	}
	m.RecordingsActive.Inc()
}

// RecordRecordingEnd records a recording attempt ending.
func (m *Metrics) RecordRecordingEnd(outcome string, bytes int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RecordingsActive.Dec()
	m.RecordingsTotal.WithLabelValues(outcome).Inc()
	if bytes > 0 {
		m.RecordingBytes.Add(float64(bytes))
	}
	m.RecordingDuration.Observe(duration.Seconds())
}

// RecordChatMessage records a message appended to the chat log.
func (m *Metrics) RecordChatMessage(role string) {
	if m == nil {
		return
	}
	m.ChatMessagesTotal.WithLabelValues(role).Inc()
}
