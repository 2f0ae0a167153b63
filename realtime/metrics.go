package realtime

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AmrendraTheCoder/go-backend-sub000/metric"
)

// Metrics holds Prometheus metrics for the Gateway
type Metrics struct {
	sessionsConnected   prometheus.Gauge
	connectionsTotal    prometheus.Counter
	disconnectionsTotal *prometheus.CounterVec
	authFailuresTotal   prometheus.Counter
	messagesSent        *prometheus.CounterVec
	deliveryErrors      *prometheus.CounterVec
	broadcastDuration   *prometheus.HistogramVec
	controlFrames       *prometheus.CounterVec
}

// newMetrics creates and registers Gateway metrics
func newMetrics(registry *metric.Registry) *Metrics {
	// Return nil if no registry provided (nil input = nil feature pattern)
	if registry == nil {
		return nil
	}

	m := &Metrics{
		sessionsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "sessions_connected",
			Help:      "Number of currently connected sessions",
		}),

		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "connections_total",
			Help:      "Total accepted connections (including disconnected)",
		}),

		disconnectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "disconnections_total",
			Help:      "Total session disconnections",
		}, []string{"reason"}),

		authFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "auth_failures_total",
			Help:      "Total handshake rejections for missing or invalid tokens",
		}),

		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "messages_sent_total",
			Help:      "Total envelopes delivered to sessions",
		}, []string{"group"}),

		deliveryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "delivery_errors_total",
			Help:      "Per-session delivery failures during publish",
		}, []string{"group"}),

		broadcastDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "broadcast_duration_seconds",
			Help:      "Time to fan an envelope out to all members of a group",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"group"}),

		controlFrames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metric.Namespace,
			Subsystem: "gateway",
			Name:      "control_frames_total",
			Help:      "Control frames received from clients",
		}, []string{"type"}),
	}

	registry.PrometheusRegistry().MustRegister(
		m.sessionsConnected,
		m.connectionsTotal,
		m.disconnectionsTotal,
		m.authFailuresTotal,
		m.messagesSent,
		m.deliveryErrors,
		m.broadcastDuration,
		m.controlFrames,
	)

	return m
}
