package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the Prometheus namespace shared by all platform metrics
const Namespace = "printops"

// Metrics contains all platform-level metrics (not component-specific)
type Metrics struct {
	// Event pipeline metrics
	EventsEmitted     *prometheus.CounterVec
	DeliveryErrors    *prometheus.CounterVec
	HealthCheckStatus *prometheus.GaugeVec

	// NATS mirror metrics
	NATSConnected  prometheus.Gauge
	NATSReconnects prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all platform metrics
func NewMetrics() *Metrics {
	return &Metrics{
		EventsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Total number of domain events emitted",
			},
			[]string{"event_type"},
		),

		DeliveryErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "events",
				Name:      "delivery_errors_total",
				Help:      "Total number of per-session delivery failures",
			},
			[]string{"group"},
		),

		HealthCheckStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "health",
				Name:      "check_status",
				Help:      "Component health (0=unhealthy, 1=degraded, 2=healthy)",
			},
			[]string{"component"},
		),

		NATSConnected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "connected",
				Help:      "NATS mirror connection status (0=disconnected, 1=connected)",
			},
		),

		NATSReconnects: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "nats",
				Name:      "reconnects_total",
				Help:      "Total number of NATS reconnections",
			},
		),
	}
}

// collectors returns all core metrics for registration
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.EventsEmitted,
		m.DeliveryErrors,
		m.HealthCheckStatus,
		m.NATSConnected,
		m.NATSReconnects,
	}
}
