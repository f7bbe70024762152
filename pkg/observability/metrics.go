package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the client. All methods are safe on
// a nil receiver so components can run without metrics.
type Metrics struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// Remote sync metrics
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec

	// Interaction metrics
	Gestures     *prometheus.CounterVec
	AutoConnects *prometheus.CounterVec
	Reloads      *prometheus.CounterVec
	GraphNodes   prometheus.Gauge

	// Simulation metrics
	Ticks prometheus.Counter
	Alpha prometheus.Gauge
}

// NewMetrics creates a collector with its own registry
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RemoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_requests_total",
				Help:      "Total number of requests sent to the graph service",
			},
			[]string{"operation", "status"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_request_duration_seconds",
				Help:      "Graph service request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Gestures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gestures_total",
				Help:      "Total number of handled gestures",
			},
			[]string{"type", "status"},
		),
		AutoConnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auto_connects_total",
				Help:      "Drag-end proximity checks by outcome",
			},
			[]string{"outcome"},
		),
		Reloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reloads_total",
				Help:      "Total number of snapshot reloads",
			},
			[]string{"status"},
		),
		GraphNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_nodes",
				Help:      "Number of notes in the last loaded snapshot",
			},
		),
		Ticks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_ticks_total",
				Help:      "Total number of simulation ticks",
			},
		),
		Alpha: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "simulation_alpha",
				Help:      "Current simulation alpha",
			},
		),
	}

	registry.MustRegister(
		m.RemoteRequests,
		m.RemoteDuration,
		m.Gestures,
		m.AutoConnects,
		m.Reloads,
		m.GraphNodes,
		m.Ticks,
		m.Alpha,
	)
	return m
}

// Registry returns the Prometheus registry for this collector
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRemoteCall records one request to the graph service. status is the
// HTTP status, or 0 when no response arrived.
func (m *Metrics) RecordRemoteCall(operation string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.RemoteRequests.WithLabelValues(operation, label).Inc()
	m.RemoteDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordGesture records a handled gesture
func (m *Metrics) RecordGesture(kind string, err error) {
	if m == nil {
		return
	}
	m.Gestures.WithLabelValues(kind, statusOf(err)).Inc()
}

// RecordAutoConnect records the outcome of a drag-end proximity check
func (m *Metrics) RecordAutoConnect(outcome string) {
	if m == nil {
		return
	}
	m.AutoConnects.WithLabelValues(outcome).Inc()
}

// RecordReload records a snapshot reload
func (m *Metrics) RecordReload(err error, nodes int) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(statusOf(err)).Inc()
	if err == nil {
		m.GraphNodes.Set(float64(nodes))
	}
}

// RecordTick records one simulation step
func (m *Metrics) RecordTick(alpha float64) {
	if m == nil {
		return
	}
	m.Ticks.Inc()
	m.Alpha.Set(alpha)
}

func statusOf(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
