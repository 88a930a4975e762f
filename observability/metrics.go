// Package observability exposes the prometheus collectors of the gateway
// and the delivery router.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "devconnect"

const (
	DeliveryDelivered = "delivered"
	DeliveryFailed    = "failed"
)

// Metrics owns its registry so several instances can live in the same
// process, which tests rely on.
type Metrics struct {
	registry             *prometheus.Registry
	MessagesRouted       prometheus.Counter
	Deliveries           *prometheus.CounterVec
	NotificationsCreated prometheus.Counter
	NotificationsDropped prometheus.Counter
	InboundRejected      *prometheus.CounterVec
	Rooms                prometheus.Gauge
	Connections          prometheus.Gauge
	ProcessCPU           prometheus.Gauge
	ProcessMemory        prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MessagesRouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_routed_total",
			Help:      "Messages persisted and fanned out.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Pushes to live connections by result.",
		}, []string{"result"}),
		NotificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_created_total",
			Help:      "Notifications persisted.",
		}),
		NotificationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifier_dropped_total",
			Help:      "Sent messages not handed to the notifier because its queue was full.",
		}),
		InboundRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_rejected_total",
			Help:      "Socket events rejected by the gateway, by error code.",
		}, []string{"code"}),
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms with at least one live connection.",
		}),
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Live connections that joined at least one room.",
		}),
		ProcessCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_cpu_percent",
			Help:      "CPU usage of the server process.",
		}),
		ProcessMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "process_memory_percent",
			Help:      "Share of the host memory used by the server process.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.MessagesRouted,
		m.Deliveries,
		m.NotificationsCreated,
		m.NotificationsDropped,
		m.InboundRejected,
		m.Rooms,
		m.Connections,
		m.ProcessCPU,
		m.ProcessMemory,
	)
	return m
}

func (m *Metrics) Delivered() {
	m.Deliveries.WithLabelValues(DeliveryDelivered).Inc()
}

func (m *Metrics) DeliveryFailed() {
	m.Deliveries.WithLabelValues(DeliveryFailed).Inc()
}

func (m *Metrics) Rejected(code string) {
	m.InboundRejected.WithLabelValues(code).Inc()
}

func (m *Metrics) SetRegistryStats(rooms, connections int) {
	m.Rooms.Set(float64(rooms))
	m.Connections.Set(float64(connections))
}

func (m *Metrics) SetProcessUsage(cpu, memory float64) {
	m.ProcessCPU.Set(cpu)
	m.ProcessMemory.Set(memory)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
