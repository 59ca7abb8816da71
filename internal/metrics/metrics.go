// Package metrics exposes room and connection counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "baghchal"

// Lifecycle event labels.
const (
	EventCreated = "created"
	EventJoined  = "joined"
	EventLeft    = "left"
	EventDeleted = "deleted"
	EventExpired = "expired"
	EventMove    = "move"
)

// Metrics is safe to use as a nil pointer; every recorder is then a no-op.
type Metrics struct {
	rooms       prometheus.Gauge
	connections prometheus.Gauge
	lifecycle   *prometheus.CounterVec
	dropped     prometheus.Counter
	gatherer    prometheus.Gatherer
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWith(reg, reg)
}

func NewWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Rooms currently held in memory.",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open WebSocket connections.",
		}),
		lifecycle: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "room_events_total",
			Help:      "Room lifecycle events by kind.",
		}, []string{"event"}),
		dropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_notifications_total",
			Help:      "Push notifications that could not be queued.",
		}),
		gatherer: g,
	}
}

func (m *Metrics) Event(event string) {
	if m == nil {
		return
	}
	m.lifecycle.WithLabelValues(event).Inc()
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

func (m *Metrics) Dropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.dropped.Add(float64(n))
}

// Handler serves the exposition format for this Metrics' registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
