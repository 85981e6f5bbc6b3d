// Package metrics registers the relay's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainchat-dev/chainchat-server/internal/core"
)

// Metrics holds the collectors the relay updates directly. Hub-level
// counters are read through collector functions so core stays free of
// metrics imports.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	effectsTotal    *prometheus.CounterVec
}

// New builds a registry with all relay collectors registered.
func New(hub *core.Hub) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		effectsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "relay_effects_total", Help: "Side effect outcomes"},
			[]string{"effect", "outcome"},
		),
	}

	messagesPublished := prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: "relay_messages_published_total", Help: "Messages accepted and broadcast"},
		func() float64 { return float64(hub.Published()) },
	)
	messagesDropped := prometheus.NewCounterFunc(
		prometheus.CounterOpts{Name: "relay_messages_dropped_total", Help: "Messages evicted from slow subscriber queues"},
		func() float64 { return float64(hub.Dropped()) },
	)
	subscribers := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "relay_subscribers", Help: "Active stream subscriptions"},
		func() float64 { return float64(hub.Subscribers()) },
	)

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.effectsTotal,
		messagesPublished,
		messagesDropped,
		subscribers,
	)
	return m
}

// RecordEffect implements relay.EffectRecorder.
func (m *Metrics) RecordEffect(effect string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.effectsTotal.WithLabelValues(effect, outcome).Inc()
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
