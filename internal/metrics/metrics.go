// Package metrics exposes the server's Prometheus instrumentation
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "m3duel"

// Metrics holds every collector the server updates
type Metrics struct {
	registry *prometheus.Registry

	TotalConnections  prometheus.Counter
	LoginsTotal       *prometheus.CounterVec
	MessagesProcessed *prometheus.CounterVec
	MessagesDropped   prometheus.Counter
	RoundsStarted     prometheus.Counter
	RoundsFinished    *prometheus.CounterVec
	SessionsEnded     *prometheus.CounterVec
}

// Sources report live sizes sampled at scrape time
type Sources struct {
	ConnectedPlayers func() int
	QueuedPlayers    func() int
	ActiveSessions   func() int
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TotalConnections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Websocket connections accepted.",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login handshakes by result.",
		}, []string{"result"}),
		MessagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_processed_total",
			Help:      "Client messages dispatched by type.",
		}, []string{"type"}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_dropped_total",
			Help:      "Client frames that could not be decoded.",
		}),
		RoundsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_started_total",
			Help:      "Rounds started, including rematches.",
		}),
		RoundsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_finished_total",
			Help:      "Rounds played to the end by result.",
		}, []string{"result"}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions terminated by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.TotalConnections,
		m.LoginsTotal,
		m.MessagesProcessed,
		m.MessagesDropped,
		m.RoundsStarted,
		m.RoundsFinished,
		m.SessionsEnded,
		collectors.NewGoCollector(),
	)
	return m
}

// Observe registers gauges that sample src on every scrape
func (m *Metrics) Observe(src Sources) {
	gauge := func(name, help string, f func() int) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(f()) })
	}
	m.registry.MustRegister(
		gauge("connected_players", "Authenticated connections.", src.ConnectedPlayers),
		gauge("queued_players", "Players waiting for an opponent.", src.QueuedPlayers),
		gauge("active_sessions", "Sessions with a round in progress.", src.ActiveSessions),
	)
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RoundStarted, RoundFinished and SessionEnded let Metrics observe sessions

func (m *Metrics) RoundStarted() {
	m.RoundsStarted.Inc()
}

func (m *Metrics) RoundFinished(tie bool) {
	result := "decisive"
	if tie {
		result = "tie"
	}
	m.RoundsFinished.WithLabelValues(result).Inc()
}

func (m *Metrics) SessionEnded(reason string) {
	m.SessionsEnded.WithLabelValues(reason).Inc()
}

// LoginAccepted and LoginRejected count handshake outcomes

func (m *Metrics) LoginAccepted() {
	m.LoginsTotal.WithLabelValues("accepted").Inc()
}

func (m *Metrics) LoginRejected() {
	m.LoginsTotal.WithLabelValues("rejected").Inc()
}
