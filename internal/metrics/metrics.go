// Package metrics defines the Prometheus collectors for the game server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "memgame"

// Failure kinds reported by the catalog client.
const (
	FailureCatalog = "catalog"
	FailureDetail  = "detail"
	FailureAsset   = "asset"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	sessionsStarted  *prometheus.CounterVec
	sessionsFinished *prometheus.CounterVec
	fetchFailures    *prometheus.CounterVec
	liveSessions     prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Boards dealt, by difficulty.",
		}, []string{"difficulty"}),
		sessionsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Finished sessions, by outcome.",
		}, []string{"outcome"}),
		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_fetch_failures_total",
			Help:      "Recovered catalog client failures, by kind.",
		}, []string{"kind"}),
		liveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_live",
			Help:      "Sessions currently held in memory.",
		}),
	}
}

func (m *Metrics) SessionStarted(difficulty string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(difficulty).Inc()
}

func (m *Metrics) SessionFinished(outcome string) {
	if m == nil {
		return
	}
	m.sessionsFinished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) FetchFailed(kind string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetLiveSessions(n int) {
	if m == nil {
		return
	}
	m.liveSessions.Set(float64(n))
}
