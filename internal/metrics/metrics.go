// Package metrics exposes gateway counters to prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	calls            *prometheus.CounterVec
	invocation       *prometheus.HistogramVec
	openSessions     prometheus.Gauge
	acquiredSessions prometheus.Counter
	releasedSessions prometheus.Counter
}

// New registers the gateway metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		calls: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_gateway_calls_total",
				Help: "Banking operations handled, by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		invocation: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_gateway_invocation_seconds",
				Help:    "Latency of ledger invocations, by mode (evaluate or submit)",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode"},
		),
		openSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_gateway_open_sessions",
				Help: "Ledger sessions acquired and not yet released",
			},
		),
		acquiredSessions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_gateway_sessions_acquired_total",
				Help: "Ledger sessions acquired",
			},
		),
		releasedSessions: f.NewCounter(
			prometheus.CounterOpts{
				Name: "ledger_gateway_sessions_released_total",
				Help: "Ledger sessions released",
			},
		),
	}
}

func (m *Metrics) ObserveCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveInvocation(mode string, d time.Duration) {
	if m == nil {
		return
	}
	m.invocation.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) SessionAcquired() {
	if m == nil {
		return
	}
	m.acquiredSessions.Inc()
	m.openSessions.Inc()
}

func (m *Metrics) SessionReleased() {
	if m == nil {
		return
	}
	m.releasedSessions.Inc()
	m.openSessions.Dec()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
