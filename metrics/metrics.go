package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors of the dashboard.
type Metrics struct {
	AnalysesRequested prometheus.Counter
	AnalysesSucceeded prometheus.Counter
	AnalysesFailed    *prometheus.CounterVec // labels: kind
	StaleDiscarded    prometheus.Counter
	UpstreamLatency   *prometheus.HistogramVec // labels: endpoint, outcome
	WSSessions        prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics registers every collector on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not panic.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		AnalysesRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stkdecider_analyses_requested_total",
			Help: "Analyses submitted by users",
		}),
		AnalysesSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stkdecider_analyses_succeeded_total",
			Help: "Analyses composed and revealed",
		}),
		AnalysesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stkdecider_analyses_failed_total",
			Help: "Failed analyses by user-facing error kind",
		}, []string{"kind"}),
		StaleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stkdecider_stale_responses_discarded_total",
			Help: "Responses dropped because a newer request superseded them",
		}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stkdecider_upstream_duration_seconds",
			Help:    "Upstream API latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"endpoint", "outcome"}),
		WSSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stkdecider_ws_sessions",
			Help: "Open websocket dashboard sessions",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.AnalysesRequested,
		m.AnalysesSucceeded,
		m.AnalysesFailed,
		m.StaleDiscarded,
		m.UpstreamLatency,
		m.WSSessions,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveUpstream records one upstream call. It satisfies service.Observer.
func (m *Metrics) ObserveUpstream(endpoint string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UpstreamLatency.WithLabelValues(endpoint, outcome).Observe(d.Seconds())
}

func (m *Metrics) Requested() {
	if m != nil {
		m.AnalysesRequested.Inc()
	}
}

func (m *Metrics) Succeeded() {
	if m != nil {
		m.AnalysesSucceeded.Inc()
	}
}

func (m *Metrics) Failed(kind string) {
	if m != nil {
		m.AnalysesFailed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) Stale() {
	if m != nil {
		m.StaleDiscarded.Inc()
	}
}

func (m *Metrics) SessionOpened() {
	if m != nil {
		m.WSSessions.Inc()
	}
}

func (m *Metrics) SessionClosed() {
	if m != nil {
		m.WSSessions.Dec()
	}
}
