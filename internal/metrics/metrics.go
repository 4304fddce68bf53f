// Package metrics holds the Prometheus collectors for pipeline and HTTP
// observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the application's collectors. Construct once and share;
// collectors register against the given registry.
type Metrics struct {
	PipelineDuration *prometheus.HistogramVec
	FetchFailures    *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "practicepulse",
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of one location's fetch-transform-calculate pass.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"location", "outcome"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practicepulse",
			Name:      "fetch_failures_total",
			Help:      "Source fetch failures by alias and kind.",
		}, []string{"alias", "kind"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "practicepulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status class.",
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.PipelineDuration, m.FetchFailures, m.RequestsTotal)
	return m
}

// ObservePipeline records one pipeline pass.
func (m *Metrics) ObservePipeline(location, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.WithLabelValues(location, outcome).Observe(d.Seconds())
}

// CountFetchFailure records one fetch failure.
func (m *Metrics) CountFetchFailure(alias, kind string) {
	if m == nil {
		return
	}
	m.FetchFailures.WithLabelValues(alias, kind).Inc()
}

// CountRequest records one served HTTP request.
func (m *Metrics) CountRequest(route, status string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, status).Inc()
}
