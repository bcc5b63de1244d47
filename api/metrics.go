package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on their own registry.
type Metrics struct {
	registry     *prometheus.Registry
	calculations *prometheus.CounterVec
	prepayments  *prometheus.CounterVec
	duration     prometheus.Histogram
	cacheHits    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amortize_calculations_total",
			Help: "Schedules calculated, by repayment method.",
		}, []string{"method"}),
		prepayments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "amortize_prepayments_total",
			Help: "Prepayments applied, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "amortize_calculation_seconds",
			Help:    "Time spent running a scenario.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "amortize_cache_hits_total",
			Help: "Scenario requests answered from the result cache.",
		}),
	}
	m.registry.MustRegister(
		m.calculations,
		m.prepayments,
		m.duration,
		m.cacheHits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
