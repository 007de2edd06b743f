package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "vastep"

// Resolution outcomes.
const (
	outcomeMatched   = "matched"
	outcomeSuggested = "suggested"
	outcomeUnmatched = "unmatched"
)

// Stats holds the service's Prometheus collectors.
type Stats struct {
	Resolutions       *prometheus.CounterVec
	Searches          prometheus.Counter
	Reloads           *prometheus.CounterVec
	ResolutionSeconds prometheus.Histogram
	Templates         prometheus.Gauge
}

// NewStats registers the collectors with reg.
func NewStats(reg prometheus.Registerer) *Stats {
	factory := promauto.With(reg)
	return &Stats{
		Resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "resolutions_total",
				Help:      "Step resolutions by outcome",
			},
			[]string{"outcome"},
		),
		Searches: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "searches_total",
				Help:      "Library search queries served",
			},
		),
		Reloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "library_reloads_total",
				Help:      "Library reload attempts by result",
			},
			[]string{"result"},
		),
		ResolutionSeconds: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "resolution_duration_seconds",
				Help:      "Time spent resolving one step",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
			},
		),
		Templates: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "library_templates",
				Help:      "Templates in the served library",
			},
		),
	}
}
