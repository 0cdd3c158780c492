package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Monitoring bundles the engine's own Prometheus collectors.
type Monitoring struct {
	Registry *prometheus.Registry

	Decisions         *prometheus.CounterVec
	Verdicts          *prometheus.CounterVec
	OptimizationScore prometheus.Histogram
}

func NewMonitoring() *Monitoring {
	self := &Monitoring{
		Registry: prometheus.NewRegistry(),

		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umpire",
			Name:      "decisions_total",
			Help:      "Decisions computed, by outcome.",
		}, []string{"outcome"}),

		Verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "umpire",
			Name:      "verdicts_total",
			Help:      "Regression verdicts, by classification.",
		}, []string{"classification"}),

		OptimizationScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "umpire",
			Name:      "optimization_score",
			Help:      "Optimization score of computed plans.",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
	}

	self.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		self.Decisions,
		self.Verdicts,
		self.OptimizationScore,
	)

	return self
}
