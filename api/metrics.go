package api

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Maxwavez/AB-tests-dataset-generator/internal/experiment"
)

var (
	datasetsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abgen_datasets_generated_total",
		Help: "Total generated datasets by run-level decisions",
	}, []string{"effect_injected", "rate_changed"})

	generationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "abgen_generation_failures_total",
		Help: "Total failed generation requests by reason",
	}, []string{"reason"})

	generationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "abgen_generation_duration_seconds",
		Help:    "Time to generate and package a dataset",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	populationSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "abgen_population_size",
		Help:    "Requested population size per generated dataset",
		Buckets: prometheus.ExponentialBuckets(10, 10, 7),
	})
)

func observeDataset(ds *experiment.Dataset) {
	datasetsGenerated.WithLabelValues(
		strconv.FormatBool(ds.Effect.Injected),
		strconv.FormatBool(ds.Parameters.RateChanged),
	).Inc()
	populationSize.Observe(float64(ds.Parameters.PopulationSize))
}
