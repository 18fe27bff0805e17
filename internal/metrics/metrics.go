package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ArtifactLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evdemand_artifact_loads_total",
			Help: "Artifact lookups by kind and outcome (found, absent, error)",
		},
		[]string{"kind", "outcome"},
	)

	ArtifactLoadLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "evdemand_artifact_load_seconds",
			Help:    "Time to stat and parse a table artifact",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	ChartRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evdemand_chart_renders_total",
			Help: "Chart images served, by chart and whether the cache was hit",
		},
		[]string{"chart", "cache"},
	)

	Downloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evdemand_downloads_total",
			Help: "Table and report downloads by dataset and format",
		},
		[]string{"dataset", "format"},
	)

	EmptySelections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evdemand_empty_selections_total",
			Help: "Views rendered with no rows for the selected city",
		},
		[]string{"view"},
	)
)
