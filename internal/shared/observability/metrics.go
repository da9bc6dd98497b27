package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	IndexBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "related_index_build_seconds",
		Help:    "Time spent scanning the workspace and building the file index.",
		Buckets: prometheus.DefBuckets,
	})

	IndexedFiles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "related_indexed_files_total",
		Help: "Number of files in the current index.",
	})

	ResolutionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "related_resolution_seconds",
		Help:    "Time spent on one related-files traversal.",
		Buckets: prometheus.DefBuckets,
	}, []string{"depth"})

	RelatedFilesFound = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "related_files_found",
		Help:    "Related files discovered per expansion.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "related_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "related_index_rebuilds_total",
		Help: "Total number of index rebuilds triggered by file changes.",
	})

	HistoryWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "related_history_write_errors_total",
		Help: "Total number of failed history record writes.",
	})
)
