package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	TokenizeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "docwarden_tokenize_seconds",
		Help:    "Time spent tokenizing a single document.",
		Buckets: prometheus.DefBuckets,
	})

	DocumentsChecked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docwarden_documents_checked_total",
		Help: "Documents checked against a grammar, by verdict.",
	}, []string{"result"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docwarden_findings_total",
		Help: "Findings reported, by kind and severity.",
	}, []string{"kind", "severity"})

	SpecFilesLoaded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docwarden_spec_files_loaded_total",
		Help: "Specification files loaded, by type.",
	}, []string{"type"})

	LinkGraphDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docwarden_link_graph_documents",
		Help: "Number of documents in the consolidated link graph.",
	})

	LinkGraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "docwarden_link_graph_edges",
		Help: "Number of edges in the consolidated link graph.",
	})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docwarden_run_seconds",
		Help:    "Time spent on a full validation pass.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "docwarden_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile dumps every registered collector in the Prometheus text
// format, for node_exporter's textfile collector or CI artifacts.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
