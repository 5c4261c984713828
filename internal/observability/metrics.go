package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset loading and filtering pipeline.
type Metrics struct {
	DatasetLoads      *prometheus.CounterVec // labels: dataset, outcome={success,error}
	RecordsLoaded     *prometheus.CounterVec // labels: dataset
	RecordsDropped    *prometheus.CounterVec // labels: dataset, reason={entity,year}
	MetadataFallbacks *prometheus.CounterVec // labels: dataset
	LoadDuration      *prometheus.HistogramVec
	DatasetReady      *prometheus.GaugeVec // 1 when the dataset's data is loaded

	FilterRequests *prometheus.CounterVec // labels: dataset
	ExportRequests *prometheus.CounterVec // labels: dataset, format={csv,xlsx}

	RecordsPublished *prometheus.CounterVec // labels: dataset
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.DatasetLoads,
		m.RecordsLoaded,
		m.RecordsDropped,
		m.MetadataFallbacks,
		m.LoadDuration,
		m.DatasetReady,
		m.FilterRequests,
		m.ExportRequests,
		m.RecordsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "dataset_loads_total",
			Help:      "Dataset load attempts by outcome.",
		}, []string{"dataset", "outcome"}),
		RecordsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "records_loaded_total",
			Help:      "Normalized records retained per dataset load.",
		}, []string{"dataset"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "records_dropped_total",
			Help:      "Rows dropped during normalization, by reason.",
		}, []string{"dataset", "reason"}),
		MetadataFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "metadata_fallbacks_total",
			Help:      "Loads that fell back to default citation/description text.",
		}, []string{"dataset"}),
		LoadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "marine_dash",
			Name:      "load_duration_seconds",
			Help:      "Duration of a complete fetch-parse-normalize cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"dataset"}),
		DatasetReady: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "marine_dash",
			Name:      "dataset_ready",
			Help:      "1 when the dataset's data is loaded and servable.",
		}, []string{"dataset"}),
		FilterRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "filter_requests_total",
			Help:      "Range-filter invocations per dataset.",
		}, []string{"dataset"}),
		ExportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "export_requests_total",
			Help:      "Filtered-data exports by format.",
		}, []string{"dataset", "format"}),
		RecordsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "records_published_total",
			Help:      "Normalized records published to the Kafka sink topic.",
		}, []string{"dataset"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "marine_dash",
			Name:      "publish_errors_total",
			Help:      "Failed Kafka publish attempts.",
		}),
	}
}
