package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bdmep"

// Metrics holds the Prometheus counters, histograms, and gauges for the fetch
// and export pipeline.
type Metrics struct {
	ArchivesFetched *prometheus.CounterVec // labels: result={downloaded,cached}
	FetchBytes      prometheus.Counter

	MembersDecoded prometheus.Counter
	RowsDecoded    prometheus.Counter
	RowsDropped    prometheus.Counter
	DecodeErrors   prometheus.Counter

	PartitionsWritten *prometheus.CounterVec // labels: format={csv,xlsx,sqlite}
	ObjectsUploaded   prometheus.Counter
	RowsPublished     prometheus.Counter

	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.ArchivesFetched,
		m.FetchBytes,
		m.MembersDecoded,
		m.RowsDecoded,
		m.RowsDropped,
		m.DecodeErrors,
		m.PartitionsWritten,
		m.ObjectsUploaded,
		m.RowsPublished,
		m.RunDuration,
		m.PipelineRunning,
		m.LastSuccess,
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
		ArchivesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_fetched_total",
			Help:      "Yearly archives resolved by the fetcher, by result.",
		}, []string{"result"}),
		FetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_bytes_total",
			Help:      "Bytes downloaded from the archive source.",
		}),
		MembersDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "members_decoded_total",
			Help:      "Station files decoded from archives.",
		}),
		RowsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_decoded_total",
			Help:      "Observation rows kept after filtering.",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows dropped because every measurement was missing.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Station files that failed to decode.",
		}),
		PartitionsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_written_total",
			Help:      "Partition files written, by output format.",
		}, []string{"format"}),
		ObjectsUploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_uploaded_total",
			Help:      "Partition files uploaded to object storage.",
		}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_published_total",
			Help:      "Observation rows published to Kafka.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch and export run.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}
}
