package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	acquisitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "dashboard",
		Name:      "acquisitions_total",
		Help:      "Number of snapshot acquisitions grouped by the source that won.",
	}, []string{"source"})

	sourceFailureCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "dashboard",
		Name:      "source_failures_total",
		Help:      "Number of failed snapshot loads per source and failure kind.",
	}, []string{"source", "kind"})

	refreshGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timestats",
		Subsystem: "dashboard",
		Name:      "last_refresh_timestamp_seconds",
		Help:      "Unix timestamp of the most recent snapshot replacement.",
	})

	cardIssueCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "dashboard",
		Name:      "card_missing_timeframe_total",
		Help:      "Number of cards rendered with a zero metric because the record lacked the selected timeframe.",
	})

	recordsServedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timestats",
		Subsystem: "api",
		Name:      "records_served",
		Help:      "Number of activity records returned by the most recent /timestats response.",
	})

	metricUpsertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "timestats",
		Subsystem: "persistence",
		Name:      "last_metric_upsert_timestamp_seconds",
		Help:      "Unix timestamp of the most recent metric written to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(acquisitionCounter, sourceFailureCounter, refreshGauge, cardIssueCounter, recordsServedGauge, metricUpsertGauge)
}

// RecordAcquisition counts a completed acquisition and the source it came from.
func RecordAcquisition(source string) {
	acquisitionCounter.WithLabelValues(source).Inc()
}

// RecordSourceFailure counts a source that failed and fell through.
func RecordSourceFailure(source, kind string) {
	sourceFailureCounter.WithLabelValues(source, kind).Inc()
}

// RecordRefresh updates the refresh watermark gauge.
func RecordRefresh(ts time.Time) {
	if ts.IsZero() {
		return
	}
	refreshGauge.Set(float64(ts.Unix()))
}

// RecordCardIssues counts degraded cards from one render.
func RecordCardIssues(n int) {
	if n <= 0 {
		return
	}
	cardIssueCounter.Add(float64(n))
}

// RecordRecordsServed sets the size of the last API response.
func RecordRecordsServed(n int) {
	recordsServedGauge.Set(float64(n))
}

// RecordMetricUpserted updates the persistence watermark gauge.
func RecordMetricUpserted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	metricUpsertGauge.Set(float64(ts.Unix()))
}
