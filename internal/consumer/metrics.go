package consumer

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"example.com/timestats/internal/stats"
)

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "messages_processed_total",
		Help:      "Number of Kafka messages successfully handled.",
	}, []string{"topic", "event_type"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "handler_errors_total",
		Help:      "Number of handler errors grouped by topic and event type.",
	}, []string{"topic", "event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Number of malformed messages committed without handling, per topic.",
	}, []string{"topic"})

	metricUpdateCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "metric_updates_total",
		Help:      "Number of activity metrics stored, per timeframe.",
	}, []string{"timeframe"})

	metricHoursGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "metric_current_hours",
		Help:      "Current-period hours of the most recent update per activity and timeframe.",
	}, []string{"activity", "timeframe"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "timestats",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(processedCounter, handlerErrorCounter, decodeErrorCounter, metricUpdateCounter, metricHoursGauge, lastMessageGauge)
}

func recordProcessed(msg Message) {
	processedCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
	if !msg.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordHandlerError(msg Message) {
	handlerErrorCounter.WithLabelValues(msg.Topic, msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

// recordMetricUpdate tracks a stored update. Activities are labelled by slug so
// "Self Care" and "self care" share a series.
func recordMetricUpdate(update stats.MetricUpdate) {
	metricUpdateCounter.WithLabelValues(string(update.Timeframe)).Inc()
	metricHoursGauge.WithLabelValues(activityLabel(update.Title), string(update.Timeframe)).Set(update.Current)
}

func activityLabel(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), "-")
}
