package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsumerMetrics records processing metadata for event consumers.
type ConsumerMetrics struct {
	duration   *prometheus.HistogramVec
	processed  *prometheus.CounterVec
	failed     *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer metrics on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consumer_handle_duration_seconds",
		Help:    "Duration of consumer message handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"consumer"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_processed",
		Help: "Messages successfully processed per consumer.",
	}, []string{"consumer"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_failed",
		Help: "Messages nacked after a handler error per consumer.",
	}, []string{"consumer"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consumer_messages_duplicate",
		Help: "Messages skipped by the idempotency guard per consumer.",
	}, []string{"consumer"})
	reg.MustRegister(duration, processed, failed, duplicates)
	return &ConsumerMetrics{
		duration:   duration,
		processed:  processed,
		failed:     failed,
		duplicates: duplicates,
	}
}

// ObserveDuration records handling time for the named consumer.
func (c *ConsumerMetrics) ObserveDuration(consumer string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(consumer)).Observe(duration.Seconds())
}

// IncProcessed increments the processed counter for the named consumer.
func (c *ConsumerMetrics) IncProcessed(consumer string) {
	if c == nil || c.processed == nil {
		return
	}
	c.processed.WithLabelValues(normalizeLabel(consumer)).Inc()
}

// IncFailed increments the failure counter for the named consumer.
func (c *ConsumerMetrics) IncFailed(consumer string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(consumer)).Inc()
}

// IncDuplicate increments the duplicate counter for the named consumer.
func (c *ConsumerMetrics) IncDuplicate(consumer string) {
	if c == nil || c.duplicates == nil {
		return
	}
	c.duplicates.WithLabelValues(normalizeLabel(consumer)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}
