package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records publish outcomes for the outbox dispatcher.
type OutboxMetrics struct {
	batchDuration *prometheus.HistogramVec
	published     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	deadLettered  *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	batchDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "outbox_batch_duration_seconds",
		Help:    "Duration of outbox publish batches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"topic"})
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published",
		Help: "Outbox events successfully published per topic.",
	}, []string{"topic"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed",
		Help: "Outbox publish attempts that failed per topic.",
	}, []string{"topic"})
	deadLettered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered",
		Help: "Outbox events moved to the dead letter table per topic.",
	}, []string{"topic"})
	reg.MustRegister(batchDuration, published, failed, deadLettered)
	return &OutboxMetrics{
		batchDuration: batchDuration,
		published:     published,
		failed:        failed,
		deadLettered:  deadLettered,
	}
}

// ObserveBatchDuration records a publish batch duration for the topic.
func (o *OutboxMetrics) ObserveBatchDuration(topic string, duration time.Duration) {
	if o == nil || o.batchDuration == nil {
		return
	}
	o.batchDuration.WithLabelValues(normalizeLabel(topic)).Observe(duration.Seconds())
}

// IncPublished increments the published counter for the topic.
func (o *OutboxMetrics) IncPublished(topic string) {
	if o == nil || o.published == nil {
		return
	}
	o.published.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncFailed increments the failure counter for the topic.
func (o *OutboxMetrics) IncFailed(topic string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(topic)).Inc()
}

// IncDeadLettered increments the dead letter counter for the topic.
func (o *OutboxMetrics) IncDeadLettered(topic string) {
	if o == nil || o.deadLettered == nil {
		return
	}
	o.deadLettered.WithLabelValues(normalizeLabel(topic)).Inc()
}
