// Package stats implements the concrete StatisticsSink of spec.md §6: a
// thin, non-blocking wrapper around github.com/prometheus/client_golang that
// every other component (frontend, persist) reports through.
package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Sink is the StatisticsSink capability of spec.md §6: record_latency,
// record_outcome, record_batch_flush, set_gauge. Every method must be safe
// to call from any goroutine and must never block the caller on I/O.
type Sink interface {
	RecordLatency(requestType string, d time.Duration)
	RecordOutcome(requestType, outcome string)
	RecordBatchFlush(rowCount int, duration time.Duration, err error)
	SetGauge(name string, value float64)
}

// PromSink is the prometheus-backed Sink registered against a process-wide
// or test-local prometheus.Registerer.
type PromSink struct {
	latency     *prometheus.HistogramVec
	outcomes    *prometheus.CounterVec
	flushRows     prometheus.Histogram
	flushDuration prometheus.Histogram
	flushErrors   prometheus.Counter
	gauges        *prometheus.GaugeVec
}

// NewPromSink registers the tracker's metric families against reg and
// returns a Sink backed by them. reg is typically
// prometheus.DefaultRegisterer, or a fresh prometheus.NewRegistry() in
// tests.
func NewPromSink(reg prometheus.Registerer) *PromSink {
	factory := promauto.With(reg)
	return &PromSink{
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tracker",
			Name:      "request_duration_seconds",
			Help:      "Announce/scrape request latency by request type.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"request_type"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "request_outcomes_total",
			Help:      "Announce/scrape requests by request type and outcome.",
		}, []string{"request_type", "outcome"}),
		flushRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tracker",
			Name:      "persist_flush_rows",
			Help:      "Row count of each batched persistence flush.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		flushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tracker",
			Name:      "persist_flush_duration_seconds",
			Help:      "Wall-clock duration of each batched persistence flush.",
			Buckets:   prometheus.DefBuckets,
		}),
		flushErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tracker",
			Name:      "persist_flush_errors_total",
			Help:      "Batched persistence flushes that returned an error.",
		}),
		gauges: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tracker",
			Name:      "gauge",
			Help:      "Named point-in-time gauges (buffer depth, swarm count, peer count).",
		}, []string{"name"}),
	}
}

// RecordLatency implements Sink.
func (s *PromSink) RecordLatency(requestType string, d time.Duration) {
	s.latency.WithLabelValues(requestType).Observe(d.Seconds())
}

// RecordOutcome implements Sink.
func (s *PromSink) RecordOutcome(requestType, outcome string) {
	s.outcomes.WithLabelValues(requestType, outcome).Inc()
}

// RecordBatchFlush implements Sink and persist.Observer: err is only used
// to bump the error counter, never logged here (the caller already logs).
func (s *PromSink) RecordBatchFlush(rowCount int, duration time.Duration, err error) {
	s.flushRows.Observe(float64(rowCount))
	s.flushDuration.Observe(duration.Seconds())
	if err != nil {
		s.flushErrors.Inc()
	}
}

// SetGauge implements Sink and persist.Observer.
func (s *PromSink) SetGauge(name string, value float64) {
	s.gauges.WithLabelValues(name).Set(value)
}
