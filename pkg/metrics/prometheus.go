package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	messagesSent    *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	underlyingPrice *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
	observations    *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpull_messages_sent_total",
				Help: "Total number of messages sent to backend",
			},
			[]string{"backend", "underlying"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		underlyingPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "chainpull_underlying_price",
				Help: "Last recorded underlying price",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chainpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chainpull_observations_total",
				Help: "Credit-spread observations produced per analyzer cycle",
			},
			[]string{"analyzer"},
		),
	}
}

// RecordMessageSent records a message sent to a backend.
func (r *Recorder) RecordMessageSent(backend, underlying string) {
	r.messagesSent.WithLabelValues(backend, underlying).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordUnderlyingPrice records the latest underlying price.
func (r *Recorder) RecordUnderlyingPrice(symbol string, price float64) {
	r.underlyingPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordObservations counts observations emitted by an analyzer.
func (r *Recorder) RecordObservations(analyzer string, n int) {
	r.observations.WithLabelValues(analyzer).Add(float64(n))
}
