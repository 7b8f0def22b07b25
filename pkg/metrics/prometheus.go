package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	signalsGenerated *prometheus.CounterVec
	broadcasts       *prometheus.CounterVec
	clientCount      prometheus.Gauge
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		signalsGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpulse_signals_generated_total",
				Help: "Total number of signals generated",
			},
			[]string{"symbol", "type"},
		),
		broadcasts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpulse_broadcasts_total",
				Help: "Total number of messages broadcast over the hub",
			},
			[]string{"type"},
		),
		clientCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantpulse_ws_clients",
				Help: "Current number of connected websocket clients",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSignalGenerated records one generated signal.
func (r *Recorder) RecordSignalGenerated(symbol, signalType string) {
	r.signalsGenerated.WithLabelValues(symbol, signalType).Inc()
}

// RecordBroadcast records a hub broadcast and its fanout size.
func (r *Recorder) RecordBroadcast(messageType string, clients int) {
	r.broadcasts.WithLabelValues(messageType).Add(float64(clients))
}

// RecordClientCount records the current websocket client count.
func (r *Recorder) RecordClientCount(n int) {
	r.clientCount.Set(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
