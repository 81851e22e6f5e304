package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textlab_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// OperationDuration tracks augment and preprocess latency per operation.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "textlab_operation_duration_seconds",
		Help:    "Time spent applying a text operation.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"endpoint", "op"})

	// InputChars tracks the distribution of input text lengths.
	InputChars = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "textlab_input_chars",
		Help:    "Number of characters in augment and preprocess input text.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})

	// SampleRequests counts sample cache lookups by dataset and hit/miss.
	SampleRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textlab_sample_requests_total",
		Help: "Sample cache lookups by dataset and result.",
	}, []string{"dataset", "result"})

	// PoolBuilds counts sample pool builds by dataset and outcome.
	PoolBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "textlab_sample_pool_builds_total",
		Help: "Sample pool builds by dataset and outcome.",
	}, []string{"dataset", "outcome"})

	// BackendAvailable tracks whether each external backend answers its health check.
	BackendAvailable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "textlab_backend_available",
		Help: "Whether a backend is available (1) or not (0).",
	}, []string{"backend"})
)
