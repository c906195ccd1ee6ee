// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestSeconds is a histogram for HTTP server request latencies
	HTTPRequestSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "algosvc",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of response latency (seconds) of HTTP requests handled by the service.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "method", "code"},
	)

	// GRPCServerHandlingSeconds is a histogram for gRPC probe latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "algosvc",
			Subsystem: "grpc",
			Name:      "server_handling_seconds",
			Help:      "Histogram of response latency (seconds) of gRPC calls handled by the probe server.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "code"},
	)

	// RequestSamples tracks how many samples each kernel call receives
	RequestSamples = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "algosvc",
			Name:      "request_samples",
			Help:      "Histogram of sample counts per kernel invocation.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	// KernelLatencySeconds is a histogram for kernel-only latency
	KernelLatencySeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "algosvc",
			Name:      "kernel_latency_seconds",
			Help:      "Histogram of kernel latency (seconds) excluding decode, encode and transport.",
			Buckets:   []float64{.00001, .0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"outcome"},
	)

	// BatchFilesTotal counts batch input files by outcome
	BatchFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "algosvc",
			Subsystem: "batch",
			Name:      "files_total",
			Help:      "Batch input files processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "algosvc",
			Name:      "health_status",
			Help:      "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(route, method, code string, seconds float64) {
	HTTPRequestSeconds.WithLabelValues(route, method, code).Observe(seconds)
}

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordRequestSamples records the sample count of a kernel call
func RecordRequestSamples(n int) {
	RequestSamples.Observe(float64(n))
}

// RecordKernelLatency records the latency of a kernel call
func RecordKernelLatency(outcome string, seconds float64) {
	KernelLatencySeconds.WithLabelValues(outcome).Observe(seconds)
}

// RecordBatchFile counts one processed batch file
func RecordBatchFile(outcome string) {
	BatchFilesTotal.WithLabelValues(outcome).Inc()
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
