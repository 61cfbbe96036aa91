package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GRPCServerHandlingSeconds is a histogram for gRPC server request latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of gRPC that had been application-level handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "code"},
	)

	// HTTPServerHandlingSeconds is a histogram for HTTP request latencies
	HTTPServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of HTTP requests.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"route", "code"},
	)

	// PipelineDurationSeconds measures a full Process call by output path
	PipelineDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_duration_seconds",
			Help:    "Histogram of image pipeline latency (seconds) by output path (model or fallback).",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"path"},
	)

	// InferenceLatencySeconds is a histogram for inference-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of model forward pass latency (seconds).",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// FallbackTotal counts fallback transforms by the error kind that caused them
	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_fallback_total",
			Help: "Number of requests served by the fallback transform, by cause.",
		},
		[]string{"kind"},
	)

	// RejectedTotal counts inputs rejected before processing
	RejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_rejected_total",
			Help: "Number of inputs rejected for invalid dimensions.",
		},
	)

	// CacheRequestsTotal counts result cache lookups by outcome
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "result_cache_requests_total",
			Help: "Result cache lookups by outcome (hit, miss, error).",
		},
		[]string{"result"},
	)

	// ProcessFPS is the most recent frames-per-second sample
	ProcessFPS = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_frames_per_second",
			Help: "Frames per second over the most recent sampling window.",
		},
	)

	// ProcessPrivateMemoryMB is the most recent private memory sample
	ProcessPrivateMemoryMB = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "process_private_memory_megabytes",
			Help: "Private dirty memory of the process (MB) at the last sample.",
		},
	)

	// HealthStatus is a gauge indicating the health status of the service
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordHTTPLatency records the latency of an HTTP request
func RecordHTTPLatency(route, code string, seconds float64) {
	HTTPServerHandlingSeconds.WithLabelValues(route, code).Observe(seconds)
}

// RecordPipeline records a completed Process call
func RecordPipeline(path string, seconds float64) {
	PipelineDurationSeconds.WithLabelValues(path).Observe(seconds)
}

// RecordInferenceLatency records the latency of an inference call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordFallback counts one fallback caused by kind
func RecordFallback(kind string) {
	FallbackTotal.WithLabelValues(kind).Inc()
}

// RecordRejected counts one rejected input
func RecordRejected() {
	RejectedTotal.Inc()
}

// RecordCache counts one cache lookup outcome
func RecordCache(result string) {
	CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordSample publishes a performance sample
func RecordSample(fps, memoryMB float64) {
	ProcessFPS.Set(fps)
	ProcessPrivateMemoryMB.Set(memoryMB)
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
