package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Replicate MCP metrics - using explicit registration
var (
	// MCP envelope requests served over HTTP
	RequestsTotal *prometheus.CounterVec

	ToolCallsTotal *prometheus.CounterVec

	ToolDuration *prometheus.HistogramVec

	// Upstream calls by operation and outcome
	UpstreamRequestsTotal *prometheus.CounterVec

	UpstreamLatency *prometheus.HistogramVec

	// Circuit breaker state gauge
	CircuitBreakerState *prometheus.GaugeVec
)

func init() {
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "requests_total",
			Help:      "Total number of MCP requests",
		},
		[]string{"method", "status"},
	)

	ToolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "Total tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	ToolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "tool_duration_seconds",
			Help:      "Tool execution duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	UpstreamRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "upstream_requests_total",
			Help:      "Total Replicate API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "upstream_latency_seconds",
			Help:      "Replicate API response time in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "replicate",
			Subsystem: "mcp",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 0.5=half-open, 1=open)",
		},
		[]string{"upstream"},
	)

	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(ToolCallsTotal)
	prometheus.MustRegister(ToolDuration)
	prometheus.MustRegister(UpstreamRequestsTotal)
	prometheus.MustRegister(UpstreamLatency)
	prometheus.MustRegister(CircuitBreakerState)
}

// RecordRequest records an MCP request
func RecordRequest(method, status string) {
	RequestsTotal.WithLabelValues(method, status).Inc()
}

// RecordToolCall records a tool invocation
func RecordToolCall(toolName, status string, durationSec float64) {
	if status == "" {
		status = "unknown"
	}
	ToolCallsTotal.WithLabelValues(toolName, status).Inc()
	ToolDuration.WithLabelValues(toolName).Observe(durationSec)
}

// RecordUpstream records one Replicate API call. outcome is "ok" or an error type.
func RecordUpstream(operation, outcome string, durationSec float64) {
	UpstreamRequestsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamLatency.WithLabelValues(operation).Observe(durationSec)
}

// SetCircuitBreakerState sets the circuit breaker state
func SetCircuitBreakerState(upstream string, state string) {
	var val float64
	switch state {
	case "closed":
		val = 0.0
	case "half-open":
		val = 0.5
	case "open":
		val = 1.0
	}
	CircuitBreakerState.WithLabelValues(upstream).Set(val)
}
