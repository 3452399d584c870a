// Package metrics exposes Prometheus counters for tool invocations and
// similarity index activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Invocation outcomes
const (
	StatusOK          = "ok"
	StatusEngineError = "engine_error"
	StatusError       = "error"
)

// Index operations
const (
	IndexBuild     = "build"
	IndexLoad      = "load"
	IndexEphemeral = "ephemeral"
)

var (
	toolInvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querytools_tool_invocations_total",
			Help: "Total number of tool invocations",
		},
		[]string{"tool_name", "status"},
	)

	toolInvocationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querytools_tool_invocation_duration_seconds",
			Help:    "Tool invocation duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"tool_name"},
	)

	indexOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querytools_index_operations_total",
			Help: "Similarity index builds, loads and ephemeral searches",
		},
		[]string{"operation"},
	)

	indexEntriesEmbedded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "querytools_index_entries_embedded_total",
			Help: "Total number of corpus values embedded into indexes",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querytools_http_requests_total",
			Help: "Total number of RPC requests",
		},
		[]string{"procedure", "code"},
	)
)

// RecordToolInvocation records one tool call
func RecordToolInvocation(toolName, status string, duration time.Duration) {
	toolInvocationsTotal.WithLabelValues(toolName, status).Inc()
	toolInvocationDuration.WithLabelValues(toolName).Observe(duration.Seconds())
}

// RecordIndexOperation records an index build, load or ephemeral search.
// entries is the number of values embedded, zero for loads.
func RecordIndexOperation(operation string, entries int) {
	indexOperationsTotal.WithLabelValues(operation).Inc()
	if entries > 0 {
		indexEntriesEmbedded.Add(float64(entries))
	}
}

// RecordRequest records one RPC served by the server
func RecordRequest(procedure, code string) {
	httpRequestsTotal.WithLabelValues(procedure, code).Inc()
}

// Handler returns the Prometheus metrics handler
func Handler() http.Handler {
	return promhttp.Handler()
}
