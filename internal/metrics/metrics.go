package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "executor_executions_total",
			Help: "Total number of execution requests by final verdict",
		},
		[]string{"language", "verdict"},
	)

	TestCasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "executor_test_cases_total",
			Help: "Total number of test cases run by status",
		},
		[]string{"language", "status"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "executor_execution_duration_ms",
			Help:    "Execution duration in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"language", "phase"}, // phase: "compile", "run", "total"
	)

	MemoryUsage = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "executor_memory_usage_kb",
			Help:    "Peak memory usage per test case run in KB",
			Buckets: []float64{1024, 4096, 16384, 65536, 131072, 262144, 524288},
		},
		[]string{"language"},
	)

	ProcessesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "executor_processes_in_flight",
			Help: "Number of sandboxed processes currently alive",
		},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "executor_active_requests",
			Help: "Number of execution requests currently being processed",
		},
	)

	RequeuedMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "executor_requeued_messages_total",
			Help: "Total number of run messages requeued because every worker was busy",
		},
	)
)

// NewServer exposes the default registry on /metrics.
func NewServer(port string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
