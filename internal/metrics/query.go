package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query execution Prometheus metrics.
var (
	ContextResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "context_resolutions_total",
			Help:      "Total number of execution contexts constructed",
		},
		[]string{"kind", "status"},
	)

	StoreOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "store_operations_total",
			Help:      "Total number of store-backed context operations",
		},
		[]string{"op", "status"},
	)

	StoreOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docset",
			Name:      "store_operation_duration_seconds",
			Help:      "Store-backed context operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	DispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docset",
			Name:      "dispatch_total",
			Help:      "Criteria operations dispatched, by answering table",
		},
		[]string{"table"}, // "core" / "model" / "documents" / "unknown"
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers Prometheus query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(ContextResolutionsTotal)
	prometheus.MustRegister(StoreOperationsTotal)
	prometheus.MustRegister(StoreOperationDuration)
	prometheus.MustRegister(DispatchTotal)
	queryMetricsRegistered = true
}

// ObserveStoreOp records one store operation outcome and its duration.
func ObserveStoreOp(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperationsTotal.WithLabelValues(op, status).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
