// Package metrics provides Prometheus metrics for the saladefs daemon.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tree metrics
	treeEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "saladefs_tree_entries",
			Help: "Number of entries in the in-memory tree, root included",
		},
	)

	treeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "saladefs_tree_bytes",
			Help: "Recursive byte size of the in-memory tree",
		},
	)

	// Persistence metrics
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saladefs_loads_total",
			Help: "Total tree loads from the durable store",
		},
		[]string{"status"},
	)

	savesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saladefs_saves_total",
			Help: "Total tree saves to the durable store",
		},
		[]string{"status"},
	)

	loadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saladefs_load_duration_seconds",
			Help:    "Time to read and decode the persisted tree",
			Buckets: prometheus.DefBuckets,
		},
	)

	saveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "saladefs_save_duration_seconds",
			Help:    "Time to encode and write the tree",
			Buckets: prometheus.DefBuckets,
		},
	)

	degradedMode = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "saladefs_degraded_mode",
			Help: "1 when the durable store is unavailable, 0 otherwise",
		},
	)

	// Store backend metrics
	storeOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "saladefs_store_operation_duration_seconds",
			Help:    "Durable store operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	storeOpErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "saladefs_store_operation_errors_total",
			Help: "Total failed durable store operations",
		},
		[]string{"backend", "operation"},
	)
)

// SetTreeStats updates the tree gauges.
func SetTreeStats(entries int, bytes int64) {
	treeEntries.Set(float64(entries))
	treeBytes.Set(float64(bytes))
}

// RecordLoad records a load attempt.
func RecordLoad(duration time.Duration, ok bool) {
	loadDuration.Observe(duration.Seconds())
	loadsTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordSave records a save attempt.
func RecordSave(duration time.Duration, ok bool) {
	saveDuration.Observe(duration.Seconds())
	savesTotal.WithLabelValues(statusLabel(ok)).Inc()
}

// RecordStoreOperation records a single backend operation.
func RecordStoreOperation(backend, operation string, duration time.Duration, ok bool) {
	storeOpDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	if !ok {
		storeOpErrors.WithLabelValues(backend, operation).Inc()
	}
}

// SetDegraded flips the degraded-mode gauge.
func SetDegraded(degraded bool) {
	if degraded {
		degradedMode.Set(1)
	} else {
		degradedMode.Set(0)
	}
}

func statusLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
