// Package metrics exposes prometheus collectors for registry operations and
// storage backends. The CLI is short-lived, so collectors are exported through
// the node-exporter textfile format instead of an HTTP endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

var (
	RegistryOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gradebook",
			Name:      "registry_operations_total",
			Help:      "Total number of registry operations by outcome",
		},
		[]string{"operation", "result"},
	)

	StoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gradebook",
			Name:      "store_duration_seconds",
			Help:      "Duration of storage backend load/save calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	RecordsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gradebook",
			Name:      "records",
			Help:      "Number of records held by the registry",
		},
	)
)

// ObserveOperation counts one registry operation.
func ObserveOperation(operation, result string) {
	RegistryOperations.WithLabelValues(operation, result).Inc()
}

// ObserveStore records how long a backend call took.
func ObserveStore(backend, operation string, started time.Time) {
	StoreDuration.WithLabelValues(backend, operation).Observe(time.Since(started).Seconds())
}

// WriteTextfile writes every registered collector to path in the text
// exposition format. The file is replaced atomically by the client library.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
