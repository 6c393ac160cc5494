package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arborfs/arborfs/pkg/fs"
)

// filesystemMetrics is the Prometheus implementation of the fs.FacadeMetrics
// interface.
//
// This implementation collects metrics about filesystem operations including:
//   - Operation counts by operation and outcome
//   - Operation latency (lock acquisition to release)
//   - Lock wait time (the direct measure of serialization cost)
//   - Permission denials
//   - Content bytes moved through the facade
type filesystemMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	lockWaitDuration  *prometheus.HistogramVec
	denialsTotal      *prometheus.CounterVec
	contentBytes      *prometheus.CounterVec
}

// NewFacadeMetrics creates a new Prometheus-backed FacadeMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the facade to use its built-in no-op implementation.
//
// This implements the fs.FacadeMetrics interface from pkg/fs/metrics.go.
func NewFacadeMetrics() fs.FacadeMetrics {
	if !IsEnabled() {
		return nil // The facade will use its no-op metrics
	}

	reg := GetRegistry()

	return &filesystemMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "arborfs_fs_operations_total",
				Help: "Total number of filesystem operations by operation and status",
			},
			[]string{"operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "arborfs_fs_operation_duration_seconds",
				Help: "Duration of filesystem operations from lock acquisition to release",
				Buckets: []float64{
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					2.5,    // 2.5s
					5.0,    // 5s
					10.0,   // 10s
				},
			},
			[]string{"operation"},
		),
		lockWaitDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "arborfs_fs_lock_wait_seconds",
				Help: "Time spent waiting for the filesystem lock",
				Buckets: []float64{
					0.0001, // 100µs
					0.0005, // 500µs
					0.001,  // 1ms
					0.005,  // 5ms
					0.01,   // 10ms
					0.05,   // 50ms
					0.1,    // 100ms
					0.5,    // 500ms
					1.0,    // 1s
					5.0,    // 5s
				},
			},
			[]string{"operation"},
		),
		denialsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "arborfs_fs_permission_denials_total",
				Help: "Total number of operations rejected by permission checks",
			},
			[]string{"operation"},
		),
		contentBytes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "arborfs_fs_content_bytes_total",
				Help: "Total content payload bytes moved through the facade",
			},
			[]string{"direction"}, // read or write
		),
	}
}

// ObserveOperation implements fs.FacadeMetrics.ObserveOperation
func (m *filesystemMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLockWait implements fs.FacadeMetrics.ObserveLockWait
func (m *filesystemMetrics) ObserveLockWait(operation string, duration time.Duration) {
	m.lockWaitDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDenied implements fs.FacadeMetrics.RecordDenied
func (m *filesystemMetrics) RecordDenied(operation string) {
	m.denialsTotal.WithLabelValues(operation).Inc()
}

// RecordBytes implements fs.FacadeMetrics.RecordBytes
func (m *filesystemMetrics) RecordBytes(direction string, bytes int64) {
	m.contentBytes.WithLabelValues(direction).Add(float64(bytes))
}
