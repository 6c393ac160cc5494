package fs

import "time"

// FacadeMetrics provides observability for facade operations.
//
// Implementations can use this interface to surface operation latency, lock
// contention, denial rates, and content throughput. This is optional; if not
// provided, metrics collection is skipped.
//
// Example implementations:
//   - Prometheus metrics
//   - In-memory counters for testing
type FacadeMetrics interface {
	// ObserveOperation records one facade operation with its duration and
	// outcome, measured from lock acquisition to release
	ObserveOperation(operation string, duration time.Duration, err error)

	// ObserveLockWait records time spent waiting for the filesystem lock.
	// All operations serialize on one mutex, so this is the direct measure
	// of contention
	ObserveLockWait(operation string, duration time.Duration)

	// RecordDenied counts permission denials per operation
	RecordDenied(operation string)

	// RecordBytes records content payload bytes moved through the facade.
	// direction is "read" or "write"
	RecordBytes(direction string, bytes int64)
}

// noopFacadeMetrics is the default no-op metrics implementation.
type noopFacadeMetrics struct{}

func (noopFacadeMetrics) ObserveOperation(operation string, duration time.Duration, err error) {}
func (noopFacadeMetrics) ObserveLockWait(operation string, duration time.Duration)             {}
func (noopFacadeMetrics) RecordDenied(operation string)                                        {}
func (noopFacadeMetrics) RecordBytes(direction string, bytes int64)                            {}
