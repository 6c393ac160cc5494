// Package gc reconciles the content store against the record store and
// removes orphaned content objects.
//
// The mutation paths keep the two stores consistent on their own: files
// commit content before linking a record, and Remove deletes content right
// after unlinking. Orphans are the debris of the failure windows in between:
//   - A crash between committing content and linking the node record
//   - A record transaction that failed after content was already committed
//   - A best-effort content deletion after Remove that did not complete
//
// The collector runs periodically, computes the set of committed objects no
// record references, and batch-deletes it.
package gc

import (
	"context"
	"fmt"
	"time"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// Collector performs periodic garbage collection on a content store.
//
// The collector runs in the background and periodically scans for content
// objects not referenced by any node record, then deletes them.
//
// Thread Safety: Safe for concurrent use.
type Collector struct {
	records record.Store
	objects content.Store
	config  Config
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether garbage collection is active (default: false)
	Enabled bool

	// Interval is how often to run garbage collection (default: 24h)
	Interval time.Duration

	// BatchSize is how many orphaned objects to delete per batch
	// (default: 1000, the S3 DeleteObjects ceiling)
	BatchSize int

	// DryRun mode logs what would be deleted without actually deleting
	// (default: false)
	DryRun bool
}

// NewCollector creates a new garbage collector.
//
// The collector is initialized but not started. Call Start to begin
// background collection, or RunNow for a one-off pass.
//
// Parameters:
//   - records: Record store queried for referenced content IDs
//   - objects: Content store scanned for committed objects and purged
//   - config: Garbage collection configuration (zero values get defaults)
//
// Returns:
//   - *Collector: Initialized collector (not started)
func NewCollector(records record.Store, objects content.Store, config Config) *Collector {
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}
	if config.BatchSize == 0 {
		config.BatchSize = 1000
	}

	return &Collector{
		records: records,
		objects: objects,
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins background garbage collection.
//
// This starts a goroutine that runs collection at the configured interval
// until Stop is called. When the collector is disabled Start is a no-op.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)

	go c.worker()
}

// Stop stops the garbage collector and waits for it to finish.
//
// This signals the worker goroutine to stop and waits for any in-progress
// collection to complete.
//
// Parameters:
//   - ctx: Context for timeout (shutdown is abandoned if the context expires)
//
// Returns:
//   - error: Returns error if the context expires before shutdown completes
func (c *Collector) Stop(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	logger.Info("Stopping garbage collector...")

	close(c.stopCh)

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow triggers an immediate garbage collection pass.
//
// This is useful for testing and for initial cleanup on startup. The method
// blocks until collection completes or the context is cancelled, and works
// even when the collector is disabled for background runs.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Stats: Collection statistics
//   - error: Returns error if collection fails or the context is cancelled
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)...")
	return c.collect(ctx)
}

// worker is the background goroutine that runs periodic collection.
func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	logger.Info("Garbage collector worker started")

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			logger.Info("Garbage collector worker stopping...")
			return
		}
	}
}

// collect performs a single garbage collection pass.
//
// The algorithm:
//  1. Snapshot the content IDs referenced by node records
//  2. Enumerate committed object IDs in the content store
//  3. Snapshot the referenced IDs again and merge both snapshots
//  4. Compute orphaned = committed - referenced
//  5. Batch-delete the orphaned objects
//
// The second snapshot exists because the collector holds no filesystem
// lock: a create that commits and links an object after the first snapshot
// would otherwise enumerate as committed yet look unreferenced, and a live
// file would lose its content. An object is treated as orphaned only when
// neither snapshot references it, which leaves exactly the genuinely
// unlinked debris. The one remaining misjudgment is a create whose
// commit-to-link window spans the entire store enumeration plus the second
// snapshot; mutations serialize on the filesystem lock, so that is at most
// one in-flight operation per pass.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//
// Returns:
//   - *Stats: Collection statistics (partial on error)
//   - error: Returns error if either store enumeration fails
func (c *Collector) collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		StartTime: time.Now(),
	}

	if err := ctx.Err(); err != nil {
		stats.EndTime = time.Now()
		return stats, err
	}

	// ========================================================================
	// Phase 1: Collect referenced content IDs from the record store
	// ========================================================================

	referenced, err := c.records.ListContentIDs(ctx)
	if err != nil {
		stats.EndTime = time.Now()
		return stats, fmt.Errorf("failed to list referenced content: %w", err)
	}

	referencedSet := make(map[content.ID]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[id] = struct{}{}
	}

	// ========================================================================
	// Phase 2: Enumerate committed objects in the content store
	// ========================================================================

	existing, err := c.objects.List(ctx)
	if err != nil {
		stats.EndTime = time.Now()
		return stats, fmt.Errorf("failed to list content objects: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	logger.Debug("GC: Found %d committed content objects", stats.ExistingCount)

	// ========================================================================
	// Phase 3: Re-snapshot references and merge
	// ========================================================================

	// An object linked between the first snapshot and the enumeration is
	// missing from the first listing only; the second one sees it.
	relisted, err := c.records.ListContentIDs(ctx)
	if err != nil {
		stats.EndTime = time.Now()
		return stats, fmt.Errorf("failed to re-list referenced content: %w", err)
	}
	for _, id := range relisted {
		referencedSet[id] = struct{}{}
	}
	stats.ReferencedCount = uint64(len(referencedSet))

	logger.Debug("GC: Found %d referenced content objects", stats.ReferencedCount)

	// ========================================================================
	// Phase 4: Compute the orphaned set
	// ========================================================================

	orphaned := make([]content.ID, 0)
	for _, id := range existing {
		if _, ok := referencedSet[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 {
		logger.Info("GC: No orphaned content found")
		stats.EndTime = time.Now()
		return stats, nil
	}

	logger.Info("GC: Found %d orphaned content objects", stats.OrphanedCount)

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - Would delete %d objects:", stats.OrphanedCount)
		for i, id := range orphaned {
			if i < 10 {
				logger.Info("  - %s", id)
			}
		}
		if len(orphaned) > 10 {
			logger.Info("  ... and %d more", len(orphaned)-10)
		}
		stats.EndTime = time.Now()
		return stats, nil
	}

	// ========================================================================
	// Phase 5: Batch-delete the orphaned objects
	// ========================================================================

	for i := 0; i < len(orphaned); i += c.config.BatchSize {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, err
		}

		end := i + c.config.BatchSize
		if end > len(orphaned) {
			end = len(orphaned)
		}

		batch := orphaned[i:end]

		failures, err := c.objects.DeleteBatch(ctx, batch)
		if err != nil {
			logger.Warn("GC: Batch delete failed: %v", err)
			stats.FailedCount += uint64(len(batch))
			continue
		}

		stats.DeletedCount += uint64(len(batch) - len(failures))
		stats.FailedCount += uint64(len(failures))

		for id, ferr := range failures {
			logger.Debug("GC: Failed to delete %s: %v", id, ferr)
		}
	}

	stats.EndTime = time.Now()

	logger.Info("GC: Completed - deleted %d objects, %d failed, duration=%s",
		stats.DeletedCount, stats.FailedCount, stats.Duration())

	return stats, nil
}

// Stats contains statistics from a garbage collection pass.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // Content IDs referenced by node records
	ExistingCount   uint64    // Committed objects in the content store
	OrphanedCount   uint64    // Orphaned objects found
	DeletedCount    uint64    // Orphaned objects successfully deleted
	FailedCount     uint64    // Orphaned objects that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the pass.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration())
}
