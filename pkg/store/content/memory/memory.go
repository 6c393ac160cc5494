// Package memory provides an in-memory content store backend.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// MemoryContentStore implements content.Store using in-memory storage.
//
// All committed objects live in a map keyed by content.ID. It is designed
// for:
//   - Tests and development
//   - Ephemeral deployments where durability does not matter
//
// Characteristics:
//   - Fast: all operations are memory-speed
//   - Volatile: everything is lost on process exit
//   - Thread-safe: protected by an RWMutex
//
// Payloads handed out by Read are copied, so callers can never mutate a
// committed object through a returned slice.
type MemoryContentStore struct {
	// data holds committed payloads keyed by content ID
	data map[content.ID][]byte

	// mu protects concurrent access to data
	mu sync.RWMutex
}

// NewMemoryContentStore creates an empty in-memory content store.
//
// Parameters:
//   - ctx: Context for cancellation (checked before initialization)
//
// Returns:
//   - *MemoryContentStore: Initialized store
//   - error: Only returns error if context is cancelled
func NewMemoryContentStore(ctx context.Context) (*MemoryContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryContentStore{
		data: make(map[content.ID][]byte),
	}, nil
}

// Open allocates a stream.
//
// Write mode returns a fresh staging stream sized by the options. Read mode
// loads the committed payload named by opts.ObjectID into a read stream,
// failing with content.ErrNotFound for unknown identifiers.
func (s *MemoryContentStore) Open(ctx context.Context, opts content.OpenOptions) (*content.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Mode == content.ModeWrite {
		return content.NewWriteStream(opts.EstimatedLength, opts.InitialBytes), nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, exists := s.data[opts.ObjectID]
	if !exists {
		return nil, fmt.Errorf("open %s: %w", opts.ObjectID, content.ErrNotFound)
	}

	// Copy so the stream cannot alias the committed object
	buf := make([]byte, len(payload))
	copy(buf, payload)

	return content.NewReadStream(opts.ObjectID, buf), nil
}

// Commit seals a write stream into a new committed object.
func (s *MemoryContentStore) Commit(ctx context.Context, stream *content.Stream) (content.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// ========================================================================
	// Step 1: Seal the stream under a fresh identifier
	// ========================================================================

	id := content.NewID()

	payload, err := stream.Seal(id)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	// ========================================================================
	// Step 2: Store the payload
	// ========================================================================

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = payload

	return id, nil
}

// Read returns a copy of the payload for the given content ID.
func (s *MemoryContentStore) Read(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, exists := s.data[id]
	if !exists {
		return nil, fmt.Errorf("read %s: %w", id, content.ErrNotFound)
	}

	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Delete removes a committed object. Unknown identifiers are ignored.
func (s *MemoryContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)
	return nil
}

// List enumerates every committed object identifier.
func (s *MemoryContentStore) List(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]content.ID, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}

	return ids, nil
}

// DeleteBatch removes a batch of objects. Memory deletions cannot fail, so
// the returned failure map is always empty.
func (s *MemoryContentStore) DeleteBatch(ctx context.Context, ids []content.ID) (map[content.ID]error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		delete(s.data, id)
	}

	return map[content.ID]error{}, nil
}

// Healthcheck reports whether the store is usable.
func (s *MemoryContentStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close releases resources. For the memory store this is a no-op.
func (s *MemoryContentStore) Close() error {
	return nil
}
