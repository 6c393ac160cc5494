// Package content defines the content store: storage for the raw byte
// payloads of files, addressed by opaque identifiers and kept strictly
// separate from tree metadata.
//
// Separation of Concerns:
//
// The content store manages only bytes. It does NOT manage:
//   - Node metadata (names, owners, permissions) → handled by the record store
//   - The directory hierarchy → handled by the tree engine
//   - Access control → handled by the permission engine
//
// The tree engine stores a content.ID on each file node and never inspects
// payload bytes. Content objects are immutable once committed: changing a
// file's bytes means committing a new object and repointing the node, so a
// committed ID always names the same payload.
//
// Staging Model:
//
// Writes go through a Stream: an in-memory staging buffer created by Open in
// write mode, filled incrementally by the caller, and turned into a committed
// object by Commit. Creating and filling a stream touches neither the tree
// nor the store's committed space, which lets uploads proceed outside the
// filesystem lock; only committing and linking require it.
package content

import (
	"context"

	"github.com/google/uuid"
)

// ID is an opaque identifier for a committed content object.
//
// IDs are unique within a store and must be treated as opaque by callers;
// only the store implementation interprets them. The empty ID never names a
// committed object (directory nodes carry an empty ID).
type ID string

// NewID returns a fresh content object identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// Mode selects the direction of a Stream.
type Mode int

const (
	// ModeRead streams an existing committed object to the caller.
	ModeRead Mode = iota

	// ModeWrite stages bytes for a future Commit.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeWrite:
		return "write"
	default:
		return "unknown"
	}
}

// OpenOptions configures Store.Open.
type OpenOptions struct {
	// Mode selects read or write. Defaults to ModeRead.
	Mode Mode

	// EstimatedLength pre-sizes the staging buffer for write streams. It is
	// a hint only; streams grow past it as needed.
	EstimatedLength int

	// ObjectID names the committed object to load. Required in read mode,
	// ignored in write mode.
	ObjectID ID

	// InitialBytes seeds the staging buffer of a write stream.
	InitialBytes []byte
}

// Store provides content object storage.
//
// Implementations must be safe for concurrent use by multiple goroutines.
// Committed objects are immutable; Delete is the only way they change, and
// it is idempotent.
type Store interface {
	// Open allocates a Stream.
	//
	// In write mode the stream is a fresh staging buffer (optionally
	// pre-sized and seeded via OpenOptions); nothing is stored until Commit.
	// In read mode OpenOptions.ObjectID must name an existing committed
	// object, otherwise Open fails with ErrNotFound.
	Open(ctx context.Context, opts OpenOptions) (*Stream, error)

	// Commit finalizes a write stream into an immutable content object and
	// returns its new identifier. The stream is sealed: further writes fail
	// with ErrStreamCommitted. Committing a read stream fails with
	// ErrStreamMode.
	Commit(ctx context.Context, stream *Stream) (ID, error)

	// Read returns the full payload of a committed object, or ErrNotFound
	// if the identifier is unknown.
	Read(ctx context.Context, id ID) ([]byte, error)

	// Delete removes a committed object. Deleting an unknown identifier is
	// not an error.
	Delete(ctx context.Context, id ID) error

	// List enumerates every committed object identifier. Used by the
	// garbage collector to reconcile against the record store.
	List(ctx context.Context) ([]ID, error)

	// DeleteBatch removes a batch of objects and reports per-identifier
	// failures. A missing identifier is not a failure. The returned map is
	// empty when every deletion succeeded.
	DeleteBatch(ctx context.Context, ids []ID) (map[ID]error, error)

	// Healthcheck verifies the backing storage is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
