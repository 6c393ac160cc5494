package record

import (
	"context"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// Nodes provides access to node records, the child index, and the owner
// index. All methods respect context cancellation.
type Nodes interface {
	// GetNode retrieves a node record by ID.
	// Returns ErrNotFound if no record exists for the ID.
	GetNode(ctx context.Context, id uuid.UUID) (*Node, error)

	// PutNode creates or replaces a node record. The owner index is kept
	// consistent: replacing a record whose owner changed moves the index
	// entry to the new owner.
	// Returns ErrInvalidArgument if the node is nil or has a nil ID.
	PutNode(ctx context.Context, node *Node) error

	// DeleteNode removes a node record, its owner index entry, and its
	// own child index entries. The entry naming the node under its parent
	// is not touched; callers remove that separately.
	// Returns ErrNotFound if no record exists for the ID.
	DeleteNode(ctx context.Context, id uuid.UUID) error

	// GetChild resolves a single child name under a parent directory.
	// Returns ErrNotFound if the parent has no child with that name.
	GetChild(ctx context.Context, parentID uuid.UUID, name string) (uuid.UUID, error)

	// SetChild creates or replaces the child index entry (parentID, name).
	// Returns ErrInvalidArgument if the name is empty.
	SetChild(ctx context.Context, parentID uuid.UUID, name string, childID uuid.UUID) error

	// DeleteChild removes the child index entry (parentID, name).
	// Returns ErrNotFound if no such entry exists.
	DeleteChild(ctx context.Context, parentID uuid.UUID, name string) error

	// ListChildren returns the node records of all children of a parent
	// directory, sorted by name. A childless parent yields an empty slice.
	ListChildren(ctx context.Context, parentID uuid.UUID) ([]*Node, error)

	// ListOwned returns the IDs of all nodes owned by the given handle,
	// in unspecified order. A handle owning nothing yields an empty slice.
	ListOwned(ctx context.Context, owner string) ([]uuid.UUID, error)

	// ListContentIDs returns the content IDs referenced by any node
	// record. Used by the garbage collector to identify orphaned objects.
	ListContentIDs(ctx context.Context) ([]content.ID, error)
}

// Roots tracks the identity of the tree root.
type Roots interface {
	// GetRoot returns the ID of the root node.
	// Returns ErrNotFound if the root has not been initialized yet.
	GetRoot(ctx context.Context) (uuid.UUID, error)

	// SetRoot records the ID of the root node.
	SetRoot(ctx context.Context, id uuid.UUID) error
}

// Transaction is the view of the store available inside a transaction.
// All reads observe earlier writes made in the same transaction.
type Transaction interface {
	Nodes
	Roots
}

// Transactor runs a function atomically against the store.
type Transactor interface {
	// WithTransaction executes fn inside a single transaction. If fn
	// returns an error the transaction is rolled back and the error is
	// returned; otherwise the transaction commits. Either every write fn
	// performed is visible afterwards, or none is.
	WithTransaction(ctx context.Context, fn func(tx Transaction) error) error
}

// Store is the complete record store interface. Methods called directly on
// the store (outside WithTransaction) are individually atomic.
type Store interface {
	Nodes
	Roots
	Transactor

	// Healthcheck verifies the backend is reachable and usable.
	Healthcheck(ctx context.Context) error

	// Close releases backend resources. The store must not be used after
	// Close returns.
	Close() error
}
