// Package record defines the interface for node record stores.
//
// A record store persists the structural state of the filesystem tree: one
// record per node, a child index mapping (parent, name) pairs to node IDs,
// an owner index for reverse lookups, and the identity of the root node.
// It knows nothing about permission semantics or path resolution; those live
// in pkg/fs, which drives the store through the interfaces defined here.
//
// # Separation of Concerns
//
// The record store persists and retrieves records. It does not interpret
// them: permission triples are opaque values to the store, and the store
// never enforces tree invariants such as "a parent must be a directory".
// Callers (the tree engine) are responsible for maintaining those invariants,
// typically inside a transaction obtained from Transactor.
//
// # Implementations
//
//   - memory: in-memory store for tests and ephemeral deployments
//   - badger: embedded persistent store backed by BadgerDB
package record

import (
	"time"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// Node is a single filesystem tree node record.
//
// Directories and files share the same record shape. For directories,
// ContentID is empty and Size is zero. ParentID is uuid.Nil only for the
// root node.
type Node struct {
	// ID uniquely identifies the node for its whole lifetime. IDs are
	// never reused; copies receive fresh IDs.
	ID uuid.UUID `json:"id"`

	// ParentID is the ID of the containing directory, or uuid.Nil for
	// the root node.
	ParentID uuid.UUID `json:"parent_id"`

	// Name is the entry name under the parent directory. The root node
	// has an empty name.
	Name string `json:"name"`

	// IsDir reports whether the node is a directory.
	IsDir bool `json:"is_dir"`

	// Owner is the handle of the owning user. Ownership is a label used
	// for display and bulk reassignment; it grants no implicit access.
	Owner string `json:"owner"`

	// ContentID references the node's payload in the content store.
	// Empty for directories; file nodes always reference a committed
	// object, even when the payload is empty.
	ContentID content.ID `json:"content_id,omitempty"`

	// Size is the payload length in bytes. Zero for directories.
	Size uint64 `json:"size"`

	// UploadTime records when the node was created or its content last
	// replaced.
	UploadTime time.Time `json:"upload_time"`

	// Permissions holds the per-user permission triples recorded on this
	// node. Users without an entry have no access.
	Permissions PermissionSet `json:"permissions"`
}

// Clone returns a deep copy of the node. Mutating the copy (including its
// permission set) never affects the original.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	clone := *n
	clone.Permissions = n.Permissions.Clone()
	return &clone
}

// IsRoot reports whether the node is the tree root.
func (n *Node) IsRoot() bool {
	return n.ParentID == uuid.Nil
}
