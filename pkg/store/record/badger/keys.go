package badger

import (
	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so we use prefixed keys to organize the
// record store's data into logical namespaces. This design:
//   - Prevents key collisions between different data types
//   - Enables efficient range scans (all children of a directory, all nodes
//     owned by a handle)
//   - Makes the database structure self-documenting
//
// Nodes are identified by UUID v4 (random), which provides stable identity
// across renames and moves and collision resistance without coordination.
//
// Key Namespace Prefixes:
//
// Data Type        Prefix  Key Format                     Value Type
// =========================================================================
// Node Records     "n:"    n:<uuid>                       Node (JSON)
// Child Index      "c:"    c:<parentUUID>:<childName>     childUUID (16 bytes)
// Owner Index      "o:"    o:<owner>\x00<uuid>            (empty)
// Root Identity    "root"  root                           rootUUID (16 bytes)
//
// Key Design Rationale:
//
// 1. Node Records (n:)
//    - One entry per node, storing the complete Node struct
//    - Point lookup by UUID: O(1)
//    - Example: n:550e8400-e29b-41d4-a716-446655440000
//
// 2. Child Index (c:)
//    - Denormalized: one entry per child, not one map per directory
//    - List children: range scan over prefix "c:<parentUUID>:"
//    - The parent UUID renders to a fixed 36 characters, so the scan
//      prefix is unambiguous even when child names contain ':'
//    - Example: c:parent-uuid:file.txt -> child-uuid-bytes
//
// 3. Owner Index (o:)
//    - One entry per (owner, node) pair with an empty value; the key alone
//      carries the relation
//    - List owned nodes: range scan over prefix "o:<owner>\x00"
//    - NUL separates the variable-length owner handle from the UUID so a
//      handle can never alias another handle's scan prefix. Handles with
//      embedded NUL bytes are rejected by the user layer.
//    - Example: o:alice\x00550e8400... -> (empty)
//
// 4. Root Identity (root)
//    - Singleton recording which node is the tree root
//    - Point lookup: O(1)

const (
	nodeKeyPrefix  = "n:"
	childKeyPrefix = "c:"
	ownerKeyPrefix = "o:"
	rootKey        = "root"

	ownerKeySeparator = "\x00"
)

// nodeKey builds the key for a node record.
func nodeKey(id uuid.UUID) []byte {
	return []byte(nodeKeyPrefix + id.String())
}

// childKey builds the key for a child index entry.
func childKey(parentID uuid.UUID, name string) []byte {
	return []byte(childKeyPrefix + parentID.String() + ":" + name)
}

// childScanPrefix builds the range scan prefix covering all children of a
// parent.
func childScanPrefix(parentID uuid.UUID) []byte {
	return []byte(childKeyPrefix + parentID.String() + ":")
}

// ownerKey builds the key for an owner index entry.
func ownerKey(owner string, id uuid.UUID) []byte {
	return []byte(ownerKeyPrefix + owner + ownerKeySeparator + id.String())
}

// ownerScanPrefix builds the range scan prefix covering all nodes owned by
// a handle.
func ownerScanPrefix(owner string) []byte {
	return []byte(ownerKeyPrefix + owner + ownerKeySeparator)
}
