// Package fs implements a database-backed virtual filesystem: a tree of
// named nodes with per-user permission inheritance, node records in a
// record store and file payloads in a content store.
//
// # Architecture
//
// Three collaborators share the package:
//
//   - Filesystem, the tree engine: path resolution and structural mutation
//   - Permissions, the permission engine: evaluates the per-user algebra
//   - Facade, the serialized entry point: one lock, checks before mutation
//
// The Facade is the public surface. It orders permission checks before
// every tree mutation and serializes all operations on a single mutex, so a
// check can never race the mutation it guards. The tree engine assumes its
// caller has already authorized the operation; using it directly is acting
// as the system.
//
// # Atomicity
//
// Every structural mutation runs inside one record store transaction. A
// failed multi-step operation leaves the tree exactly as it was; at worst a
// crash can strand committed content objects that no node references yet,
// which the garbage collector reclaims.
package fs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// Filesystem is the tree engine. It resolves slash-delimited paths against
// the record store and performs structural mutations, delegating payload
// bytes to the content store.
//
// The engine performs no permission checks and no locking of its own; both
// are the Facade's job. Every method that mutates the tree does so inside a
// single record store transaction.
type Filesystem struct {
	records record.Store
	objects content.Store
}

// NewFilesystem creates a tree engine over the given stores.
func NewFilesystem(records record.Store, objects content.Store) *Filesystem {
	return &Filesystem{
		records: records,
		objects: objects,
	}
}

// EnsureRoot initializes the tree root if the record store is empty and
// returns the root node ID.
//
// A fresh root is a directory owned by DefaultOwner with an empty
// permission map, so no regular user can see or touch anything until the
// system grants access explicitly.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - uuid.UUID: ID of the existing or newly created root
//   - error: Internal error if the record store fails
func (f *Filesystem) EnsureRoot(ctx context.Context) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	rootID, err := f.records.GetRoot(ctx)
	if err == nil {
		return rootID, nil
	}
	if !record.IsNotFound(err) {
		return uuid.Nil, NewInternalError("load root", err)
	}

	root := &record.Node{
		ID:          uuid.New(),
		ParentID:    uuid.Nil,
		Name:        "",
		IsDir:       true,
		Owner:       DefaultOwner,
		UploadTime:  time.Now().UTC(),
		Permissions: record.PermissionSet{},
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.PutNode(ctx, root); err != nil {
			return err
		}
		return tx.SetRoot(ctx, root.ID)
	})
	if err != nil {
		return uuid.Nil, NewInternalError("initialize root", err)
	}

	return root.ID, nil
}

// Resolve walks a slash-delimited path from the root and returns the node
// it names. The root path ("" or "/") resolves to the root node.
//
// Returns:
//   - *record.Node: The resolved node
//   - error: NotFound if any segment is missing, Internal on store failure
func (f *Filesystem) Resolve(ctx context.Context, path string) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rootID, err := f.records.GetRoot(ctx)
	if err != nil {
		if record.IsNotFound(err) {
			return nil, NewInternalError("resolve", errors.New("root not initialized"))
		}
		return nil, NewInternalError("resolve", err)
	}

	node, err := f.records.GetNode(ctx, rootID)
	if err != nil {
		return nil, NewInternalError("resolve", err)
	}

	for _, segment := range SplitPath(path) {
		// Files have no children, so a path that walks through one
		// cannot resolve.
		if !node.IsDir {
			return nil, NewNotFoundError(path)
		}

		childID, err := f.records.GetChild(ctx, node.ID, segment)
		if err != nil {
			if record.IsNotFound(err) {
				return nil, NewNotFoundError(path)
			}
			return nil, NewInternalError("resolve", err)
		}

		node, err = f.records.GetNode(ctx, childID)
		if err != nil {
			return nil, NewInternalError("resolve", err)
		}
	}

	return node, nil
}

// CreateFile commits a content stream and links a new file node under the
// parent directory. The owner starts with a full grant on the new node.
//
// The stream must be an uncommitted write stream; nil creates an empty
// file backed by its own empty content object, so file nodes always
// reference committed content. The content commit happens before the record
// transaction, so a failed link can only strand an unreferenced object for
// the garbage collector, never a node without content.
//
// Parameters:
//   - ctx: Context for cancellation
//   - parentPath: Path of the directory to create the file in
//   - name: File name, unique among the parent's children
//   - owner: Handle that will own the new node
//   - stream: Staged content, or nil for an empty file
//
// Returns:
//   - *record.Node: The created file node
//   - error: NotFound if the parent is missing, Invalid if the parent is a
//     file or an argument is malformed, Conflict on a sibling collision
func (f *Filesystem) CreateFile(ctx context.Context, parentPath, name, owner string, stream *content.Stream) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	parent, err := f.resolveDirectory(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if err := f.checkNameFree(ctx, parent.ID, name, parentPath); err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 1: Commit the staged content outside the record transaction
	// ========================================================================

	if stream == nil {
		stream = content.NewWriteStream(0, nil)
	}

	contentID, err := f.objects.Commit(ctx, stream)
	if err != nil {
		if errors.Is(err, content.ErrStreamMode) || errors.Is(err, content.ErrStreamCommitted) {
			return nil, NewInvalidError(fmt.Sprintf("content stream not committable: %v", err))
		}
		return nil, NewInternalError("commit content", err)
	}
	size := uint64(stream.Len())

	// ========================================================================
	// Step 2: Link the node record
	// ========================================================================

	node := &record.Node{
		ID:         uuid.New(),
		ParentID:   parent.ID,
		Name:       name,
		IsDir:      false,
		Owner:      owner,
		ContentID:  contentID,
		Size:       size,
		UploadTime: time.Now().UTC(),
		Permissions: record.PermissionSet{
			owner: {Read: true, Write: true, Propagate: true},
		},
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.PutNode(ctx, node); err != nil {
			return err
		}
		return tx.SetChild(ctx, parent.ID, name, node.ID)
	})
	if err != nil {
		// The committed object is unreferenced; reclaim it eagerly and
		// leave anything that survives to the garbage collector.
		_ = f.objects.Delete(ctx, contentID)
		return nil, NewInternalError("create file", err)
	}

	return node, nil
}

// CreateDirectory links a new empty directory node under the parent. The
// owner starts with a full grant on the new node.
//
// Returns:
//   - *record.Node: The created directory node
//   - error: Same contract as CreateFile
func (f *Filesystem) CreateDirectory(ctx context.Context, parentPath, name, owner string) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateOwner(owner); err != nil {
		return nil, err
	}

	parent, err := f.resolveDirectory(ctx, parentPath)
	if err != nil {
		return nil, err
	}
	if err := f.checkNameFree(ctx, parent.ID, name, parentPath); err != nil {
		return nil, err
	}

	node := &record.Node{
		ID:         uuid.New(),
		ParentID:   parent.ID,
		Name:       name,
		IsDir:      true,
		Owner:      owner,
		UploadTime: time.Now().UTC(),
		Permissions: record.PermissionSet{
			owner: {Read: true, Write: true, Propagate: true},
		},
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.PutNode(ctx, node); err != nil {
			return err
		}
		return tx.SetChild(ctx, parent.ID, name, node.ID)
	})
	if err != nil {
		return nil, NewInternalError("create directory", err)
	}

	return node, nil
}

// CopyWithHandle deep-clones the subtree rooted at source under the target
// parent directory and returns the new subtree root.
//
// Content bytes are always duplicated, never shared: each copied file gets
// its own content object, so the lifetimes of original and copy are fully
// independent and no reference counting is needed. Owners and permission
// maps are cloned verbatim unless newOwner is non-empty, in which case
// every copied node is owned by newOwner.
//
// The target parent may be the source's own parent; a colliding name is
// deduplicated with a " (copy)" / " (copy N)" suffix. Copying a node into
// its own subtree is rejected, since the clone would have to contain
// itself.
//
// Parameters:
//   - ctx: Context for cancellation
//   - source: Path of the node to copy
//   - targetParent: Path of the directory to copy into
//   - newOwner: Owner for the copied nodes, or "" to keep the originals'
//
// Returns:
//   - *record.Node: Root node of the copied subtree
//   - error: NotFound if either path is missing, Invalid if the target
//     parent is a file, Conflict if targetParent lies inside source
func (f *Filesystem) CopyWithHandle(ctx context.Context, source, targetParent, newOwner string) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := f.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	dst, err := f.resolveDirectory(ctx, targetParent)
	if err != nil {
		return nil, err
	}

	inside, err := f.inSubtreeOf(ctx, dst, src.ID)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, NewConflictError(source, "cannot copy a node into its own subtree")
	}

	name, err := f.freeCopyName(ctx, dst.ID, src.Name)
	if err != nil {
		return nil, err
	}

	nodes, err := f.collectSubtree(ctx, src)
	if err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 1: Duplicate content objects outside the record transaction
	// ========================================================================

	staged := make(map[uuid.UUID]content.ID)

	duplicate := func() error {
		for _, n := range nodes {
			if n.ContentID == "" {
				continue
			}

			payload, err := f.objects.Read(ctx, n.ContentID)
			if err != nil {
				return fmt.Errorf("read content %s: %w", n.ContentID, err)
			}

			stream, err := f.objects.Open(ctx, content.OpenOptions{
				Mode:            content.ModeWrite,
				EstimatedLength: len(payload),
				InitialBytes:    payload,
			})
			if err != nil {
				return fmt.Errorf("stage content: %w", err)
			}

			id, err := f.objects.Commit(ctx, stream)
			if err != nil {
				return fmt.Errorf("commit content: %w", err)
			}
			staged[n.ID] = id
		}
		return nil
	}

	if err := duplicate(); err != nil {
		f.discardStaged(ctx, staged)
		return nil, NewInternalError("copy", err)
	}

	// ========================================================================
	// Step 2: Clone the records, remapping IDs and the subtree root's link
	// ========================================================================

	idMap := make(map[uuid.UUID]uuid.UUID, len(nodes))
	clones := make([]*record.Node, 0, len(nodes))
	now := time.Now().UTC()

	for _, n := range nodes {
		clone := n.Clone()
		clone.ID = uuid.New()
		idMap[n.ID] = clone.ID

		if n.ID == src.ID {
			clone.ParentID = dst.ID
			clone.Name = name
		} else {
			// collectSubtree yields parents before children, so the
			// parent's new ID is already mapped.
			clone.ParentID = idMap[n.ParentID]
		}

		if id, ok := staged[n.ID]; ok {
			clone.ContentID = id
		}
		if newOwner != "" {
			clone.Owner = newOwner
		}
		clone.UploadTime = now

		clones = append(clones, clone)
	}

	// ========================================================================
	// Step 3: Link the whole clone in one transaction
	// ========================================================================

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		for _, clone := range clones {
			if err := tx.PutNode(ctx, clone); err != nil {
				return err
			}
			if err := tx.SetChild(ctx, clone.ParentID, clone.Name, clone.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		f.discardStaged(ctx, staged)
		return nil, NewInternalError("copy", err)
	}

	return clones[0], nil
}

// MoveWithHandle relinks the subtree rooted at source under the target
// parent directory without touching content, and returns the moved node.
// A non-empty newOwner reassigns ownership of every node in the moved
// subtree inside the same transaction as the relink, so a failure leaves
// both the links and the owners untouched.
//
// Unlike CopyWithHandle there is no name deduplication: a sibling collision
// under the target parent is a Conflict. Moving a node into its current
// parent collides with the node itself, and moving it into its own subtree
// would detach the subtree from the tree entirely; both are rejected.
//
// Returns:
//   - *record.Node: The moved node with its updated parent
//   - error: NotFound, Invalid (moving the root, target parent is a file),
//     or Conflict per the rules above
func (f *Filesystem) MoveWithHandle(ctx context.Context, source, targetParent, newOwner string) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := f.Resolve(ctx, source)
	if err != nil {
		return nil, err
	}
	if src.IsRoot() {
		return nil, NewInvalidError("cannot move the root")
	}

	dst, err := f.resolveDirectory(ctx, targetParent)
	if err != nil {
		return nil, err
	}

	inside, err := f.inSubtreeOf(ctx, dst, src.ID)
	if err != nil {
		return nil, err
	}
	if inside {
		return nil, NewConflictError(source, "cannot move a node into its own subtree")
	}
	if err := f.checkNameFree(ctx, dst.ID, src.Name, targetParent); err != nil {
		return nil, err
	}

	moved := src.Clone()
	moved.ParentID = dst.ID
	if newOwner != "" {
		moved.Owner = newOwner
	}

	var reowned []*record.Node
	if newOwner != "" {
		nodes, err := f.collectSubtree(ctx, src)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if n.ID == src.ID || n.Owner == newOwner {
				continue
			}
			updated := n.Clone()
			updated.Owner = newOwner
			reowned = append(reowned, updated)
		}
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.DeleteChild(ctx, src.ParentID, src.Name); err != nil {
			return err
		}
		if err := tx.PutNode(ctx, moved); err != nil {
			return err
		}
		if err := tx.SetChild(ctx, dst.ID, moved.Name, moved.ID); err != nil {
			return err
		}
		for _, n := range reowned {
			if err := tx.PutNode(ctx, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewInternalError("move", err)
	}

	return moved, nil
}

// Remove recursively deletes the subtree rooted at path and releases its
// content objects. Removing the root is disallowed.
//
// The record transaction commits first; content deletion is best-effort
// afterwards, with the garbage collector reclaiming anything a crash or
// store failure leaves behind.
//
// Returns:
//   - error: NotFound if the path is missing, Invalid for the root
func (f *Filesystem) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return err
	}
	if node.IsRoot() {
		return NewInvalidError("cannot remove the root")
	}

	nodes, err := f.collectSubtree(ctx, node)
	if err != nil {
		return err
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.DeleteChild(ctx, node.ParentID, node.Name); err != nil {
			return err
		}
		for _, n := range nodes {
			if err := tx.DeleteNode(ctx, n.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewInternalError("remove", err)
	}

	ids := make([]content.ID, 0, len(nodes))
	for _, n := range nodes {
		if n.ContentID != "" {
			ids = append(ids, n.ContentID)
		}
	}
	if len(ids) > 0 {
		_, _ = f.objects.DeleteBatch(ctx, ids)
	}

	return nil
}

// Rename changes the name of the node at path, re-checking sibling
// uniqueness under its parent. Renaming to the current name is a no-op.
//
// Returns:
//   - *record.Node: The renamed node
//   - error: NotFound, Invalid (root, malformed name), Conflict on
//     collision
func (f *Filesystem) Rename(ctx context.Context, path, newName string) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(newName); err != nil {
		return nil, err
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, NewInvalidError("cannot rename the root")
	}
	if newName == node.Name {
		return node, nil
	}
	if err := f.checkNameFree(ctx, node.ParentID, newName, path); err != nil {
		return nil, err
	}

	renamed := node.Clone()
	renamed.Name = newName

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		if err := tx.DeleteChild(ctx, node.ParentID, node.Name); err != nil {
			return err
		}
		if err := tx.PutNode(ctx, renamed); err != nil {
			return err
		}
		return tx.SetChild(ctx, node.ParentID, newName, node.ID)
	})
	if err != nil {
		return nil, NewInternalError("rename", err)
	}

	return renamed, nil
}

// ChangeOwnership recursively reassigns the owner of every node in the
// subtree rooted at path.
func (f *Filesystem) ChangeOwnership(ctx context.Context, path, newOwner string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateOwner(newOwner); err != nil {
		return err
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return err
	}

	return f.reownSubtree(ctx, node, newOwner)
}

// ChangePermissions sets the permission triples of the given handles on the
// node at path, leaving other handles' entries untouched. With recursive
// set, the same triples are applied to every node in the subtree.
//
// Parameters:
//   - ctx: Context for cancellation
//   - path: Path of the node to modify
//   - perms: Triples to set, keyed by user handle
//   - recursive: Apply to the whole subtree instead of the single node
func (f *Filesystem) ChangePermissions(ctx context.Context, path string, perms record.PermissionSet, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return err
	}

	targets := []*record.Node{node}
	if recursive {
		targets, err = f.collectSubtree(ctx, node)
		if err != nil {
			return err
		}
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		for _, n := range targets {
			updated := n.Clone()
			if updated.Permissions == nil {
				updated.Permissions = record.PermissionSet{}
			}
			for handle, triple := range perms {
				updated.Permissions[handle] = triple
			}
			if err := tx.PutNode(ctx, updated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewInternalError("change permissions", err)
	}

	return nil
}

// ExpungeUserOwnership reassigns every node owned by handle to its parent's
// owner. Used when deleting a user or group, so no node is left referencing
// a dead handle.
//
// Nodes are processed parents before children, so a chain of nodes owned by
// the expunged handle converges in one pass: each child picks up the owner
// its parent was just reassigned to. A root owned by handle falls back to
// DefaultOwner. Calling this for a handle that owns nothing is a no-op,
// which makes the operation idempotent.
func (f *Filesystem) ExpungeUserOwnership(ctx context.Context, handle string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateOwner(handle); err != nil {
		return err
	}

	ids, err := f.records.ListOwned(ctx, handle)
	if err != nil {
		return NewInternalError("list owned", err)
	}
	if len(ids) == 0 {
		return nil
	}

	// ========================================================================
	// Step 1: Order the owned nodes by depth, shallowest first
	// ========================================================================

	type ownedNode struct {
		id    uuid.UUID
		depth int
	}

	owned := make([]ownedNode, 0, len(ids))
	for _, id := range ids {
		node, err := f.records.GetNode(ctx, id)
		if err != nil {
			if record.IsNotFound(err) {
				continue
			}
			return NewInternalError("expunge ownership", err)
		}
		depth, err := f.depth(ctx, node)
		if err != nil {
			return err
		}
		owned = append(owned, ownedNode{id: id, depth: depth})
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].depth < owned[j].depth
	})

	// ========================================================================
	// Step 2: Reassign in one transaction, reading parents through the
	// transaction so earlier reassignments in the batch are visible
	// ========================================================================

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		for _, o := range owned {
			node, err := tx.GetNode(ctx, o.id)
			if err != nil {
				if record.IsNotFound(err) {
					continue
				}
				return err
			}
			if node.Owner != handle {
				continue
			}

			newOwner := DefaultOwner
			if !node.IsRoot() {
				parent, err := tx.GetNode(ctx, node.ParentID)
				if err != nil {
					return err
				}
				newOwner = parent.Owner
			}

			updated := node.Clone()
			updated.Owner = newOwner
			if err := tx.PutNode(ctx, updated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewInternalError("expunge ownership", err)
	}

	return nil
}

// ListDirectory returns the immediate children of the directory at path,
// sorted by name. It does not recurse and does not filter by permission;
// the Facade applies per-entry visibility on top.
//
// Returns:
//   - []*record.Node: Child node records, possibly empty
//   - error: NotFound if the path is missing, Invalid for files
func (f *Filesystem) ListDirectory(ctx context.Context, path string) ([]*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if !node.IsDir {
		return nil, NewInvalidError(fmt.Sprintf("not a directory: %s", path))
	}

	children, err := f.records.ListChildren(ctx, node.ID)
	if err != nil {
		return nil, NewInternalError("list children", err)
	}

	return children, nil
}

// GetContent opens a read stream over the payload of the file at path. An
// empty file yields a read stream over its empty content object.
//
// Returns:
//   - *content.Stream: Committed read stream carrying the payload
//   - error: NotFound if the path is missing, Invalid for directories,
//     Internal if the linked content object is gone
func (f *Filesystem) GetContent(ctx context.Context, path string) (*content.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	node, err := f.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if node.IsDir {
		return nil, NewInvalidError(fmt.Sprintf("is a directory: %s", path))
	}

	stream, err := f.objects.Open(ctx, content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: node.ContentID,
	})
	if err != nil {
		// A linked object must exist; a missing one is store
		// inconsistency, not a caller error.
		return nil, NewInternalError("open content", err)
	}

	return stream, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// resolveDirectory resolves a path that must name a directory.
func (f *Filesystem) resolveDirectory(ctx context.Context, path string) (*record.Node, error) {
	node, err := f.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}
	if !node.IsDir {
		return nil, NewInvalidError(fmt.Sprintf("not a directory: %s", path))
	}
	return node, nil
}

// checkNameFree fails with Conflict if the parent already has a child with
// the given name.
func (f *Filesystem) checkNameFree(ctx context.Context, parentID uuid.UUID, name, path string) error {
	_, err := f.records.GetChild(ctx, parentID, name)
	if err == nil {
		return NewConflictError(path, fmt.Sprintf("name already exists: %s", name))
	}
	if !record.IsNotFound(err) {
		return NewInternalError("check name", err)
	}
	return nil
}

// inSubtreeOf reports whether node lies in the subtree rooted at the node
// with the given ID, walking the parent chain up to the root. A node is in
// its own subtree.
func (f *Filesystem) inSubtreeOf(ctx context.Context, node *record.Node, rootID uuid.UUID) (bool, error) {
	current := node
	for {
		if current.ID == rootID {
			return true, nil
		}
		if current.IsRoot() {
			return false, nil
		}

		parent, err := f.records.GetNode(ctx, current.ParentID)
		if err != nil {
			return false, NewInternalError("walk ancestors", err)
		}
		current = parent
	}
}

// collectSubtree returns the subtree rooted at root in breadth-first order,
// parents before children, starting with root itself.
func (f *Filesystem) collectSubtree(ctx context.Context, root *record.Node) ([]*record.Node, error) {
	nodes := []*record.Node{root}

	for i := 0; i < len(nodes); i++ {
		if !nodes[i].IsDir {
			continue
		}
		children, err := f.records.ListChildren(ctx, nodes[i].ID)
		if err != nil {
			return nil, NewInternalError("collect subtree", err)
		}
		nodes = append(nodes, children...)
	}

	return nodes, nil
}

// depth returns the number of edges between node and the root.
func (f *Filesystem) depth(ctx context.Context, node *record.Node) (int, error) {
	d := 0
	current := node
	for !current.IsRoot() {
		parent, err := f.records.GetNode(ctx, current.ParentID)
		if err != nil {
			return 0, NewInternalError("walk ancestors", err)
		}
		current = parent
		d++
	}
	return d, nil
}

// reownSubtree assigns owner to every node in the subtree rooted at node.
func (f *Filesystem) reownSubtree(ctx context.Context, node *record.Node, owner string) error {
	nodes, err := f.collectSubtree(ctx, node)
	if err != nil {
		return err
	}

	err = f.records.WithTransaction(ctx, func(tx record.Transaction) error {
		for _, n := range nodes {
			if n.Owner == owner {
				continue
			}
			updated := n.Clone()
			updated.Owner = owner
			if err := tx.PutNode(ctx, updated); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return NewInternalError("change ownership", err)
	}

	return nil
}

// freeCopyName returns base if it is free under the parent, otherwise the
// first free " (copy)" / " (copy N)" variant.
func (f *Filesystem) freeCopyName(ctx context.Context, parentID uuid.UUID, base string) (string, error) {
	for attempt := 0; ; attempt++ {
		name := base
		switch {
		case attempt == 1:
			name = base + " (copy)"
		case attempt > 1:
			name = fmt.Sprintf("%s (copy %d)", base, attempt)
		}

		_, err := f.records.GetChild(ctx, parentID, name)
		if record.IsNotFound(err) {
			return name, nil
		}
		if err != nil {
			return "", NewInternalError("probe copy name", err)
		}
	}
}

// discardStaged best-effort deletes content objects staged for an operation
// that failed. Anything left behind is unreferenced and reclaimed by the
// garbage collector.
func (f *Filesystem) discardStaged(ctx context.Context, staged map[uuid.UUID]content.ID) {
	for _, id := range staged {
		_ = f.objects.Delete(ctx, id)
	}
}

// validateName rejects names that cannot live in the child index: the empty
// name, path separators, the "." and ".." walk tokens, and NUL bytes.
func validateName(name string) error {
	switch {
	case name == "":
		return NewInvalidError("name must not be empty")
	case name == "." || name == "..":
		return NewInvalidError(fmt.Sprintf("name %q is reserved", name))
	case strings.ContainsRune(name, '/'):
		return NewInvalidError("name must not contain '/'")
	case strings.ContainsRune(name, '\x00'):
		return NewInvalidError("name must not contain NUL")
	}
	return nil
}

// validateOwner rejects handles that cannot live in the owner index.
func validateOwner(owner string) error {
	switch {
	case owner == "":
		return NewInvalidError("owner handle must not be empty")
	case strings.ContainsRune(owner, '\x00'):
		return NewInvalidError("owner handle must not contain NUL")
	}
	return nil
}
