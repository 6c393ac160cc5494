package fs

import (
	"context"

	"github.com/arborfs/arborfs/pkg/store/record"
)

// Permissions is the permission engine. It evaluates the per-user triple
// algebra against the live tree through the record store, and never mutates
// permission state itself; all writes go through the tree engine.
//
// The algebra has no groups and no implicit superuser: a handle with no
// entry on a node is denied, and the acting user's entries on ancestors are
// evaluated like anyone else's. The single exception is the nil *User
// system caller, for which every check is vacuously true.
//
// The three bits of a triple compose as follows:
//
//   - read gates visibility top-down: a node is readable only if it and
//     every ancestor grant read, so one denied directory hides its whole
//     subtree
//   - write on a node permits changing the node itself
//   - propagate on a directory gates whether entries under it may be
//     individually modified (WritableSelf) and, together with write,
//     whether new entries may be created inside it (Writable)
type Permissions struct {
	fsys *Filesystem
}

// NewPermissions creates a permission engine over the given tree engine.
func NewPermissions(fsys *Filesystem) *Permissions {
	return &Permissions{fsys: fsys}
}

// Readable reports whether user has read access to node: read must be
// granted on the node and on every ancestor up to the root.
//
// Returns:
//   - bool: Whether access is granted
//   - error: Internal error if an ancestor record cannot be loaded
func (p *Permissions) Readable(ctx context.Context, node *record.Node, user *User) (bool, error) {
	if user == nil {
		return true, nil
	}

	current := node
	for {
		if !current.Permissions.Get(user.Handle).Read {
			return false, nil
		}
		if current.IsRoot() {
			return true, nil
		}

		parent, err := p.fsys.records.GetNode(ctx, current.ParentID)
		if err != nil {
			return false, NewInternalError("walk ancestors", err)
		}
		current = parent
	}
}

// Writable reports whether user may create or modify entries directly
// inside node: the node itself must grant both write and propagate.
func (p *Permissions) Writable(ctx context.Context, node *record.Node, user *User) (bool, error) {
	if user == nil {
		return true, nil
	}

	grant := node.Permissions.Get(user.Handle)
	return grant.Write && grant.Propagate, nil
}

// WritableSelf reports whether user may modify node as an entry of its
// parent: the node must grant write and the immediate parent must grant
// propagate. The root has no parent, so for the root the parent clause is
// vacuously true.
func (p *Permissions) WritableSelf(ctx context.Context, node *record.Node, user *User) (bool, error) {
	if user == nil {
		return true, nil
	}

	if !node.Permissions.Get(user.Handle).Write {
		return false, nil
	}
	if node.IsRoot() {
		return true, nil
	}

	parent, err := p.fsys.records.GetNode(ctx, node.ParentID)
	if err != nil {
		return false, NewInternalError("load parent", err)
	}

	return parent.Permissions.Get(user.Handle).Propagate, nil
}

// WritableAll reports whether WritableSelf holds for node and for every
// descendant, recursively. Destructive whole-subtree operations require
// this, so one denied descendant blocks the operation instead of letting
// it partially succeed.
func (p *Permissions) WritableAll(ctx context.Context, node *record.Node, user *User) (bool, error) {
	if user == nil {
		return true, nil
	}

	ok, err := p.WritableSelf(ctx, node, user)
	if err != nil || !ok {
		return false, err
	}

	return p.writableDescendants(ctx, node, user)
}

// ReadWritable reports Readable and Writable together.
func (p *Permissions) ReadWritable(ctx context.Context, node *record.Node, user *User) (bool, error) {
	ok, err := p.Readable(ctx, node, user)
	if err != nil || !ok {
		return false, err
	}
	return p.Writable(ctx, node, user)
}

// ReadWritableAll reports Readable and WritableAll together.
func (p *Permissions) ReadWritableAll(ctx context.Context, node *record.Node, user *User) (bool, error) {
	ok, err := p.Readable(ctx, node, user)
	if err != nil || !ok {
		return false, err
	}
	return p.WritableAll(ctx, node, user)
}

// writableDescendants checks write on every child against node's propagate
// bit and recurses. A childless node passes vacuously.
func (p *Permissions) writableDescendants(ctx context.Context, node *record.Node, user *User) (bool, error) {
	if !node.IsDir {
		return true, nil
	}

	propagate := node.Permissions.Get(user.Handle).Propagate

	children, err := p.fsys.records.ListChildren(ctx, node.ID)
	if err != nil {
		return false, NewInternalError("list children", err)
	}

	for _, child := range children {
		if !propagate || !child.Permissions.Get(user.Handle).Write {
			return false, nil
		}

		ok, err := p.writableDescendants(ctx, child, user)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}
