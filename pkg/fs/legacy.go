package fs

import (
	"context"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// Legacy exposes the original boolean contract on top of a Facade: every
// failure, whether a denial, a missing path, or a collision, collapses to
// false, and content reads collapse to the content.Empty sentinel.
//
// Callers cannot tell the failure modes apart through this surface; that
// is its defining weakness, kept only for compatibility. Where the
// distinction matters, legacy callers historically paired mutations with
// the Readable, Writable, and WritableSelf probes. New callers should use
// the Facade and its typed errors directly.
type Legacy struct {
	facade *Facade
}

// NewLegacy wraps a facade in the boolean-collapsing shim.
func NewLegacy(facade *Facade) *Legacy {
	return &Legacy{facade: facade}
}

// CreateFileHandle allocates a content stream; content.Empty on failure.
func (l *Legacy) CreateFileHandle(ctx context.Context, opts content.OpenOptions) *content.Stream {
	stream, err := l.facade.CreateFileHandle(ctx, opts)
	if err != nil {
		return content.Empty
	}
	return stream
}

// CreateFile reports whether the file was created.
func (l *Legacy) CreateFile(ctx context.Context, parentPath, name string, stream *content.Stream, user *User) bool {
	_, err := l.facade.CreateFile(ctx, parentPath, name, stream, user)
	return err == nil
}

// CreateDirectory reports whether the directory was created.
func (l *Legacy) CreateDirectory(ctx context.Context, parentPath, name string, user *User) bool {
	_, err := l.facade.CreateDirectory(ctx, parentPath, name, user)
	return err == nil
}

// Copy reports whether the subtree was copied.
func (l *Legacy) Copy(ctx context.Context, source, targetParent string, user *User) bool {
	_, err := l.facade.Copy(ctx, source, targetParent, user)
	return err == nil
}

// Move reports whether the subtree was moved.
func (l *Legacy) Move(ctx context.Context, source, targetParent string, user *User) bool {
	_, err := l.facade.Move(ctx, source, targetParent, user)
	return err == nil
}

// Remove reports whether the subtree was removed.
func (l *Legacy) Remove(ctx context.Context, path string, user *User) bool {
	return l.facade.Remove(ctx, path, user) == nil
}

// Rename reports whether the node was renamed.
func (l *Legacy) Rename(ctx context.Context, path, newName string, user *User) bool {
	_, err := l.facade.Rename(ctx, path, newName, user)
	return err == nil
}

// ChangeOwnership reports whether ownership was reassigned.
func (l *Legacy) ChangeOwnership(ctx context.Context, path, newOwner string, user *User) bool {
	return l.facade.ChangeOwnership(ctx, path, newOwner, user) == nil
}

// ChangePermissions reports whether the permission change applied.
func (l *Legacy) ChangePermissions(ctx context.Context, path string, perms record.PermissionSet, recursive bool, user *User) bool {
	return l.facade.ChangePermissions(ctx, path, perms, recursive, user) == nil
}

// ExpungeUserOwnership reports whether the expunge completed.
func (l *Legacy) ExpungeUserOwnership(ctx context.Context, handle string) bool {
	return l.facade.ExpungeUserOwnership(ctx, handle) == nil
}

// ListDirectory returns the visible entries, or an empty slice on any
// failure, including a path that is missing or names a file.
func (l *Legacy) ListDirectory(ctx context.Context, path string, user *User) []DirEntry {
	entries, err := l.facade.ListDirectory(ctx, path, user)
	if err != nil {
		return []DirEntry{}
	}
	return entries
}

// GetContent returns the file's payload stream, or content.Empty on any
// failure, so "no access", "no such file", and "empty file" all read as an
// empty payload.
func (l *Legacy) GetContent(ctx context.Context, path string, user *User) *content.Stream {
	stream, err := l.facade.GetContent(ctx, path, user)
	if err != nil {
		return content.Empty
	}
	return stream
}

// Readable probes read access; see Facade.Readable.
func (l *Legacy) Readable(ctx context.Context, path string, user *User) bool {
	return l.facade.Readable(ctx, path, user)
}

// Writable probes write access; see Facade.Writable.
func (l *Legacy) Writable(ctx context.Context, path string, user *User) bool {
	return l.facade.Writable(ctx, path, user)
}

// WritableSelf probes entry-level write access; see Facade.WritableSelf.
func (l *Legacy) WritableSelf(ctx context.Context, path string, user *User) bool {
	return l.facade.WritableSelf(ctx, path, user)
}
