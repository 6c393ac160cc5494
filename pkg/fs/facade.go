package fs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// DirEntry describes one visible entry of a directory listing.
type DirEntry struct {
	// Name is the entry's file or directory name
	Name string

	// Size is the content size in bytes; zero for directories
	Size uint64

	// IsDir reports whether the entry is a directory
	IsDir bool

	// Owner is the handle of the owning user
	Owner string

	// UploadTime is when the entry was created or its content injected
	UploadTime time.Time

	// Writable reports whether the requesting user may modify this entry
	Writable bool
}

// Facade is the serialized, permission-checked entry point to the
// filesystem. Construct one per backing store pair; there are no package
// singletons, so isolated instances (one per test, per tenant) are cheap.
//
// Every operation acquires the facade's single mutex, evaluates the
// permission checks its table row requires, delegates to the tree engine,
// and releases the lock on every exit path. Because checks and mutation
// happen under one lock hold, no operation can act on permission state
// another operation is concurrently changing. The cost is full
// serialization: reads included, everything queues on one lock, and
// content byte copying for create and copy runs inside the critical
// section.
//
// The one deliberate exception is upload staging: CreateFileHandle holds
// the lock only while allocating the stream. Filling the stream is lock-free
// caller-side work, and only injecting it via CreateFile re-enters the
// critical section.
//
// Operations return nil on success and a typed *Error otherwise, so
// callers can tell a denial from a missing path from a name collision.
// Callers ported from the boolean contract can wrap the facade in a
// Legacy shim instead.
type Facade struct {
	mu      sync.Mutex
	tree    *Filesystem
	perms   *Permissions
	objects content.Store
	metrics FacadeMetrics
}

// Option configures a Facade.
type Option func(*Facade)

// WithMetrics attaches a metrics implementation to the facade. Passing nil
// keeps the default no-op implementation.
func WithMetrics(m FacadeMetrics) Option {
	return func(f *Facade) {
		if m != nil {
			f.metrics = m
		}
	}
}

// New constructs a facade over the given stores and initializes the tree
// root if the record store is empty.
//
// Parameters:
//   - ctx: Context for cancellation during root initialization
//   - records: Node record storage
//   - objects: Content object storage
//   - opts: Optional configuration (metrics)
//
// Returns:
//   - *Facade: Ready-to-use filesystem entry point
//   - error: Internal error if root initialization fails
func New(ctx context.Context, records record.Store, objects content.Store, opts ...Option) (*Facade, error) {
	tree := NewFilesystem(records, objects)

	f := &Facade{
		tree:    tree,
		perms:   NewPermissions(tree),
		objects: objects,
		metrics: noopFacadeMetrics{},
	}
	for _, opt := range opts {
		opt(f)
	}

	if _, err := tree.EnsureRoot(ctx); err != nil {
		return nil, err
	}

	return f, nil
}

// begin acquires the filesystem lock and returns the completion callback
// that releases it and records the operation's metrics.
func (f *Facade) begin(operation string) func(err error) {
	waitStart := time.Now()
	f.mu.Lock()
	f.metrics.ObserveLockWait(operation, time.Since(waitStart))

	opStart := time.Now()
	return func(err error) {
		f.mu.Unlock()
		f.metrics.ObserveOperation(operation, time.Since(opStart), err)
		if IsPermissionDenied(err) {
			f.metrics.RecordDenied(operation)
		}
	}
}

// CreateFileHandle allocates a content stream without touching the tree.
//
// The returned stream is filled by the caller outside the filesystem lock;
// only injecting it through CreateFile serializes with other operations.
// In read mode opts.ObjectID must name an existing committed object.
//
// Returns:
//   - *content.Stream: Fresh write stream, or a read stream over the object
//   - error: NotFound if a requested object is missing
func (f *Facade) CreateFileHandle(ctx context.Context, opts content.OpenOptions) (stream *content.Stream, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("create_file_handle")
	defer func() { done(err) }()

	stream, oerr := f.objects.Open(ctx, opts)
	if oerr != nil {
		if errors.Is(oerr, content.ErrNotFound) {
			return nil, &Error{Code: ErrNotFound, Message: "content object not found"}
		}
		return nil, NewInternalError("open stream", oerr)
	}

	return stream, nil
}

// CreateFile injects a staged stream into the tree as a new file under
// parentPath. Requires Writable on the parent directory. The new node is
// owned by the acting user (DefaultOwner for the system caller).
//
// Parameters:
//   - ctx: Context for cancellation
//   - parentPath: Directory to create the file in
//   - name: File name, unique among siblings
//   - stream: Uncommitted write stream, or nil for an empty file
//   - user: Acting user, nil for the system caller
//
// Returns:
//   - *record.Node: The created file node
//   - error: PermissionDenied, NotFound, Conflict, or Invalid
func (f *Facade) CreateFile(ctx context.Context, parentPath, name string, stream *content.Stream, user *User) (node *record.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("create_file")
	defer func() { done(err) }()

	if user != nil {
		parent, rerr := f.tree.Resolve(ctx, parentPath)
		if rerr != nil {
			return nil, rerr
		}
		ok, perr := f.perms.Writable(ctx, parent, user)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, NewPermissionDeniedError(parentPath)
		}
	}

	created, cerr := f.tree.CreateFile(ctx, parentPath, name, OwnerHandle(user), stream)
	if cerr != nil {
		return nil, cerr
	}
	if stream != nil {
		f.metrics.RecordBytes("write", int64(stream.Len()))
	}

	return created, nil
}

// CreateDirectory creates an empty directory under parentPath. Requires
// Writable on the parent directory; same contract as CreateFile.
func (f *Facade) CreateDirectory(ctx context.Context, parentPath, name string, user *User) (node *record.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("create_directory")
	defer func() { done(err) }()

	if user != nil {
		parent, rerr := f.tree.Resolve(ctx, parentPath)
		if rerr != nil {
			return nil, rerr
		}
		ok, perr := f.perms.Writable(ctx, parent, user)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, NewPermissionDeniedError(parentPath)
		}
	}

	return f.tree.CreateDirectory(ctx, parentPath, name, OwnerHandle(user))
}

// Copy deep-clones the subtree at source under targetParent. Requires
// Readable on source and Writable on targetParent. The copy's destination
// may be source's own parent; a colliding name gets a " (copy)" suffix.
//
// After a successful copy by a regular user, ownership of the entire new
// subtree is reassigned to that user.
//
// Returns:
//   - *record.Node: Root of the copied subtree
//   - error: PermissionDenied, NotFound, Conflict (copy into own subtree),
//     or Invalid
func (f *Facade) Copy(ctx context.Context, source, targetParent string, user *User) (node *record.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("copy")
	defer func() { done(err) }()

	if user != nil {
		src, rerr := f.tree.Resolve(ctx, source)
		if rerr != nil {
			return nil, rerr
		}
		ok, perr := f.perms.Readable(ctx, src, user)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, NewPermissionDeniedError(source)
		}

		dst, rerr := f.tree.Resolve(ctx, targetParent)
		if rerr != nil {
			return nil, rerr
		}
		ok, perr = f.perms.Writable(ctx, dst, user)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, NewPermissionDeniedError(targetParent)
		}
	}

	// Reowning to the acting user happens inside the clone's link
	// transaction, so a failure leaves no half-reowned subtree behind.
	copied, cerr := f.tree.CopyWithHandle(ctx, source, targetParent, reownHandle(user))
	if cerr != nil {
		return nil, cerr
	}

	return copied, nil
}

// reownHandle is the owner copies and moves assign to the relocated
// subtree: the acting user's handle, or none for the system caller.
func reownHandle(user *User) string {
	if user == nil {
		return ""
	}
	return user.Handle
}

// Move relinks the subtree at source under targetParent. Requires Readable,
// WritableAll, and WritableSelf on source plus Writable on targetParent:
// moving destroys the source location of every node in the subtree, so the
// whole subtree must be writable, not just its root.
//
// After a successful move by a regular user, ownership of the moved
// subtree is reassigned to that user.
//
// Returns:
//   - *record.Node: The moved node
//   - error: PermissionDenied, NotFound, Conflict (collision, move into
//     own subtree), or Invalid (moving the root)
func (f *Facade) Move(ctx context.Context, source, targetParent string, user *User) (node *record.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("move")
	defer func() { done(err) }()

	if user != nil {
		src, rerr := f.tree.Resolve(ctx, source)
		if rerr != nil {
			return nil, rerr
		}
		if ok, perr := f.perms.Readable(ctx, src, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(source)
		}
		if ok, perr := f.perms.WritableAll(ctx, src, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(source)
		}
		if ok, perr := f.perms.WritableSelf(ctx, src, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(source)
		}

		dst, rerr := f.tree.Resolve(ctx, targetParent)
		if rerr != nil {
			return nil, rerr
		}
		if ok, perr := f.perms.Writable(ctx, dst, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(targetParent)
		}
	}

	moved, merr := f.tree.MoveWithHandle(ctx, source, targetParent, reownHandle(user))
	if merr != nil {
		return nil, merr
	}

	return moved, nil
}

// Remove recursively deletes the subtree at path. Requires Readable,
// WritableSelf, and WritableAll on path: one descendant denying write
// blocks the whole removal, leaving the tree untouched.
//
// Returns:
//   - error: PermissionDenied, NotFound, or Invalid (removing the root)
func (f *Facade) Remove(ctx context.Context, path string, user *User) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := f.begin("remove")
	defer func() { done(err) }()

	if user != nil {
		node, rerr := f.tree.Resolve(ctx, path)
		if rerr != nil {
			return rerr
		}
		if ok, perr := f.perms.Readable(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
		if ok, perr := f.perms.WritableSelf(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
		if ok, perr := f.perms.WritableAll(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
	}

	return f.tree.Remove(ctx, path)
}

// Rename changes the name of the node at path. Requires ReadWritable and
// WritableSelf on path.
//
// Returns:
//   - *record.Node: The renamed node
//   - error: PermissionDenied, NotFound, Conflict, or Invalid
func (f *Facade) Rename(ctx context.Context, path, newName string, user *User) (node *record.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("rename")
	defer func() { done(err) }()

	if user != nil {
		target, rerr := f.tree.Resolve(ctx, path)
		if rerr != nil {
			return nil, rerr
		}
		if ok, perr := f.perms.ReadWritable(ctx, target, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(path)
		}
		if ok, perr := f.perms.WritableSelf(ctx, target, user); perr != nil || !ok {
			if perr != nil {
				return nil, perr
			}
			return nil, NewPermissionDeniedError(path)
		}
	}

	return f.tree.Rename(ctx, path, newName)
}

// ChangeOwnership recursively reassigns the owner of the subtree at path.
// Requires ReadWritableAll and WritableSelf on path.
func (f *Facade) ChangeOwnership(ctx context.Context, path, newOwner string, user *User) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := f.begin("change_ownership")
	defer func() { done(err) }()

	if user != nil {
		node, rerr := f.tree.Resolve(ctx, path)
		if rerr != nil {
			return rerr
		}
		if ok, perr := f.perms.ReadWritableAll(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
		if ok, perr := f.perms.WritableSelf(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
	}

	return f.tree.ChangeOwnership(ctx, path, newOwner)
}

// ChangePermissions sets permission triples for the given handles on the
// node at path, or on the whole subtree when recursive is set. Requires
// ReadWritableAll and WritableSelf on path.
//
// A denied call leaves every permission map untouched; there is no partial
// application.
func (f *Facade) ChangePermissions(ctx context.Context, path string, perms record.PermissionSet, recursive bool, user *User) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := f.begin("change_permissions")
	defer func() { done(err) }()

	if user != nil {
		node, rerr := f.tree.Resolve(ctx, path)
		if rerr != nil {
			return rerr
		}
		if ok, perr := f.perms.ReadWritableAll(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
		if ok, perr := f.perms.WritableSelf(ctx, node, user); perr != nil || !ok {
			if perr != nil {
				return perr
			}
			return NewPermissionDeniedError(path)
		}
	}

	return f.tree.ChangePermissions(ctx, path, perms, recursive)
}

// ExpungeUserOwnership reassigns every node owned by handle to its parent's
// owner. System-only: there is no user parameter and no permission gating,
// so expose this to trusted account-maintenance callers only.
func (f *Facade) ExpungeUserOwnership(ctx context.Context, handle string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := f.begin("expunge_user_ownership")
	defer func() { done(err) }()

	return f.tree.ExpungeUserOwnership(ctx, handle)
}

// ListDirectory returns the visible entries of the directory at path,
// sorted by name. Entries the user cannot read are silently omitted rather
// than reported, and each visible entry carries a Writable flag computed
// as WritableSelf for the requesting user. The system caller sees every
// entry with Writable set.
//
// Returns:
//   - []DirEntry: Visible entries, possibly empty
//   - error: NotFound if the path is missing, Invalid for files
func (f *Facade) ListDirectory(ctx context.Context, path string, user *User) (entries []DirEntry, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("list_directory")
	defer func() { done(err) }()

	children, lerr := f.tree.ListDirectory(ctx, path)
	if lerr != nil {
		return nil, lerr
	}

	entries = make([]DirEntry, 0, len(children))
	for _, child := range children {
		writable := true

		if user != nil {
			readable, perr := f.perms.Readable(ctx, child, user)
			if perr != nil {
				return nil, perr
			}
			if !readable {
				continue
			}

			writable, perr = f.perms.WritableSelf(ctx, child, user)
			if perr != nil {
				return nil, perr
			}
		}

		entries = append(entries, DirEntry{
			Name:       child.Name,
			Size:       child.Size,
			IsDir:      child.IsDir,
			Owner:      child.Owner,
			UploadTime: child.UploadTime,
			Writable:   writable,
		})
	}

	return entries, nil
}

// GetContent opens a read stream over the file at path. Requires Readable
// on path. An empty file yields a read stream over its empty content
// object.
//
// Returns:
//   - *content.Stream: Committed read stream carrying the payload
//   - error: PermissionDenied, NotFound, or Invalid for directories
func (f *Facade) GetContent(ctx context.Context, path string, user *User) (stream *content.Stream, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := f.begin("get_content")
	defer func() { done(err) }()

	if user != nil {
		node, rerr := f.tree.Resolve(ctx, path)
		if rerr != nil {
			return nil, rerr
		}
		ok, perr := f.perms.Readable(ctx, node, user)
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, NewPermissionDeniedError(path)
		}
	}

	stream, gerr := f.tree.GetContent(ctx, path)
	if gerr != nil {
		return nil, gerr
	}
	f.metrics.RecordBytes("read", int64(stream.Len()))

	return stream, nil
}

// Readable is a pure permission probe: it reports whether user can read
// the node at path. The system caller always can; a path that does not
// resolve is not readable.
func (f *Facade) Readable(ctx context.Context, path string, user *User) bool {
	if ctx.Err() != nil {
		return false
	}
	var err error
	done := f.begin("readable")
	defer func() { done(err) }()

	if user == nil {
		return true
	}

	node, rerr := f.tree.Resolve(ctx, path)
	if rerr != nil {
		err = rerr
		return false
	}

	ok, perr := f.perms.Readable(ctx, node, user)
	if perr != nil {
		err = perr
		return false
	}
	return ok
}

// Writable is a pure permission probe: it reports whether user may create
// or modify entries directly inside the node at path.
func (f *Facade) Writable(ctx context.Context, path string, user *User) bool {
	if ctx.Err() != nil {
		return false
	}
	var err error
	done := f.begin("writable")
	defer func() { done(err) }()

	if user == nil {
		return true
	}

	node, rerr := f.tree.Resolve(ctx, path)
	if rerr != nil {
		err = rerr
		return false
	}

	ok, perr := f.perms.Writable(ctx, node, user)
	if perr != nil {
		err = perr
		return false
	}
	return ok
}

// WritableSelf is a pure permission probe: it reports whether user may
// modify the node at path as an entry of its parent.
func (f *Facade) WritableSelf(ctx context.Context, path string, user *User) bool {
	if ctx.Err() != nil {
		return false
	}
	var err error
	done := f.begin("writable_self")
	defer func() { done(err) }()

	if user == nil {
		return true
	}

	node, rerr := f.tree.Resolve(ctx, path)
	if rerr != nil {
		err = rerr
		return false
	}

	ok, perr := f.perms.WritableSelf(ctx, node, user)
	if perr != nil {
		err = perr
		return false
	}
	return ok
}
