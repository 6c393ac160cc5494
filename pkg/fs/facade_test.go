package fs

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// systemGrant sets one handle's triple through the facade as the system.
func systemGrant(t *testing.T, f *Facade, path, handle string, triple record.Triple, recursive bool) {
	t.Helper()

	err := f.ChangePermissions(context.Background(), path, record.PermissionSet{handle: triple}, recursive, nil)
	require.NoError(t, err)
}

// stagePayload allocates a write stream through the facade and fills it.
func stagePayload(t *testing.T, f *Facade, payload []byte) *content.Stream {
	t.Helper()

	stream, err := f.CreateFileHandle(context.Background(), content.OpenOptions{Mode: content.ModeWrite})
	require.NoError(t, err)

	_, err = stream.Write(payload)
	require.NoError(t, err)

	return stream
}

func TestFacadeCreateFileGating(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "home", nil)
	require.NoError(t, err)

	_, err = f.CreateFile(ctx, "/home", "f.txt", stagePayload(t, f, []byte("x")), u)
	require.True(t, IsPermissionDenied(err))

	// Creation needs write and propagate on the parent itself; the
	// ancestor chain is not consulted.
	systemGrant(t, f, "/home", "u", record.Triple{Write: true, Propagate: true}, false)

	node, err := f.CreateFile(ctx, "/home", "f.txt", stagePayload(t, f, []byte("x")), u)
	require.NoError(t, err)
	require.Equal(t, "u", node.Owner)
	require.Equal(t, fullTriple, node.Permissions.Get("u"))
}

func TestFacadeCreateFileMissingParent(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	// A missing parent reports NotFound even to an unprivileged caller;
	// the typed surface distinguishes what the boolean one collapsed.
	_, err := f.CreateFile(ctx, "/nowhere", "f.txt", nil, &User{Handle: "u"})
	require.True(t, IsNotFound(err))
}

func TestFacadeSystemCreatesAsDefaultOwner(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	node, err := f.CreateFile(ctx, "/", "f.txt", nil, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultOwner, node.Owner)
}

func TestFacadeContentRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	stream, err := f.CreateFileHandle(ctx, content.OpenOptions{Mode: content.ModeWrite})
	require.NoError(t, err)

	// The stream is filled outside the lock, in as many writes as the
	// caller likes.
	_, err = stream.Write([]byte("hello, "))
	require.NoError(t, err)
	_, err = stream.Write([]byte("world"))
	require.NoError(t, err)

	_, err = f.CreateFile(ctx, "/", "greeting.txt", stream, nil)
	require.NoError(t, err)

	got, err := f.GetContent(ctx, "/greeting.txt", nil)
	require.NoError(t, err)
	require.Equal(t, []byte("hello, world"), got.Bytes())

	entries, err := f.ListDirectory(ctx, "/", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, uint64(len("hello, world")), entries[0].Size)
}

func TestFacadeCreateFileHandleReadMissing(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	_, err := f.CreateFileHandle(ctx, content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: content.ID("no-such-object"),
	})
	require.True(t, IsNotFound(err))
}

func TestFacadeCopyReownsSubtree(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/src", "sub", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/src/sub", "f.txt", stagePayload(t, f, []byte("deep")), nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/", "dst", nil)
	require.NoError(t, err)

	systemGrant(t, f, "/", "u", record.Triple{Read: true}, true)
	systemGrant(t, f, "/dst", "u", record.Triple{Read: true, Write: true, Propagate: true}, false)

	copied, err := f.Copy(ctx, "/src", "/dst", u)
	require.NoError(t, err)
	require.Equal(t, "u", copied.Owner)

	// Every node of the copied subtree now belongs to the acting user;
	// the originals are untouched.
	for _, path := range []string{"/dst/src", "/dst/src/sub", "/dst/src/sub/f.txt"} {
		node, err := f.tree.Resolve(ctx, path)
		require.NoError(t, err)
		require.Equal(t, "u", node.Owner, "owner of %s", path)
	}
	for _, path := range []string{"/src", "/src/sub", "/src/sub/f.txt"} {
		node, err := f.tree.Resolve(ctx, path)
		require.NoError(t, err)
		require.Equal(t, DefaultOwner, node.Owner, "owner of %s", path)
	}
}

func TestFacadeCopyDeniedWithoutRead(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/", "dst", nil)
	require.NoError(t, err)
	systemGrant(t, f, "/dst", "u", record.Triple{Write: true, Propagate: true}, false)

	_, err = f.Copy(ctx, "/src", "/dst", u)
	require.True(t, IsPermissionDenied(err))

	entries, err := f.ListDirectory(ctx, "/dst", nil)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestFacadeMoveRequiresFullSubtreeWrite(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/src", "sub", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/src/sub", "f.txt", stagePayload(t, f, []byte("x")), nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/", "dst", nil)
	require.NoError(t, err)

	systemGrant(t, f, "/", "u", fullTriple, true)
	// One descendant without write blocks the whole move.
	systemGrant(t, f, "/src/sub/f.txt", "u", record.Triple{Read: true}, false)

	_, err = f.Move(ctx, "/src", "/dst", u)
	require.True(t, IsPermissionDenied(err))

	_, err = f.tree.Resolve(ctx, "/src/sub/f.txt")
	require.NoError(t, err, "denied move must not change the tree")

	systemGrant(t, f, "/src/sub/f.txt", "u", fullTriple, false)

	moved, err := f.Move(ctx, "/src", "/dst", u)
	require.NoError(t, err)
	require.Equal(t, "u", moved.Owner)

	_, err = f.tree.Resolve(ctx, "/src")
	require.True(t, IsNotFound(err))

	file, err := f.tree.Resolve(ctx, "/dst/src/sub/f.txt")
	require.NoError(t, err)
	require.Equal(t, "u", file.Owner, "move reassigns ownership of the whole subtree")
}

func TestFacadeMoveCycleRejected(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/src", "sub", nil)
	require.NoError(t, err)
	systemGrant(t, f, "/", "u", fullTriple, true)

	_, err = f.Move(ctx, "/src", "/src/sub", u)
	require.True(t, IsConflict(err))

	// Both nodes are exactly where they were.
	_, err = f.tree.Resolve(ctx, "/src/sub")
	require.NoError(t, err)
}

func TestFacadeRemoveBlockedByDescendant(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/src", "keep.txt", stagePayload(t, f, []byte("keep")), nil)
	require.NoError(t, err)

	systemGrant(t, f, "/", "u", fullTriple, true)
	systemGrant(t, f, "/src/keep.txt", "u", record.Triple{Read: true}, false)

	err = f.Remove(ctx, "/src", u)
	require.True(t, IsPermissionDenied(err))

	got, err := f.GetContent(ctx, "/src/keep.txt", nil)
	require.NoError(t, err)
	require.Equal(t, []byte("keep"), got.Bytes())

	// With the grant restored the same removal goes through.
	systemGrant(t, f, "/src/keep.txt", "u", fullTriple, false)
	require.NoError(t, f.Remove(ctx, "/src", u))

	_, err = f.tree.Resolve(ctx, "/src")
	require.True(t, IsNotFound(err))
}

func TestFacadeListDirectoryFiltersUnreadable(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "docs", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/docs", "a.txt", stagePayload(t, f, []byte("a")), nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/docs", "b.txt", stagePayload(t, f, []byte("b")), nil)
	require.NoError(t, err)

	systemGrant(t, f, "/", "u", record.Triple{Read: true}, false)
	systemGrant(t, f, "/docs", "u", record.Triple{Read: true}, false)
	systemGrant(t, f, "/docs/a.txt", "u", record.Triple{Read: true}, false)

	entries, err := f.ListDirectory(ctx, "/docs", u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].Name)
	require.False(t, entries[0].Writable)

	// Write on the entry plus propagate on the directory makes the
	// entry writable.
	systemGrant(t, f, "/docs", "u", record.Triple{Read: true, Propagate: true}, false)
	systemGrant(t, f, "/docs/a.txt", "u", record.Triple{Read: true, Write: true}, false)

	entries, err = f.ListDirectory(ctx, "/docs", u)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Writable)

	// The system caller sees everything.
	entries, err = f.ListDirectory(ctx, "/docs", nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Writable)
	require.True(t, entries[1].Writable)
}

func TestFacadeRootDenialHidesEverything(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "docs", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/docs", "a.txt", nil, nil)
	require.NoError(t, err)

	// Grants everywhere except the root: the broken ancestor chain
	// hides every entry.
	systemGrant(t, f, "/docs", "u", fullTriple, true)

	entries, err := f.ListDirectory(ctx, "/docs", u)
	require.NoError(t, err)
	require.Empty(t, entries)

	require.False(t, f.Readable(ctx, "/docs/a.txt", u))
}

func TestFacadeGetContentGating(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateFile(ctx, "/", "f.txt", stagePayload(t, f, []byte("secret")), nil)
	require.NoError(t, err)

	_, err = f.GetContent(ctx, "/f.txt", u)
	require.True(t, IsPermissionDenied(err))

	systemGrant(t, f, "/", "u", record.Triple{Read: true}, false)
	systemGrant(t, f, "/f.txt", "u", record.Triple{Read: true}, false)

	got, err := f.GetContent(ctx, "/f.txt", u)
	require.NoError(t, err)
	require.Equal(t, []byte("secret"), got.Bytes())

	_, err = f.GetContent(ctx, "/missing.txt", u)
	require.True(t, IsNotFound(err))

	_, err = f.GetContent(ctx, "/", nil)
	require.True(t, IsInvalid(err))
}

func TestFacadeChangePermissionsAtomicUnderDenial(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/src", "a.txt", nil, nil)
	require.NoError(t, err)
	_, err = f.CreateFile(ctx, "/src", "b.txt", nil, nil)
	require.NoError(t, err)

	systemGrant(t, f, "/", "u", fullTriple, true)
	// b.txt denies write, so ReadWritableAll on /src fails.
	systemGrant(t, f, "/src/b.txt", "u", record.Triple{Read: true}, false)

	paths := []string{"/src", "/src/a.txt", "/src/b.txt"}
	before := make(map[string]record.PermissionSet, len(paths))
	for _, path := range paths {
		node, err := f.tree.Resolve(ctx, path)
		require.NoError(t, err)
		before[path] = node.Permissions
	}

	err = f.ChangePermissions(ctx, "/src", record.PermissionSet{"w": fullTriple}, true, u)
	require.True(t, IsPermissionDenied(err))

	// The denied call left every permission map exactly as it was.
	for _, path := range paths {
		node, err := f.tree.Resolve(ctx, path)
		require.NoError(t, err)
		require.Equal(t, before[path], node.Permissions, "permissions of %s", path)
	}
}

func TestFacadeRenameGating(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateFile(ctx, "/", "old.txt", nil, nil)
	require.NoError(t, err)

	_, err = f.Rename(ctx, "/old.txt", "new.txt", u)
	require.True(t, IsPermissionDenied(err))

	systemGrant(t, f, "/", "u", record.Triple{Read: true, Propagate: true}, false)
	systemGrant(t, f, "/old.txt", "u", fullTriple, false)

	renamed, err := f.Rename(ctx, "/old.txt", "new.txt", u)
	require.NoError(t, err)
	require.Equal(t, "new.txt", renamed.Name)
}

func TestFacadeChangeOwnershipGating(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "src", nil)
	require.NoError(t, err)

	err = f.ChangeOwnership(ctx, "/src", "u", u)
	require.True(t, IsPermissionDenied(err))

	systemGrant(t, f, "/", "u", record.Triple{Read: true, Propagate: true}, false)
	systemGrant(t, f, "/src", "u", fullTriple, false)

	require.NoError(t, f.ChangeOwnership(ctx, "/src", "u", u))

	node, err := f.tree.Resolve(ctx, "/src")
	require.NoError(t, err)
	require.Equal(t, "u", node.Owner)
}

func TestFacadeExpungeUserOwnership(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "pub", nil)
	require.NoError(t, err)
	systemGrant(t, f, "/pub", "u", fullTriple, false)

	_, err = f.CreateFile(ctx, "/pub", "mine.txt", nil, u)
	require.NoError(t, err)

	require.NoError(t, f.ExpungeUserOwnership(ctx, "u"))

	node, err := f.tree.Resolve(ctx, "/pub/mine.txt")
	require.NoError(t, err)
	require.Equal(t, DefaultOwner, node.Owner, "reassigned to the parent's owner")

	// Idempotent: the handle owns nothing anymore.
	require.NoError(t, f.ExpungeUserOwnership(ctx, "u"))
}

func TestFacadeProbes(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "docs", nil)
	require.NoError(t, err)
	systemGrant(t, f, "/", "u", record.Triple{Read: true, Propagate: true}, false)
	systemGrant(t, f, "/docs", "u", record.Triple{Read: true, Write: true}, false)

	require.True(t, f.Readable(ctx, "/docs", u))
	require.False(t, f.Writable(ctx, "/docs", u), "write without propagate")
	require.True(t, f.WritableSelf(ctx, "/docs", u))

	// The system caller probes true without resolving.
	require.True(t, f.Readable(ctx, "/does/not/exist", nil))

	// A regular user cannot read what does not resolve.
	require.False(t, f.Readable(ctx, "/does/not/exist", u))
	require.False(t, f.Writable(ctx, "/does/not/exist", u))
	require.False(t, f.WritableSelf(ctx, "/does/not/exist", u))
}

func TestFacadeNotFoundVersusDenied(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "locked", nil)
	require.NoError(t, err)

	require.True(t, IsNotFound(f.Remove(ctx, "/missing", u)))
	require.True(t, IsPermissionDenied(f.Remove(ctx, "/locked", u)))
}

func TestFacadeSerializesConcurrentCallers(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	const workers = 16

	// Streams are staged up front; only the injections race.
	streams := make([]*content.Stream, workers)
	for i := range streams {
		streams[i] = stagePayload(t, f, []byte(fmt.Sprintf("payload %d", i)))
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.CreateFile(ctx, "/", fmt.Sprintf("f-%02d.txt", i), streams[i], nil)
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := f.ListDirectory(ctx, "/", nil)
	require.NoError(t, err)
	require.Len(t, entries, workers)
}
