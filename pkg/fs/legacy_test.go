package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

func TestLegacyCollapsesFailuresToFalse(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "locked", nil)
	require.NoError(t, err)

	// Denied, missing, and invalid all read the same through the shim.
	require.False(t, l.CreateFile(ctx, "/locked", "f.txt", nil, u))
	require.False(t, l.CreateFile(ctx, "/missing", "f.txt", nil, u))
	require.False(t, l.Remove(ctx, "/", nil))
	require.False(t, l.Move(ctx, "/locked", "/locked", nil))

	require.True(t, l.CreateDirectory(ctx, "/", "open", nil))
	require.True(t, l.Rename(ctx, "/open", "renamed", nil))
	require.True(t, l.ChangeOwnership(ctx, "/renamed", "alice", nil))
	require.True(t, l.ChangePermissions(ctx, "/renamed", record.PermissionSet{"u": fullTriple}, false, nil))
	require.True(t, l.Remove(ctx, "/renamed", nil))
	require.True(t, l.ExpungeUserOwnership(ctx, "alice"))
}

func TestLegacyCopyAndMove(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)

	_, err := f.CreateFile(ctx, "/", "f.txt", stagePayload(t, f, []byte("x")), nil)
	require.NoError(t, err)
	_, err = f.CreateDirectory(ctx, "/", "dst", nil)
	require.NoError(t, err)

	require.True(t, l.Copy(ctx, "/f.txt", "/dst", nil))

	// The copy already parked an f.txt under /dst, so this move collides
	// and collapses to false.
	require.False(t, l.Move(ctx, "/f.txt", "/dst", nil))

	_, err = f.CreateDirectory(ctx, "/", "elsewhere", nil)
	require.NoError(t, err)
	require.True(t, l.Move(ctx, "/f.txt", "/elsewhere", nil))

	require.False(t, l.Copy(ctx, "/gone", "/dst", nil))
	require.False(t, l.Move(ctx, "/gone", "/dst", nil))
}

func TestLegacyGetContentReturnsEmptyOnFailure(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)
	u := &User{Handle: "u"}

	_, err := f.CreateFile(ctx, "/", "secret.txt", stagePayload(t, f, []byte("secret")), nil)
	require.NoError(t, err)

	// Denied and missing both collapse to the empty sentinel, so "no
	// access" reads exactly like "empty file".
	denied := l.GetContent(ctx, "/secret.txt", u)
	require.Same(t, content.Empty, denied)

	missing := l.GetContent(ctx, "/nope.txt", u)
	require.Same(t, content.Empty, missing)

	systemGrant(t, f, "/", "u", record.Triple{Read: true}, true)

	got := l.GetContent(ctx, "/secret.txt", u)
	require.Equal(t, []byte("secret"), got.Bytes())
}

func TestLegacyListDirectoryAlwaysReturnsSlice(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)

	entries := l.ListDirectory(ctx, "/missing", nil)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	_, err := f.CreateFile(ctx, "/", "f.txt", nil, nil)
	require.NoError(t, err)

	entries = l.ListDirectory(ctx, "/f.txt", nil)
	require.NotNil(t, entries)
	require.Empty(t, entries)

	entries = l.ListDirectory(ctx, "/", nil)
	require.Len(t, entries, 1)
}

func TestLegacyProbesMatchFacade(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)
	u := &User{Handle: "u"}

	_, err := f.CreateDirectory(ctx, "/", "docs", nil)
	require.NoError(t, err)
	systemGrant(t, f, "/", "u", record.Triple{Read: true}, false)
	systemGrant(t, f, "/docs", "u", record.Triple{Read: true}, false)

	require.True(t, l.Readable(ctx, "/docs", u))
	require.False(t, l.Writable(ctx, "/docs", u))
	require.False(t, l.WritableSelf(ctx, "/docs", u))
}

func TestLegacyCreateFileHandle(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	l := NewLegacy(f)

	stream := l.CreateFileHandle(ctx, content.OpenOptions{Mode: content.ModeWrite})
	require.NotSame(t, content.Empty, stream)

	_, err := stream.Write([]byte("through the shim"))
	require.NoError(t, err)
	require.True(t, l.CreateFile(ctx, "/", "f.txt", stream, nil))

	got := l.GetContent(ctx, "/f.txt", nil)
	require.Equal(t, []byte("through the shim"), got.Bytes())

	// A read handle on a missing object degrades to the sentinel.
	missing := l.CreateFileHandle(ctx, content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: content.ID("absent"),
	})
	require.Same(t, content.Empty, missing)
}
