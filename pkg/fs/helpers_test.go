package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
	contentmemory "github.com/arborfs/arborfs/pkg/store/content/memory"
	"github.com/arborfs/arborfs/pkg/store/record"
	recordmemory "github.com/arborfs/arborfs/pkg/store/record/memory"
)

// fullTriple grants read, write, and propagate.
var fullTriple = record.Triple{Read: true, Write: true, Propagate: true}

// newTestStores creates fresh in-memory record and content stores.
func newTestStores(t *testing.T) (record.Store, content.Store) {
	t.Helper()

	records, err := recordmemory.NewMemoryRecordStore(context.Background())
	require.NoError(t, err)

	objects, err := contentmemory.NewMemoryContentStore(context.Background())
	require.NoError(t, err)

	return records, objects
}

// newTestEngine creates a tree engine over fresh stores with an
// initialized root.
func newTestEngine(t *testing.T) (*Filesystem, content.Store) {
	t.Helper()

	records, objects := newTestStores(t)
	fsys := NewFilesystem(records, objects)

	_, err := fsys.EnsureRoot(context.Background())
	require.NoError(t, err)

	return fsys, objects
}

// newTestFacade creates a facade over fresh in-memory stores.
func newTestFacade(t *testing.T) *Facade {
	t.Helper()

	records, objects := newTestStores(t)

	f, err := New(context.Background(), records, objects)
	require.NoError(t, err)

	return f
}

// stageBytes opens a write stream seeded with payload, ready to inject.
func stageBytes(t *testing.T, objects content.Store, payload []byte) *content.Stream {
	t.Helper()

	stream, err := objects.Open(context.Background(), content.OpenOptions{
		Mode:         content.ModeWrite,
		InitialBytes: payload,
	})
	require.NoError(t, err)

	return stream
}

// grant sets one handle's triple on a path acting as the system.
func grant(t *testing.T, fsys *Filesystem, path, handle string, triple record.Triple, recursive bool) {
	t.Helper()

	err := fsys.ChangePermissions(context.Background(), path, record.PermissionSet{handle: triple}, recursive)
	require.NoError(t, err)
}

// mustFile creates a file with the given payload acting as the system.
func mustFile(t *testing.T, fsys *Filesystem, objects content.Store, parent, name string, payload []byte) *record.Node {
	t.Helper()

	node, err := fsys.CreateFile(context.Background(), parent, name, DefaultOwner, stageBytes(t, objects, payload))
	require.NoError(t, err)

	return node
}

// mustDir creates a directory acting as the system.
func mustDir(t *testing.T, fsys *Filesystem, parent, name string) *record.Node {
	t.Helper()

	node, err := fsys.CreateDirectory(context.Background(), parent, name, DefaultOwner)
	require.NoError(t, err)

	return node
}
