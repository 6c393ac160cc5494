package testing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// newTestNode builds a node record with sensible defaults for tests.
func newTestNode(name, owner string, isDir bool) *record.Node {
	node := &record.Node{
		ID:         uuid.New(),
		ParentID:   uuid.New(),
		Name:       name,
		IsDir:      isDir,
		Owner:      owner,
		UploadTime: time.Now().UTC().Truncate(time.Second),
		Permissions: record.PermissionSet{
			owner: record.Triple{Read: true, Write: true, Propagate: true},
		},
	}
	if !isDir {
		node.ContentID = content.NewID()
		node.Size = 42
	}
	return node
}

// mustPut stores a node and fails the test on error.
func mustPut(t *testing.T, store record.Store, node *record.Node) {
	t.Helper()
	require.NoError(t, store.PutNode(testContext(), node))
}

// mustLink stores a node and registers it under its parent.
func mustLink(t *testing.T, store record.Store, node *record.Node) {
	t.Helper()
	mustPut(t, store, node)
	require.NoError(t, store.SetChild(testContext(), node.ParentID, node.Name, node.ID))
}
