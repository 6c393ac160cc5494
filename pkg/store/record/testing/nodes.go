package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// RunNodeTests executes all node record and index operation tests.
func (suite *StoreTestSuite) RunNodeTests(t *testing.T) {
	t.Run("GetNode_NotFound", suite.testGetNodeNotFound)
	t.Run("PutNode_Roundtrip", suite.testPutNodeRoundtrip)
	t.Run("PutNode_NilNode", suite.testPutNodeNil)
	t.Run("PutNode_Replace", suite.testPutNodeReplace)
	t.Run("PutNode_OwnerChange", suite.testPutNodeOwnerChange)
	t.Run("PutNode_ReturnedNodeIsIsolated", suite.testNodeIsolation)
	t.Run("DeleteNode_NotFound", suite.testDeleteNodeNotFound)
	t.Run("DeleteNode_RemovesOwnerEntry", suite.testDeleteNodeOwner)
	t.Run("DeleteNode_DropsOwnChildIndex", suite.testDeleteNodeChildIndex)
	t.Run("Child_SetGetDelete", suite.testChildSetGetDelete)
	t.Run("Child_EmptyName", suite.testChildEmptyName)
	t.Run("Child_Overwrite", suite.testChildOverwrite)
	t.Run("ListChildren_Empty", suite.testListChildrenEmpty)
	t.Run("ListChildren_SortedByName", suite.testListChildrenSorted)
	t.Run("ListChildren_NameWithColon", suite.testListChildrenColonName)
	t.Run("ListOwned_Empty", suite.testListOwnedEmpty)
	t.Run("ListOwned_MultipleNodes", suite.testListOwnedMultiple)
	t.Run("ListOwned_SimilarHandles", suite.testListOwnedSimilarHandles)
	t.Run("ListContentIDs", suite.testListContentIDs)
}

func (suite *StoreTestSuite) testGetNodeNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetNode(testContext(), uuid.New())
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) testPutNodeRoundtrip(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("report.txt", "alice", false)
	node.Permissions["bob"] = record.Triple{Read: true}
	mustPut(t, store, node)

	got, err := store.GetNode(testContext(), node.ID)
	require.NoError(t, err)

	assert.Equal(t, node.ID, got.ID)
	assert.Equal(t, node.ParentID, got.ParentID)
	assert.Equal(t, node.Name, got.Name)
	assert.Equal(t, node.IsDir, got.IsDir)
	assert.Equal(t, node.Owner, got.Owner)
	assert.Equal(t, node.ContentID, got.ContentID)
	assert.Equal(t, node.Size, got.Size)
	assert.True(t, node.UploadTime.Equal(got.UploadTime))
	assert.Equal(t, node.Permissions, got.Permissions)
}

func (suite *StoreTestSuite) testPutNodeNil(t *testing.T) {
	store := suite.NewStore(t)

	err := store.PutNode(testContext(), nil)
	require.Error(t, err)
	assert.True(t, record.IsInvalidArgument(err), "expected InvalidArgument, got %v", err)

	err = store.PutNode(testContext(), &record.Node{})
	require.Error(t, err)
	assert.True(t, record.IsInvalidArgument(err), "expected InvalidArgument, got %v", err)
}

func (suite *StoreTestSuite) testPutNodeReplace(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("draft.txt", "alice", false)
	mustPut(t, store, node)

	node.Name = "final.txt"
	node.Size = 99
	mustPut(t, store, node)

	got, err := store.GetNode(testContext(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, "final.txt", got.Name)
	assert.Equal(t, uint64(99), got.Size)
}

func (suite *StoreTestSuite) testPutNodeOwnerChange(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("handover.txt", "alice", false)
	mustPut(t, store, node)

	node.Owner = "bob"
	mustPut(t, store, node)

	aliceOwned, err := store.ListOwned(testContext(), "alice")
	require.NoError(t, err)
	assert.Empty(t, aliceOwned)

	bobOwned, err := store.ListOwned(testContext(), "bob")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{node.ID}, bobOwned)
}

func (suite *StoreTestSuite) testNodeIsolation(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("guarded.txt", "alice", false)
	mustPut(t, store, node)

	got, err := store.GetNode(testContext(), node.ID)
	require.NoError(t, err)

	// Mutating the returned record must not leak into the store
	got.Name = "tampered"
	got.Permissions["mallory"] = record.Triple{Read: true, Write: true, Propagate: true}

	fresh, err := store.GetNode(testContext(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, "guarded.txt", fresh.Name)
	assert.NotContains(t, fresh.Permissions, "mallory")
}

func (suite *StoreTestSuite) testDeleteNodeNotFound(t *testing.T) {
	store := suite.NewStore(t)

	err := store.DeleteNode(testContext(), uuid.New())
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) testDeleteNodeOwner(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("ephemeral.txt", "alice", false)
	mustPut(t, store, node)

	require.NoError(t, store.DeleteNode(testContext(), node.ID))

	_, err := store.GetNode(testContext(), node.ID)
	assert.True(t, record.IsNotFound(err))

	owned, err := store.ListOwned(testContext(), "alice")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func (suite *StoreTestSuite) testDeleteNodeChildIndex(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("projects", "alice", true)
	mustPut(t, store, dir)

	child := newTestNode("notes.txt", "alice", false)
	child.ParentID = dir.ID
	mustLink(t, store, child)

	require.NoError(t, store.DeleteNode(testContext(), dir.ID))

	children, err := store.ListChildren(testContext(), dir.ID)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func (suite *StoreTestSuite) testChildSetGetDelete(t *testing.T) {
	store := suite.NewStore(t)

	parentID := uuid.New()
	childID := uuid.New()

	require.NoError(t, store.SetChild(testContext(), parentID, "entry.txt", childID))

	got, err := store.GetChild(testContext(), parentID, "entry.txt")
	require.NoError(t, err)
	assert.Equal(t, childID, got)

	require.NoError(t, store.DeleteChild(testContext(), parentID, "entry.txt"))

	_, err = store.GetChild(testContext(), parentID, "entry.txt")
	assert.True(t, record.IsNotFound(err))

	err = store.DeleteChild(testContext(), parentID, "entry.txt")
	assert.True(t, record.IsNotFound(err))
}

func (suite *StoreTestSuite) testChildEmptyName(t *testing.T) {
	store := suite.NewStore(t)

	err := store.SetChild(testContext(), uuid.New(), "", uuid.New())
	require.Error(t, err)
	assert.True(t, record.IsInvalidArgument(err), "expected InvalidArgument, got %v", err)
}

func (suite *StoreTestSuite) testChildOverwrite(t *testing.T) {
	store := suite.NewStore(t)

	parentID := uuid.New()
	first := uuid.New()
	second := uuid.New()

	require.NoError(t, store.SetChild(testContext(), parentID, "slot", first))
	require.NoError(t, store.SetChild(testContext(), parentID, "slot", second))

	got, err := store.GetChild(testContext(), parentID, "slot")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func (suite *StoreTestSuite) testListChildrenEmpty(t *testing.T) {
	store := suite.NewStore(t)

	children, err := store.ListChildren(testContext(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, children)
}

func (suite *StoreTestSuite) testListChildrenSorted(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("docs", "alice", true)
	mustPut(t, store, dir)

	for _, name := range []string{"zebra.txt", "alpha.txt", "mango.txt"} {
		child := newTestNode(name, "alice", false)
		child.ParentID = dir.ID
		mustLink(t, store, child)
	}

	children, err := store.ListChildren(testContext(), dir.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)

	names := []string{children[0].Name, children[1].Name, children[2].Name}
	assert.Equal(t, []string{"alpha.txt", "mango.txt", "zebra.txt"}, names)
}

func (suite *StoreTestSuite) testListChildrenColonName(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("odd", "alice", true)
	mustPut(t, store, dir)

	child := newTestNode("notes:2024.txt", "alice", false)
	child.ParentID = dir.ID
	mustLink(t, store, child)

	got, err := store.GetChild(testContext(), dir.ID, "notes:2024.txt")
	require.NoError(t, err)
	assert.Equal(t, child.ID, got)

	children, err := store.ListChildren(testContext(), dir.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "notes:2024.txt", children[0].Name)
}

func (suite *StoreTestSuite) testListOwnedEmpty(t *testing.T) {
	store := suite.NewStore(t)

	owned, err := store.ListOwned(testContext(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, owned)
}

func (suite *StoreTestSuite) testListOwnedMultiple(t *testing.T) {
	store := suite.NewStore(t)

	first := newTestNode("one.txt", "carol", false)
	second := newTestNode("two.txt", "carol", false)
	other := newTestNode("theirs.txt", "dave", false)
	mustPut(t, store, first)
	mustPut(t, store, second)
	mustPut(t, store, other)

	owned, err := store.ListOwned(testContext(), "carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, owned)
}

func (suite *StoreTestSuite) testListOwnedSimilarHandles(t *testing.T) {
	store := suite.NewStore(t)

	// A handle must never match another handle's prefix in the index
	node := newTestNode("shared.txt", "team:alpha", false)
	mustPut(t, store, node)

	owned, err := store.ListOwned(testContext(), "team")
	require.NoError(t, err)
	assert.Empty(t, owned)

	owned, err = store.ListOwned(testContext(), "team:alpha")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{node.ID}, owned)
}

func (suite *StoreTestSuite) testListContentIDs(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("mixed", "alice", true)
	fileA := newTestNode("a.txt", "alice", false)
	fileB := newTestNode("b.txt", "alice", false)
	mustPut(t, store, dir)
	mustPut(t, store, fileA)
	mustPut(t, store, fileB)

	ids, err := store.ListContentIDs(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []content.ID{fileA.ContentID, fileB.ContentID}, ids)
}
