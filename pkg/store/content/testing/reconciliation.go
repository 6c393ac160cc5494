package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// RunReconciliationTests executes the listing and batch deletion tests used
// by the garbage collector.
func (suite *StoreTestSuite) RunReconciliationTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_AllCommitted", suite.testListAllCommitted)
	t.Run("DeleteBatch_RemovesAll", suite.testDeleteBatchRemovesAll)
	t.Run("DeleteBatch_UnknownIDs", suite.testDeleteBatchUnknown)
	t.Run("DeleteBatch_Empty", suite.testDeleteBatchEmpty)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore(t)

	ids, err := store.List(testContext())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func (suite *StoreTestSuite) testListAllCommitted(t *testing.T) {
	store := suite.NewStore(t)

	first := mustCommit(t, store, []byte("one"))
	second := mustCommit(t, store, []byte("two"))
	third := mustCommit(t, store, []byte("three"))

	ids, err := store.List(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []content.ID{first, second, third}, ids)
}

func (suite *StoreTestSuite) testDeleteBatchRemovesAll(t *testing.T) {
	store := suite.NewStore(t)

	first := mustCommit(t, store, []byte("one"))
	second := mustCommit(t, store, []byte("two"))
	survivor := mustCommit(t, store, []byte("keep"))

	failures, err := store.DeleteBatch(testContext(), []content.ID{first, second})
	require.NoError(t, err)
	assert.Empty(t, failures)

	_, err = store.Read(testContext(), first)
	assert.ErrorIs(t, err, content.ErrNotFound)
	_, err = store.Read(testContext(), second)
	assert.ErrorIs(t, err, content.ErrNotFound)

	got, err := store.Read(testContext(), survivor)
	require.NoError(t, err)
	assert.Equal(t, []byte("keep"), got)
}

func (suite *StoreTestSuite) testDeleteBatchUnknown(t *testing.T) {
	store := suite.NewStore(t)

	// Unknown identifiers are not failures
	failures, err := store.DeleteBatch(testContext(), []content.ID{content.NewID(), content.NewID()})
	require.NoError(t, err)
	assert.Empty(t, failures)
}

func (suite *StoreTestSuite) testDeleteBatchEmpty(t *testing.T) {
	store := suite.NewStore(t)

	failures, err := store.DeleteBatch(testContext(), nil)
	require.NoError(t, err)
	assert.Empty(t, failures)
}
