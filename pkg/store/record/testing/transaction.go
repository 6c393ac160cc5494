package testing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/record"
)

// RunTransactionTests executes all transaction atomicity tests.
func (suite *StoreTestSuite) RunTransactionTests(t *testing.T) {
	t.Run("Commit_AppliesAllWrites", suite.testCommitAppliesAll)
	t.Run("Rollback_RevertsAllWrites", suite.testRollbackRevertsAll)
	t.Run("Rollback_RestoresReplacedNode", suite.testRollbackRestoresReplaced)
	t.Run("Rollback_RestoresOwnerIndex", suite.testRollbackRestoresOwner)
	t.Run("Rollback_RestoresDeletedEntries", suite.testRollbackRestoresDeleted)
	t.Run("ReadsSeeOwnWrites", suite.testReadsSeeOwnWrites)
}

var errRollback = errors.New("forced rollback")

func (suite *StoreTestSuite) testCommitAppliesAll(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("batch", "alice", true)
	file := newTestNode("item.txt", "alice", false)
	file.ParentID = dir.ID

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		if err := tx.PutNode(testContext(), dir); err != nil {
			return err
		}
		if err := tx.PutNode(testContext(), file); err != nil {
			return err
		}
		if err := tx.SetChild(testContext(), dir.ID, file.Name, file.ID); err != nil {
			return err
		}
		return tx.SetRoot(testContext(), dir.ID)
	})
	require.NoError(t, err)

	_, err = store.GetNode(testContext(), dir.ID)
	require.NoError(t, err)
	_, err = store.GetNode(testContext(), file.ID)
	require.NoError(t, err)

	childID, err := store.GetChild(testContext(), dir.ID, file.Name)
	require.NoError(t, err)
	assert.Equal(t, file.ID, childID)

	rootID, err := store.GetRoot(testContext())
	require.NoError(t, err)
	assert.Equal(t, dir.ID, rootID)
}

func (suite *StoreTestSuite) testRollbackRevertsAll(t *testing.T) {
	store := suite.NewStore(t)

	existing := newTestNode("keepme.txt", "alice", false)
	mustPut(t, store, existing)

	ghostDir := newTestNode("ghost", "alice", true)
	ghostFile := newTestNode("ghost.txt", "alice", false)
	ghostFile.ParentID = ghostDir.ID

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		if err := tx.PutNode(testContext(), ghostDir); err != nil {
			return err
		}
		if err := tx.PutNode(testContext(), ghostFile); err != nil {
			return err
		}
		if err := tx.SetChild(testContext(), ghostDir.ID, ghostFile.Name, ghostFile.ID); err != nil {
			return err
		}
		if err := tx.SetRoot(testContext(), ghostDir.ID); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	_, err = store.GetNode(testContext(), ghostDir.ID)
	assert.True(t, record.IsNotFound(err), "ghost dir must not survive rollback")
	_, err = store.GetNode(testContext(), ghostFile.ID)
	assert.True(t, record.IsNotFound(err), "ghost file must not survive rollback")
	_, err = store.GetChild(testContext(), ghostDir.ID, ghostFile.Name)
	assert.True(t, record.IsNotFound(err), "ghost child entry must not survive rollback")
	_, err = store.GetRoot(testContext())
	assert.True(t, record.IsNotFound(err), "root must stay uninitialized after rollback")

	// Pre-existing state is untouched
	got, err := store.GetNode(testContext(), existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "keepme.txt", got.Name)
}

func (suite *StoreTestSuite) testRollbackRestoresReplaced(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("stable.txt", "alice", false)
	mustPut(t, store, node)

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		mutated := node.Clone()
		mutated.Name = "mutated.txt"
		mutated.Size = 1000
		if err := tx.PutNode(testContext(), mutated); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	got, err := store.GetNode(testContext(), node.ID)
	require.NoError(t, err)
	assert.Equal(t, "stable.txt", got.Name)
	assert.Equal(t, node.Size, got.Size)
}

func (suite *StoreTestSuite) testRollbackRestoresOwner(t *testing.T) {
	store := suite.NewStore(t)

	node := newTestNode("claimed.txt", "alice", false)
	mustPut(t, store, node)

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		reowned := node.Clone()
		reowned.Owner = "bob"
		if err := tx.PutNode(testContext(), reowned); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	aliceOwned, err := store.ListOwned(testContext(), "alice")
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{node.ID}, aliceOwned)

	bobOwned, err := store.ListOwned(testContext(), "bob")
	require.NoError(t, err)
	assert.Empty(t, bobOwned)
}

func (suite *StoreTestSuite) testRollbackRestoresDeleted(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("vault", "alice", true)
	mustPut(t, store, dir)

	file := newTestNode("secret.txt", "alice", false)
	file.ParentID = dir.ID
	mustLink(t, store, file)

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		if err := tx.DeleteChild(testContext(), dir.ID, file.Name); err != nil {
			return err
		}
		if err := tx.DeleteNode(testContext(), file.ID); err != nil {
			return err
		}
		return errRollback
	})
	require.ErrorIs(t, err, errRollback)

	got, err := store.GetNode(testContext(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret.txt", got.Name)

	childID, err := store.GetChild(testContext(), dir.ID, file.Name)
	require.NoError(t, err)
	assert.Equal(t, file.ID, childID)

	owned, err := store.ListOwned(testContext(), "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{dir.ID, file.ID}, owned)
}

func (suite *StoreTestSuite) testReadsSeeOwnWrites(t *testing.T) {
	store := suite.NewStore(t)

	dir := newTestNode("inbox", "alice", true)
	file := newTestNode("fresh.txt", "alice", false)
	file.ParentID = dir.ID

	err := store.WithTransaction(testContext(), func(tx record.Transaction) error {
		if err := tx.PutNode(testContext(), dir); err != nil {
			return err
		}
		if err := tx.PutNode(testContext(), file); err != nil {
			return err
		}
		if err := tx.SetChild(testContext(), dir.ID, file.Name, file.ID); err != nil {
			return err
		}

		got, err := tx.GetNode(testContext(), file.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, file.Name, got.Name)

		childID, err := tx.GetChild(testContext(), dir.ID, file.Name)
		if err != nil {
			return err
		}
		assert.Equal(t, file.ID, childID)

		children, err := tx.ListChildren(testContext(), dir.ID)
		if err != nil {
			return err
		}
		assert.Len(t, children, 1)
		return nil
	})
	require.NoError(t, err)
}
