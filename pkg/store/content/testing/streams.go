package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// RunStreamTests executes the stream staging and commit tests.
func (suite *StoreTestSuite) RunStreamTests(t *testing.T) {
	t.Run("Open_WriteMode", suite.testOpenWriteMode)
	t.Run("Open_WriteSeeded", suite.testOpenWriteSeeded)
	t.Run("Open_ReadNotFound", suite.testOpenReadNotFound)
	t.Run("Commit_PersistsPayload", suite.testCommitPersistsPayload)
	t.Run("Commit_SealsStream", suite.testCommitSealsStream)
	t.Run("Commit_ReadStreamRejected", suite.testCommitReadStreamRejected)
	t.Run("Commit_TwiceRejected", suite.testCommitTwiceRejected)
	t.Run("Commit_EmptyPayload", suite.testCommitEmptyPayload)
	t.Run("Commit_DistinctIDs", suite.testCommitDistinctIDs)
}

func (suite *StoreTestSuite) testOpenWriteMode(t *testing.T) {
	store := suite.NewStore(t)

	stream, err := store.Open(testContext(), content.OpenOptions{
		Mode:            content.ModeWrite,
		EstimatedLength: 128,
	})
	require.NoError(t, err)

	assert.Equal(t, content.ModeWrite, stream.Mode())
	assert.False(t, stream.Committed())
	assert.Equal(t, 0, stream.Len())

	n, err := stream.Write([]byte("staged"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 6, stream.Len())
}

func (suite *StoreTestSuite) testOpenWriteSeeded(t *testing.T) {
	store := suite.NewStore(t)

	stream, err := store.Open(testContext(), content.OpenOptions{
		Mode:         content.ModeWrite,
		InitialBytes: []byte("seed-"),
	})
	require.NoError(t, err)

	_, err = stream.Write([]byte("tail"))
	require.NoError(t, err)
	assert.Equal(t, []byte("seed-tail"), stream.Bytes())
}

func (suite *StoreTestSuite) testOpenReadNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Open(testContext(), content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: content.NewID(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testCommitPersistsPayload(t *testing.T) {
	store := suite.NewStore(t)

	payload := []byte("The quick brown fox jumps over the lazy dog")
	id := mustCommit(t, store, payload)

	got, err := store.Read(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	stream, err := store.Open(testContext(), content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: id,
	})
	require.NoError(t, err)
	assert.Equal(t, content.ModeRead, stream.Mode())
	assert.Equal(t, id, stream.ObjectID())
	assert.Equal(t, payload, stream.Bytes())
}

func (suite *StoreTestSuite) testCommitSealsStream(t *testing.T) {
	store := suite.NewStore(t)

	stream, err := store.Open(testContext(), content.OpenOptions{Mode: content.ModeWrite})
	require.NoError(t, err)
	_, err = stream.Write([]byte("sealed"))
	require.NoError(t, err)

	id, err := store.Commit(testContext(), stream)
	require.NoError(t, err)

	assert.True(t, stream.Committed())
	assert.Equal(t, id, stream.ObjectID())

	_, err = stream.Write([]byte("more"))
	assert.ErrorIs(t, err, content.ErrStreamCommitted)
}

func (suite *StoreTestSuite) testCommitReadStreamRejected(t *testing.T) {
	store := suite.NewStore(t)

	id := mustCommit(t, store, []byte("immutable"))

	stream, err := store.Open(testContext(), content.OpenOptions{
		Mode:     content.ModeRead,
		ObjectID: id,
	})
	require.NoError(t, err)

	_, err = store.Commit(testContext(), stream)
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrStreamMode)
}

func (suite *StoreTestSuite) testCommitTwiceRejected(t *testing.T) {
	store := suite.NewStore(t)

	stream, err := store.Open(testContext(), content.OpenOptions{Mode: content.ModeWrite})
	require.NoError(t, err)
	_, err = stream.Write([]byte("once"))
	require.NoError(t, err)

	_, err = store.Commit(testContext(), stream)
	require.NoError(t, err)

	_, err = store.Commit(testContext(), stream)
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrStreamCommitted)
}

func (suite *StoreTestSuite) testCommitEmptyPayload(t *testing.T) {
	store := suite.NewStore(t)

	id := mustCommit(t, store, nil)

	got, err := store.Read(testContext(), id)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func (suite *StoreTestSuite) testCommitDistinctIDs(t *testing.T) {
	store := suite.NewStore(t)

	// Identical payloads are never aliased to the same object
	payload := bytes.Repeat([]byte("same"), 16)
	first := mustCommit(t, store, payload)
	second := mustCommit(t, store, payload)

	assert.NotEqual(t, first, second)
}
