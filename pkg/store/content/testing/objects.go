package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// RunObjectTests executes the committed object operation tests.
func (suite *StoreTestSuite) RunObjectTests(t *testing.T) {
	t.Run("Read_NotFound", suite.testReadNotFound)
	t.Run("Read_LargePayload", suite.testReadLargePayload)
	t.Run("Read_ReturnsIsolatedCopy", suite.testReadIsolation)
	t.Run("Delete_RemovesObject", suite.testDeleteRemoves)
	t.Run("Delete_UnknownIsNoop", suite.testDeleteUnknown)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *StoreTestSuite) testReadNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Read(testContext(), content.NewID())
	require.Error(t, err)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testReadLargePayload(t *testing.T) {
	store := suite.NewStore(t)

	// 1MB payload with non-repeating structure
	payload := make([]byte, 1<<20)
	for i := range payload {
		payload[i] = byte(i * 7)
	}

	id := mustCommit(t, store, payload)

	got, err := store.Read(testContext(), id)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(payload, got), "large payload mismatch")
}

func (suite *StoreTestSuite) testReadIsolation(t *testing.T) {
	store := suite.NewStore(t)

	id := mustCommit(t, store, []byte("original"))

	first, err := store.Read(testContext(), id)
	require.NoError(t, err)

	// Mutating a returned payload must not affect the stored object
	first[0] = 'X'

	second, err := store.Read(testContext(), id)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), second)
}

func (suite *StoreTestSuite) testDeleteRemoves(t *testing.T) {
	store := suite.NewStore(t)

	id := mustCommit(t, store, []byte("doomed"))

	require.NoError(t, store.Delete(testContext(), id))

	_, err := store.Read(testContext(), id)
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func (suite *StoreTestSuite) testDeleteUnknown(t *testing.T) {
	store := suite.NewStore(t)

	assert.NoError(t, store.Delete(testContext(), content.NewID()))
}

func (suite *StoreTestSuite) testHealthcheck(t *testing.T) {
	store := suite.NewStore(t)

	assert.NoError(t, store.Healthcheck(testContext()))
}
