package testing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/record"
)

// RunRootTests executes all root identity tests.
func (suite *StoreTestSuite) RunRootTests(t *testing.T) {
	t.Run("GetRoot_Uninitialized", suite.testGetRootUninitialized)
	t.Run("SetRoot_Roundtrip", suite.testSetRootRoundtrip)
	t.Run("SetRoot_Overwrite", suite.testSetRootOverwrite)
}

func (suite *StoreTestSuite) testGetRootUninitialized(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.GetRoot(testContext())
	require.Error(t, err)
	assert.True(t, record.IsNotFound(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) testSetRootRoundtrip(t *testing.T) {
	store := suite.NewStore(t)

	rootID := uuid.New()
	require.NoError(t, store.SetRoot(testContext(), rootID))

	got, err := store.GetRoot(testContext())
	require.NoError(t, err)
	assert.Equal(t, rootID, got)
}

func (suite *StoreTestSuite) testSetRootOverwrite(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.SetRoot(testContext(), uuid.New()))

	replacement := uuid.New()
	require.NoError(t, store.SetRoot(testContext(), replacement))

	got, err := store.GetRoot(testContext())
	require.NoError(t, err)
	assert.Equal(t, replacement, got)
}
