package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// mustCommit stages payload in a write stream and commits it, failing the
// test on any error.
func mustCommit(t *testing.T, store content.Store, payload []byte) content.ID {
	t.Helper()

	stream, err := store.Open(testContext(), content.OpenOptions{
		Mode:            content.ModeWrite,
		EstimatedLength: len(payload),
	})
	require.NoError(t, err)

	if len(payload) > 0 {
		_, err = stream.Write(payload)
		require.NoError(t, err)
	}

	id, err := store.Commit(testContext(), stream)
	require.NoError(t, err)
	return id
}
