package memory

import (
	"context"
	"testing"

	"github.com/arborfs/arborfs/pkg/store/content"
	contenttesting "github.com/arborfs/arborfs/pkg/store/content/testing"
)

// TestMemoryContentStore runs the complete content.Store conformance suite
// against the MemoryContentStore implementation.
func TestMemoryContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewMemoryContentStore(context.Background())
			if err != nil {
				t.Fatalf("Failed to create MemoryContentStore: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	suite.Run(t)
}

// TestMemoryContentStoreCancelledContext verifies operations fail fast when
// the context is already cancelled.
func TestMemoryContentStoreCancelledContext(t *testing.T) {
	store, err := NewMemoryContentStore(context.Background())
	if err != nil {
		t.Fatalf("Failed to create MemoryContentStore: %v", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Open(ctx, content.OpenOptions{Mode: content.ModeWrite}); err == nil {
		t.Error("Open with cancelled context should fail")
	}
	if _, err := store.Read(ctx, content.NewID()); err == nil {
		t.Error("Read with cancelled context should fail")
	}
	if _, err := store.List(ctx); err == nil {
		t.Error("List with cancelled context should fail")
	}
}
