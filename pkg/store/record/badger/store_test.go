package badger

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/record"
	recordtesting "github.com/arborfs/arborfs/pkg/store/record/testing"
)

// TestBadgerRecordStore runs the complete record.Store conformance suite
// against the BadgerRecordStore implementation.
func TestBadgerRecordStore(t *testing.T) {
	suite := &recordtesting.StoreTestSuite{
		NewStore: func(t *testing.T) record.Store {
			store, err := NewBadgerRecordStore(context.Background(), BadgerRecordStoreConfig{
				DBPath: t.TempDir(),
			})
			if err != nil {
				t.Fatalf("Failed to create BadgerRecordStore: %v", err)
			}
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}

	suite.Run(t)
}

// TestBadgerRecordStorePersistence verifies records survive a close and
// reopen cycle.
func TestBadgerRecordStorePersistence(t *testing.T) {
	ctx := context.Background()
	dbPath := t.TempDir()

	store, err := NewBadgerRecordStore(ctx, BadgerRecordStoreConfig{DBPath: dbPath})
	if err != nil {
		t.Fatalf("Failed to create BadgerRecordStore: %v", err)
	}

	node := &record.Node{
		ID:    uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:  "durable.txt",
		Owner: "alice",
		Permissions: record.PermissionSet{
			"alice": record.Triple{Read: true, Write: true, Propagate: true},
		},
	}
	if err := store.PutNode(ctx, node); err != nil {
		t.Fatalf("PutNode failed: %v", err)
	}
	if err := store.SetRoot(ctx, node.ID); err != nil {
		t.Fatalf("SetRoot failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewBadgerRecordStore(ctx, BadgerRecordStoreConfig{DBPath: dbPath})
	if err != nil {
		t.Fatalf("Failed to reopen BadgerRecordStore: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.GetNode(ctx, node.ID)
	if err != nil {
		t.Fatalf("GetNode after reopen failed: %v", err)
	}
	if got.Name != "durable.txt" || got.Owner != "alice" {
		t.Errorf("unexpected node after reopen: %+v", got)
	}

	rootID, err := reopened.GetRoot(ctx)
	if err != nil {
		t.Fatalf("GetRoot after reopen failed: %v", err)
	}
	if rootID != node.ID {
		t.Errorf("root = %s, want %s", rootID, node.ID)
	}
}
