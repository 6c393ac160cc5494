package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// memoryTransaction implements record.Transaction over the store's maps.
//
// The store's write lock is held for the whole transaction, so the
// transaction mutates the maps in place and keeps an undo snapshot of every
// map entry it touches. On rollback the snapshots are restored, returning
// the store to its pre-transaction state.
type memoryTransaction struct {
	s *MemoryRecordStore

	// savedNodes maps node ID to its pre-transaction record (nil if the
	// record did not exist)
	savedNodes map[uuid.UUID]*record.Node

	// savedChildren maps parent ID to a clone of its pre-transaction
	// child index (nil if the parent had no index)
	savedChildren map[uuid.UUID]map[string]uuid.UUID

	// savedOwners maps owner handle to a clone of its pre-transaction
	// ID set (nil if the handle owned nothing)
	savedOwners map[string]map[uuid.UUID]struct{}

	// savedRoot captures the pre-transaction root fields, once
	savedRoot *rootSnapshot
}

type rootSnapshot struct {
	rootID  uuid.UUID
	hasRoot bool
}

// WithTransaction executes fn while holding the store's write lock. If fn
// returns an error, every mutation fn performed is undone before the error
// is returned. Transactions must not be nested.
func (s *MemoryRecordStore) WithTransaction(ctx context.Context, fn func(tx record.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTransaction{s: s}
	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func (tx *memoryTransaction) GetNode(ctx context.Context, id uuid.UUID) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tx.s.getNodeLocked(id)
}

func (tx *memoryTransaction) PutNode(ctx context.Context, node *record.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if node != nil && node.ID != uuid.Nil {
		tx.saveNode(node.ID)
		tx.saveOwner(node.Owner)
		if prev, exists := tx.s.nodes[node.ID]; exists {
			tx.saveOwner(prev.Owner)
		}
	}
	return tx.s.putNodeLocked(node)
}

func (tx *memoryTransaction) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.saveNode(id)
	tx.saveChildren(id)
	if node, exists := tx.s.nodes[id]; exists {
		tx.saveOwner(node.Owner)
	}
	return tx.s.deleteNodeLocked(id)
}

func (tx *memoryTransaction) GetChild(ctx context.Context, parentID uuid.UUID, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	return tx.s.getChildLocked(parentID, name)
}

func (tx *memoryTransaction) SetChild(ctx context.Context, parentID uuid.UUID, name string, childID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.saveChildren(parentID)
	return tx.s.setChildLocked(parentID, name, childID)
}

func (tx *memoryTransaction) DeleteChild(ctx context.Context, parentID uuid.UUID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.saveChildren(parentID)
	return tx.s.deleteChildLocked(parentID, name)
}

func (tx *memoryTransaction) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tx.s.listChildrenLocked(parentID)
}

func (tx *memoryTransaction) ListOwned(ctx context.Context, owner string) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tx.s.listOwnedLocked(owner)
}

func (tx *memoryTransaction) ListContentIDs(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tx.s.listContentIDsLocked()
}

func (tx *memoryTransaction) GetRoot(ctx context.Context) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	return tx.s.getRootLocked()
}

func (tx *memoryTransaction) SetRoot(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.saveRoot()
	return tx.s.setRootLocked(id)
}

// ============================================================================
// Undo snapshots
// ============================================================================

func (tx *memoryTransaction) saveNode(id uuid.UUID) {
	if tx.savedNodes == nil {
		tx.savedNodes = make(map[uuid.UUID]*record.Node)
	}
	if _, saved := tx.savedNodes[id]; saved {
		return
	}
	tx.savedNodes[id] = tx.s.nodes[id]
}

func (tx *memoryTransaction) saveChildren(parentID uuid.UUID) {
	if tx.savedChildren == nil {
		tx.savedChildren = make(map[uuid.UUID]map[string]uuid.UUID)
	}
	if _, saved := tx.savedChildren[parentID]; saved {
		return
	}
	index, exists := tx.s.children[parentID]
	if !exists {
		tx.savedChildren[parentID] = nil
		return
	}
	clone := make(map[string]uuid.UUID, len(index))
	for name, childID := range index {
		clone[name] = childID
	}
	tx.savedChildren[parentID] = clone
}

func (tx *memoryTransaction) saveOwner(owner string) {
	if tx.savedOwners == nil {
		tx.savedOwners = make(map[string]map[uuid.UUID]struct{})
	}
	if _, saved := tx.savedOwners[owner]; saved {
		return
	}
	set, exists := tx.s.owners[owner]
	if !exists {
		tx.savedOwners[owner] = nil
		return
	}
	clone := make(map[uuid.UUID]struct{}, len(set))
	for id := range set {
		clone[id] = struct{}{}
	}
	tx.savedOwners[owner] = clone
}

func (tx *memoryTransaction) saveRoot() {
	if tx.savedRoot != nil {
		return
	}
	tx.savedRoot = &rootSnapshot{rootID: tx.s.rootID, hasRoot: tx.s.hasRoot}
}

func (tx *memoryTransaction) rollback() {
	for id, prev := range tx.savedNodes {
		if prev == nil {
			delete(tx.s.nodes, id)
		} else {
			tx.s.nodes[id] = prev
		}
	}
	for parentID, prev := range tx.savedChildren {
		if prev == nil {
			delete(tx.s.children, parentID)
		} else {
			tx.s.children[parentID] = prev
		}
	}
	for owner, prev := range tx.savedOwners {
		if prev == nil {
			delete(tx.s.owners, owner)
		} else {
			tx.s.owners[owner] = prev
		}
	}
	if tx.savedRoot != nil {
		tx.s.rootID = tx.savedRoot.rootID
		tx.s.hasRoot = tx.savedRoot.hasRoot
	}
}
