// Package memory provides an in-memory record store backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// MemoryRecordStore implements record.Store using in-memory maps.
//
// It keeps three structures in lockstep: node records keyed by ID, a child
// index keyed by (parent ID, name), and an owner index keyed by handle.
// It is designed for:
//   - Tests and development
//   - Ephemeral deployments where durability does not matter
//
// Characteristics:
//   - Fast: all operations are memory-speed
//   - Volatile: everything is lost on process exit
//   - Thread-safe: protected by an RWMutex
//
// Node records handed out are clones, so callers can never mutate stored
// state through a returned pointer.
type MemoryRecordStore struct {
	// nodes holds node records keyed by node ID
	nodes map[uuid.UUID]*record.Node

	// children maps parent ID to the name index of its children
	children map[uuid.UUID]map[string]uuid.UUID

	// owners maps owner handle to the set of node IDs it owns
	owners map[string]map[uuid.UUID]struct{}

	// rootID identifies the tree root once initialized
	rootID  uuid.UUID
	hasRoot bool

	// mu protects all maps and the root fields
	mu sync.RWMutex
}

// NewMemoryRecordStore creates an empty in-memory record store.
//
// Parameters:
//   - ctx: Context for cancellation (checked before initialization)
//
// Returns:
//   - *MemoryRecordStore: Initialized store
//   - error: Only returns error if context is cancelled
func NewMemoryRecordStore(ctx context.Context) (*MemoryRecordStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &MemoryRecordStore{
		nodes:    make(map[uuid.UUID]*record.Node),
		children: make(map[uuid.UUID]map[string]uuid.UUID),
		owners:   make(map[string]map[uuid.UUID]struct{}),
	}, nil
}

// GetNode retrieves a node record by ID.
func (s *MemoryRecordStore) GetNode(ctx context.Context, id uuid.UUID) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getNodeLocked(id)
}

// PutNode creates or replaces a node record, keeping the owner index
// consistent when the owner changes.
func (s *MemoryRecordStore) PutNode(ctx context.Context, node *record.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.putNodeLocked(node)
}

// DeleteNode removes a node record and its owner index entry.
func (s *MemoryRecordStore) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteNodeLocked(id)
}

// GetChild resolves a single child name under a parent directory.
func (s *MemoryRecordStore) GetChild(ctx context.Context, parentID uuid.UUID, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getChildLocked(parentID, name)
}

// SetChild creates or replaces a child index entry.
func (s *MemoryRecordStore) SetChild(ctx context.Context, parentID uuid.UUID, name string, childID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setChildLocked(parentID, name, childID)
}

// DeleteChild removes a child index entry.
func (s *MemoryRecordStore) DeleteChild(ctx context.Context, parentID uuid.UUID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.deleteChildLocked(parentID, name)
}

// ListChildren returns the node records of all children of a parent,
// sorted by name.
func (s *MemoryRecordStore) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listChildrenLocked(parentID)
}

// ListOwned returns the IDs of all nodes owned by the given handle.
func (s *MemoryRecordStore) ListOwned(ctx context.Context, owner string) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOwnedLocked(owner)
}

// ListContentIDs returns the content IDs referenced by any node record.
func (s *MemoryRecordStore) ListContentIDs(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listContentIDsLocked()
}

// GetRoot returns the ID of the root node.
func (s *MemoryRecordStore) GetRoot(ctx context.Context) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getRootLocked()
}

// SetRoot records the ID of the root node.
func (s *MemoryRecordStore) SetRoot(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setRootLocked(id)
}

// Healthcheck verifies the store is usable.
func (s *MemoryRecordStore) Healthcheck(ctx context.Context) error {
	return ctx.Err()
}

// Close releases the store's maps. The store must not be used afterwards.
func (s *MemoryRecordStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = nil
	s.children = nil
	s.owners = nil
	return nil
}

// ============================================================================
// Locked implementations (shared by direct calls and transactions)
// ============================================================================

func (s *MemoryRecordStore) getNodeLocked(id uuid.UUID) (*record.Node, error) {
	node, exists := s.nodes[id]
	if !exists {
		return nil, record.NewNotFoundError("node " + id.String())
	}
	return node.Clone(), nil
}

func (s *MemoryRecordStore) putNodeLocked(node *record.Node) error {
	if node == nil {
		return record.NewInvalidArgumentError("node is nil")
	}
	if node.ID == uuid.Nil {
		return record.NewInvalidArgumentError("node ID is nil")
	}

	if prev, exists := s.nodes[node.ID]; exists && prev.Owner != node.Owner {
		s.removeOwnerLocked(prev.Owner, node.ID)
	}
	s.nodes[node.ID] = node.Clone()
	s.addOwnerLocked(node.Owner, node.ID)
	return nil
}

func (s *MemoryRecordStore) deleteNodeLocked(id uuid.UUID) error {
	node, exists := s.nodes[id]
	if !exists {
		return record.NewNotFoundError("node " + id.String())
	}
	s.removeOwnerLocked(node.Owner, id)
	delete(s.nodes, id)
	delete(s.children, id)
	return nil
}

func (s *MemoryRecordStore) getChildLocked(parentID uuid.UUID, name string) (uuid.UUID, error) {
	childID, exists := s.children[parentID][name]
	if !exists {
		return uuid.Nil, record.NewNotFoundError("child " + name)
	}
	return childID, nil
}

func (s *MemoryRecordStore) setChildLocked(parentID uuid.UUID, name string, childID uuid.UUID) error {
	if name == "" {
		return record.NewInvalidArgumentError("child name is empty")
	}

	index, exists := s.children[parentID]
	if !exists {
		index = make(map[string]uuid.UUID)
		s.children[parentID] = index
	}
	index[name] = childID
	return nil
}

func (s *MemoryRecordStore) deleteChildLocked(parentID uuid.UUID, name string) error {
	index, exists := s.children[parentID]
	if !exists {
		return record.NewNotFoundError("child " + name)
	}
	if _, exists := index[name]; !exists {
		return record.NewNotFoundError("child " + name)
	}
	delete(index, name)
	if len(index) == 0 {
		delete(s.children, parentID)
	}
	return nil
}

func (s *MemoryRecordStore) listChildrenLocked(parentID uuid.UUID) ([]*record.Node, error) {
	index := s.children[parentID]

	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)

	nodes := make([]*record.Node, 0, len(names))
	for _, name := range names {
		node, exists := s.nodes[index[name]]
		if !exists {
			return nil, record.NewInternalError("list children",
				record.NewNotFoundError("node for child "+name))
		}
		nodes = append(nodes, node.Clone())
	}
	return nodes, nil
}

func (s *MemoryRecordStore) listOwnedLocked(owner string) ([]uuid.UUID, error) {
	set := s.owners[owner]
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *MemoryRecordStore) listContentIDsLocked() ([]content.ID, error) {
	ids := make([]content.ID, 0, len(s.nodes))
	for _, node := range s.nodes {
		if node.ContentID != "" {
			ids = append(ids, node.ContentID)
		}
	}
	return ids, nil
}

func (s *MemoryRecordStore) getRootLocked() (uuid.UUID, error) {
	if !s.hasRoot {
		return uuid.Nil, record.NewNotFoundError("root")
	}
	return s.rootID, nil
}

func (s *MemoryRecordStore) setRootLocked(id uuid.UUID) error {
	s.rootID = id
	s.hasRoot = true
	return nil
}

func (s *MemoryRecordStore) addOwnerLocked(owner string, id uuid.UUID) {
	set, exists := s.owners[owner]
	if !exists {
		set = make(map[uuid.UUID]struct{})
		s.owners[owner] = set
	}
	set[id] = struct{}{}
}

func (s *MemoryRecordStore) removeOwnerLocked(owner string, id uuid.UUID) {
	set, exists := s.owners[owner]
	if !exists {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(s.owners, owner)
	}
}
