package badger

import (
	"context"
	"errors"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/content"
	"github.com/arborfs/arborfs/pkg/store/record"
)

// badgerTransaction implements record.Transaction over a single BadgerDB
// update transaction. Reads observe earlier writes made in the same
// transaction (BadgerDB iterators include pending writes).
type badgerTransaction struct {
	txn *badger.Txn
}

// WithTransaction executes fn inside a single BadgerDB update transaction.
// If fn returns an error the transaction is discarded; otherwise it commits.
func (s *BadgerRecordStore) WithTransaction(ctx context.Context, fn func(tx record.Transaction) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTransaction{txn: txn})
	})
}

func (tx *badgerTransaction) GetNode(ctx context.Context, id uuid.UUID) (*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return getNodeTxn(tx.txn, id)
}

func (tx *badgerTransaction) PutNode(ctx context.Context, node *record.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return putNodeTxn(tx.txn, node)
}

func (tx *badgerTransaction) DeleteNode(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return deleteNodeTxn(tx.txn, id)
}

func (tx *badgerTransaction) GetChild(ctx context.Context, parentID uuid.UUID, name string) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	return getChildTxn(tx.txn, parentID, name)
}

func (tx *badgerTransaction) SetChild(ctx context.Context, parentID uuid.UUID, name string, childID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return setChildTxn(tx.txn, parentID, name, childID)
}

func (tx *badgerTransaction) DeleteChild(ctx context.Context, parentID uuid.UUID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return deleteChildTxn(tx.txn, parentID, name)
}

func (tx *badgerTransaction) ListChildren(ctx context.Context, parentID uuid.UUID) ([]*record.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listChildrenTxn(tx.txn, parentID)
}

func (tx *badgerTransaction) ListOwned(ctx context.Context, owner string) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listOwnedTxn(tx.txn, owner)
}

func (tx *badgerTransaction) ListContentIDs(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return listContentIDsTxn(tx.txn)
}

func (tx *badgerTransaction) GetRoot(ctx context.Context) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	return getRootTxn(tx.txn)
}

func (tx *badgerTransaction) SetRoot(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return setRootTxn(tx.txn, id)
}

// ============================================================================
// Transaction-level operations (shared by direct calls and WithTransaction)
// ============================================================================

func getNodeTxn(txn *badger.Txn, id uuid.UUID) (*record.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, record.NewNotFoundError("node " + id.String())
	}
	if err != nil {
		return nil, record.NewInternalError("get node", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, record.NewInternalError("get node", err)
	}
	node, err := decodeNode(val)
	if err != nil {
		return nil, record.NewInternalError("get node", err)
	}
	return node, nil
}

func putNodeTxn(txn *badger.Txn, node *record.Node) error {
	if node == nil {
		return record.NewInvalidArgumentError("node is nil")
	}
	if node.ID == uuid.Nil {
		return record.NewInvalidArgumentError("node ID is nil")
	}

	// Keep the owner index consistent on owner changes
	prev, err := getNodeTxn(txn, node.ID)
	if err != nil && !record.IsNotFound(err) {
		return err
	}
	if prev != nil && prev.Owner != node.Owner {
		if err := txn.Delete(ownerKey(prev.Owner, node.ID)); err != nil {
			return record.NewInternalError("put node", err)
		}
	}

	encoded, err := encodeNode(node)
	if err != nil {
		return record.NewInternalError("put node", err)
	}
	if err := txn.Set(nodeKey(node.ID), encoded); err != nil {
		return record.NewInternalError("put node", err)
	}
	if err := txn.Set(ownerKey(node.Owner, node.ID), nil); err != nil {
		return record.NewInternalError("put node", err)
	}
	return nil
}

func deleteNodeTxn(txn *badger.Txn, id uuid.UUID) error {
	node, err := getNodeTxn(txn, id)
	if err != nil {
		return err
	}

	if err := txn.Delete(nodeKey(id)); err != nil {
		return record.NewInternalError("delete node", err)
	}
	if err := txn.Delete(ownerKey(node.Owner, id)); err != nil {
		return record.NewInternalError("delete node", err)
	}

	// Drop the node's own child index entries
	keys, err := scanKeys(txn, childScanPrefix(id))
	if err != nil {
		return record.NewInternalError("delete node", err)
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return record.NewInternalError("delete node", err)
		}
	}
	return nil
}

func getChildTxn(txn *badger.Txn, parentID uuid.UUID, name string) (uuid.UUID, error) {
	item, err := txn.Get(childKey(parentID, name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return uuid.Nil, record.NewNotFoundError("child " + name)
	}
	if err != nil {
		return uuid.Nil, record.NewInternalError("get child", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return uuid.Nil, record.NewInternalError("get child", err)
	}
	childID, err := decodeUUID(val)
	if err != nil {
		return uuid.Nil, record.NewInternalError("get child", err)
	}
	return childID, nil
}

func setChildTxn(txn *badger.Txn, parentID uuid.UUID, name string, childID uuid.UUID) error {
	if name == "" {
		return record.NewInvalidArgumentError("child name is empty")
	}
	if err := txn.Set(childKey(parentID, name), encodeUUID(childID)); err != nil {
		return record.NewInternalError("set child", err)
	}
	return nil
}

func deleteChildTxn(txn *badger.Txn, parentID uuid.UUID, name string) error {
	key := childKey(parentID, name)
	if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
		return record.NewNotFoundError("child " + name)
	} else if err != nil {
		return record.NewInternalError("delete child", err)
	}
	if err := txn.Delete(key); err != nil {
		return record.NewInternalError("delete child", err)
	}
	return nil
}

func listChildrenTxn(txn *badger.Txn, parentID uuid.UUID) ([]*record.Node, error) {
	prefix := childScanPrefix(parentID)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	type childEntry struct {
		name string
		id   uuid.UUID
	}
	var entries []childEntry

	it := txn.NewIterator(opts)
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		name := string(item.Key()[len(prefix):])

		val, err := item.ValueCopy(nil)
		if err != nil {
			it.Close()
			return nil, record.NewInternalError("list children", err)
		}
		childID, err := decodeUUID(val)
		if err != nil {
			it.Close()
			return nil, record.NewInternalError("list children", err)
		}
		entries = append(entries, childEntry{name: name, id: childID})
	}
	it.Close()

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	nodes := make([]*record.Node, 0, len(entries))
	for _, entry := range entries {
		node, err := getNodeTxn(txn, entry.id)
		if err != nil {
			return nil, record.NewInternalError("list children", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func listOwnedTxn(txn *badger.Txn, owner string) ([]uuid.UUID, error) {
	prefix := ownerScanPrefix(owner)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	ids := make([]uuid.UUID, 0)

	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		raw := string(it.Item().Key()[len(prefix):])
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, record.NewInternalError("list owned", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func listContentIDsTxn(txn *badger.Txn) ([]content.ID, error) {
	prefix := []byte(nodeKeyPrefix)

	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix

	ids := make([]content.ID, 0)

	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, record.NewInternalError("list content ids", err)
		}
		node, err := decodeNode(val)
		if err != nil {
			return nil, record.NewInternalError("list content ids", err)
		}
		if node.ContentID != "" {
			ids = append(ids, node.ContentID)
		}
	}
	return ids, nil
}

func getRootTxn(txn *badger.Txn) (uuid.UUID, error) {
	item, err := txn.Get([]byte(rootKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return uuid.Nil, record.NewNotFoundError("root")
	}
	if err != nil {
		return uuid.Nil, record.NewInternalError("get root", err)
	}

	val, err := item.ValueCopy(nil)
	if err != nil {
		return uuid.Nil, record.NewInternalError("get root", err)
	}
	id, err := decodeUUID(val)
	if err != nil {
		return uuid.Nil, record.NewInternalError("get root", err)
	}
	return id, nil
}

func setRootTxn(txn *badger.Txn, id uuid.UUID) error {
	if err := txn.Set([]byte(rootKey), encodeUUID(id)); err != nil {
		return record.NewInternalError("set root", err)
	}
	return nil
}

// scanKeys collects all keys under a prefix. Used when keys must be deleted
// while iterating, which BadgerDB iterators do not allow directly.
func scanKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false

	var keys [][]byte

	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys, nil
}
