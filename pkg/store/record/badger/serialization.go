package badger

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/arborfs/arborfs/pkg/store/record"
)

// Serialization Strategy
// ======================
//
// BadgerDB stores raw bytes, so values are serialized per data type:
//
// 1. JSON Encoding (Node Records)
//    - Human-readable, flexible schema evolution, easy debugging
//    - Node records are small and read-mostly, so JSON overhead is fine
//
// 2. Binary Encoding (UUIDs)
//    - Child index and root values are bare UUIDs stored as 16 raw bytes
//    - Compact and fast; the schema is stable

// encodeNode serializes a node record to JSON bytes.
func encodeNode(node *record.Node) ([]byte, error) {
	bytes, err := json.Marshal(node)
	if err != nil {
		return nil, fmt.Errorf("failed to encode node: %w", err)
	}
	return bytes, nil
}

// decodeNode deserializes a node record from JSON bytes.
func decodeNode(bytes []byte) (*record.Node, error) {
	var node record.Node
	if err := json.Unmarshal(bytes, &node); err != nil {
		return nil, fmt.Errorf("failed to decode node: %w", err)
	}
	return &node, nil
}

// encodeUUID serializes a UUID to its 16-byte binary form.
func encodeUUID(id uuid.UUID) []byte {
	bytes := make([]byte, 16)
	copy(bytes, id[:])
	return bytes
}

// decodeUUID deserializes a UUID from its 16-byte binary form.
func decodeUUID(bytes []byte) (uuid.UUID, error) {
	id, err := uuid.FromBytes(bytes)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to decode uuid: %w", err)
	}
	return id, nil
}
