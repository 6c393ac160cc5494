// Package fs implements filesystem-based content storage.
//
// Each committed object is one file under the store's base directory, named
// by its content ID. Commits write to a temporary file first and rename into
// place, so a crash never leaves a half-written committed object.
package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arborfs/arborfs/pkg/store/content"
)

// FSContentStore implements content.Store on the local filesystem.
//
// Thread Safety:
// Filesystem operations are safe at the OS level and every commit targets a
// fresh identifier, so concurrent commits never collide. Reads of committed
// objects race with nothing because committed objects are immutable.
type FSContentStore struct {
	basePath string
}

// NewFSContentStore creates a filesystem-based content store rooted at
// basePath, creating the directory if needed.
//
// Parameters:
//   - ctx: Context for cancellation (checked before touching the filesystem)
//   - basePath: Root directory for content files
//
// Returns:
//   - *FSContentStore: Initialized store
//   - error: Directory creation failure or context cancellation
func NewFSContentStore(ctx context.Context, basePath string) (*FSContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSContentStore{basePath: basePath}, nil
}

// objectPath returns the file path for a content ID after validating that the
// ID cannot escape the base directory.
func (s *FSContentStore) objectPath(id content.ID) (string, error) {
	name := string(id)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return "", fmt.Errorf("object path %q: %w", name, content.ErrInvalidID)
	}

	return filepath.Join(s.basePath, name), nil
}

// Open allocates a stream. Read mode loads the committed object from disk.
func (s *FSContentStore) Open(ctx context.Context, opts content.OpenOptions) (*content.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if opts.Mode == content.ModeWrite {
		return content.NewWriteStream(opts.EstimatedLength, opts.InitialBytes), nil
	}

	payload, err := s.Read(ctx, opts.ObjectID)
	if err != nil {
		return nil, err
	}

	return content.NewReadStream(opts.ObjectID, payload), nil
}

// Commit seals a write stream and persists it as a new object file.
//
// The payload is written to a ".tmp" sibling and renamed into place, making
// the commit atomic with respect to crashes.
func (s *FSContentStore) Commit(ctx context.Context, stream *content.Stream) (content.ID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := content.NewID()

	payload, err := stream.Seal(id)
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	path, err := s.objectPath(id)
	if err != nil {
		return "", err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to stage content %s: %w", id, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to commit content %s: %w", id, err)
	}

	return id, nil
}

// Read returns the full payload of a committed object.
func (s *FSContentStore) Read(ctx context.Context, id content.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.objectPath(id)
	if err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", id, content.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", id, err)
	}

	return payload, nil
}

// Delete removes a committed object file. Missing files are ignored.
func (s *FSContentStore) Delete(ctx context.Context, id content.ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.objectPath(id)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", id, err)
	}

	return nil
}

// List enumerates every committed object identifier under the base directory.
// Staged ".tmp" files from interrupted commits are skipped.
func (s *FSContentStore) List(ctx context.Context) ([]content.ID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list content directory: %w", err)
	}

	ids := make([]content.ID, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		ids = append(ids, content.ID(entry.Name()))
	}

	return ids, nil
}

// DeleteBatch removes a batch of objects, reporting per-identifier failures.
func (s *FSContentStore) DeleteBatch(ctx context.Context, ids []content.ID) (map[content.ID]error, error) {
	failures := make(map[content.ID]error)

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		if err := s.Delete(ctx, id); err != nil {
			failures[id] = err
		}
	}

	return failures, nil
}

// Healthcheck verifies that the base directory is accessible.
func (s *FSContentStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.basePath)
	if err != nil {
		return fmt.Errorf("content directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("content path %s is not a directory", s.basePath)
	}

	return nil
}

// Close releases resources. The filesystem store holds no open handles.
func (s *FSContentStore) Close() error {
	return nil
}
