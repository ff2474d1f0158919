package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/designgridgo/internal/ctxlog"
	"github.com/vk/designgridgo/internal/model"
)

// FSStore persists one JSON file per cache key under a root directory. The
// file name is the key's hex form, so the mapping is deterministic and
// collision-free, and an operator can inspect or prune entries with ordinary
// shell tools.
type FSStore struct {
	root string
}

// NewFSStore creates the root directory if needed and returns the store.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create cache directory %q: %w", root, err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) path(key model.CacheKey) string {
	return filepath.Join(s.root, string(key)+".json")
}

// Lookup reads and decodes the entry file. Missing, unreadable or corrupt
// files all read as absent.
func (s *FSStore) Lookup(ctx context.Context, key model.CacheKey) (*Entry, bool) {
	logger := ctxlog.FromContext(ctx)
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Unreadable cache file treated as absent.", "key", key, "error", err)
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("Corrupt cache file treated as absent.", "key", key, "error", err)
		return nil, false
	}
	if entry.Key != key {
		logger.Warn("Cache file key mismatch treated as absent.", "key", key, "stored_key", entry.Key)
		return nil, false
	}
	return &entry, true
}

// Put writes the entry via a temp file and rename, so a stored file is always
// a complete evaluation. An already existing file is left untouched: entries
// are content-addressed and immutable.
func (s *FSStore) Put(ctx context.Context, entry *Entry) error {
	path := s.path(entry.Key)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return &model.StoreError{Key: entry.Key, Cause: err}
	}

	tmp, err := os.CreateTemp(s.root, "."+string(entry.Key)+".*")
	if err != nil {
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	return nil
}

// Close is a no-op for the filesystem backend.
func (s *FSStore) Close() error { return nil }
