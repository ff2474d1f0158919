package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/vk/designgridgo/internal/ctxlog"
	"github.com/vk/designgridgo/internal/model"
)

// BadgerConfig configures the embedded BadgerDB cache backend.
type BadgerConfig struct {
	// Path is the directory for the database files. Ignored when InMemory.
	Path string

	// InMemory disables disk persistence. Useful for tests.
	InMemory bool

	// SyncWrites forces fsync on every write. Cache entries are recomputable,
	// so the default is false.
	SyncWrites bool
}

// BadgerStore is a Store backed by an embedded BadgerDB keyed blob store. It
// trades the filesystem backend's inspectability for compaction and crash
// safety on large caches.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cannot open badger cache at %q: %w", cfg.Path, err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Lookup(ctx context.Context, key model.CacheKey) (*Entry, bool) {
	logger := ctxlog.FromContext(ctx)
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			logger.Warn("Unreadable badger record treated as absent.", "key", key, "error", err)
		}
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		logger.Warn("Corrupt badger record treated as absent.", "key", key, "error", err)
		return nil, false
	}
	if entry.Key != key {
		logger.Warn("Badger record key mismatch treated as absent.", "key", key, "stored_key", entry.Key)
		return nil, false
	}
	return &entry, true
}

func (s *BadgerStore) Put(_ context.Context, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		// Entries are immutable; never overwrite an existing record.
		if _, err := txn.Get([]byte(entry.Key)); err == nil {
			return nil
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(entry.Key), data)
	})
	if err != nil {
		return &model.StoreError{Key: entry.Key, Cause: err}
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
