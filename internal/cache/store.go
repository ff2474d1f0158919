// Package cache implements the content-addressed diagnosis cache: a
// persistent mapping from fingerprint keys to previously computed results.
//
// Entries are immutable once written. A changed input always produces a new
// entry under a new key; nothing is ever updated in place and no eviction is
// performed. Lookup is fail-open: a missing or corrupt backing record reads
// as absent so the engine recomputes instead of surfacing an error the user
// cannot act on.
package cache

import (
	"context"
	"time"

	"github.com/vk/designgridgo/internal/model"
	"github.com/vk/designgridgo/internal/table"
)

// Entry is one fully completed evaluation, keyed by its fingerprint.
type Entry struct {
	Key         model.CacheKey       `json:"key"`
	Simulations table.Table          `json:"simulations"`
	Diagnosands table.Table          `json:"diagnosands"`
	Failures    []model.PointFailure `json:"failures,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Store is the cache backing medium. Implementations must be safe for
// concurrent use.
type Store interface {
	// Lookup returns the entry for key, or absent. It never fails: corrupt
	// or unreadable records are treated as absent.
	Lookup(ctx context.Context, key model.CacheKey) (*Entry, bool)

	// Put persists a completed entry. Failures are reported as a
	// *model.StoreError; the in-memory entry remains valid regardless.
	Put(ctx context.Context, entry *Entry) error

	// Close releases any backing resources.
	Close() error
}
