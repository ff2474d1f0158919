// Package model defines the shared domain types for the diagnosis engine:
// the simulation configuration, cache keys, aggregated results and the
// error taxonomy surfaced to callers.
package model

import (
	"errors"
	"time"

	"github.com/vk/designgridgo/internal/table"
)

// SimConfig describes how each design point is simulated and diagnosed.
// It is immutable for the duration of a run and participates in the cache
// fingerprint: changing any field produces a different cache key.
type SimConfig struct {
	// Simulations is the number of simulation draws per design point. Must be >= 1.
	Simulations int

	// Bootstraps is the number of bootstrap resamples used to estimate
	// diagnosand uncertainty. Must be >= 0; 0 disables bootstrap errors.
	Bootstraps int

	// Seed drives the per-point random streams. 0 means "derive from the
	// clock" at run time, which also makes the run uncacheable against
	// earlier runs, so callers wanting cache hits should pin a seed.
	Seed int64

	// CacheVersion namespaces all cache entries. Bump it to deliberately
	// invalidate every previously stored result, e.g. after changing the
	// fingerprint scheme or the result schema.
	CacheVersion string
}

// Validate checks the configuration invariants.
func (c SimConfig) Validate() error {
	if c.Simulations < 1 {
		return errors.New("simulations must be at least 1")
	}
	if c.Bootstraps < 0 {
		return errors.New("bootstraps cannot be negative")
	}
	if c.CacheVersion == "" {
		return errors.New("cache version must not be empty")
	}
	return nil
}

// CacheKey is the hex form of a content fingerprint over a designer's source
// representation, an expanded point sequence and a SimConfig.
type CacheKey string

// PointFailure records a design point whose instantiation or simulation
// failed. Failed points are excluded from aggregate diagnosands but reported
// alongside the successful rows.
type PointFailure struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// DiagnosisResult is the aggregated outcome of one diagnosis run across all
// expanded design points, in expansion order.
type DiagnosisResult struct {
	Key CacheKey

	// Simulations holds the raw simulation draws of all successful points.
	Simulations table.Table

	// Diagnosands holds one row group per successful point, keyed by the
	// parameter assignment columns that produced it.
	Diagnosands table.Table

	Failures []PointFailure

	// FromCache reports whether the result was read from the cache store.
	// Callers coalesced onto an in-flight computation report false: their
	// result was computed, not read back.
	FromCache bool

	CreatedAt time.Time
}
