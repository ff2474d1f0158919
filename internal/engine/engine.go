// Package engine orchestrates a diagnosis run: parse the raw parameter
// entries, expand the design space, fingerprint the evaluation, serve it from
// the cache store or compute it on the executor pool, and aggregate the
// outcome into a single deterministic result.
//
// Concurrent runs targeting the same cache key are coalesced: at most one
// computation per key is in flight, and later callers await its result.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/vk/designgridgo/internal/cache"
	"github.com/vk/designgridgo/internal/ctxlog"
	"github.com/vk/designgridgo/internal/designer"
	"github.com/vk/designgridgo/internal/designspace"
	"github.com/vk/designgridgo/internal/executor"
	"github.com/vk/designgridgo/internal/fingerprint"
	"github.com/vk/designgridgo/internal/metrics"
	"github.com/vk/designgridgo/internal/model"
	"github.com/vk/designgridgo/internal/params"
	"github.com/vk/designgridgo/internal/table"
	"github.com/zclconf/go-cty/cty"
)

// RawParam is one user-entered parameter: a name, its unparsed text and an
// optional shape hint from the designer's metadata. Order is significant: it
// defines the expansion order and therefore the result row order.
type RawParam struct {
	Name string
	Text string
	Hint params.Hint
}

// DefaultCeiling bounds the design-space size for runs that do not configure
// their own ceiling.
const DefaultCeiling = 10000

// Engine wires the cache store and the executor pool. The store is the only
// shared mutable resource; it is an explicit constructed dependency with no
// implicit singleton, so tests can substitute an in-memory double.
type Engine struct {
	store   cache.Store
	pool    *executor.Pool
	ceiling int
	metrics *metrics.Metrics
	flight  singleflight.Group
}

// New constructs an engine. ceiling <= 0 selects DefaultCeiling; metrics may
// be nil.
func New(store cache.Store, pool *executor.Pool, ceiling int, m *metrics.Metrics) *Engine {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Engine{store: store, pool: pool, ceiling: ceiling, metrics: m}
}

// bundle is the shared outcome of one coalesced computation.
type bundle struct {
	entry     *cache.Entry
	fromCache bool
}

// RunDiagnoses is the caller-facing entry point. It returns a ParseError for
// malformed parameter text, an ExpansionError for an oversized grid, and the
// aggregated result otherwise. Cache persistence failures are reported in the
// log only; the computed result is still returned.
func (e *Engine) RunDiagnoses(ctx context.Context, ev designer.Evaluator, rawParams []RawParam, cfg model.SimConfig) (*model.DiagnosisResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	if cfg.Seed == 0 {
		// A clock-derived seed makes the run unique, and deliberately so:
		// its fingerprint will not match any earlier run.
		cfg.Seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID, "designer", ev.Name())
	ctx = ctxlog.WithLogger(ctx, logger)

	seqs := make([]*params.Sequence, 0, len(rawParams))
	for _, rp := range rawParams {
		seq, err := params.Parse(rp.Name, rp.Text, rp.Hint)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}

	points, err := designspace.Expand(seqs, e.ceiling)
	if err != nil {
		return nil, err
	}
	key := fingerprint.Fingerprint(ev.Source(), points, cfg)
	logger.Info("Diagnosis run prepared.", "points", len(points), "key", key)

	v, err, _ := e.flight.Do(string(key), func() (any, error) {
		return e.lookupOrCompute(ctx, key, ev, points, cfg)
	})
	if err != nil {
		return nil, err
	}
	b := v.(*bundle)

	return &model.DiagnosisResult{
		Key:         b.entry.Key,
		Simulations: b.entry.Simulations,
		Diagnosands: b.entry.Diagnosands,
		Failures:    b.entry.Failures,
		FromCache:   b.fromCache,
		CreatedAt:   b.entry.CreatedAt,
	}, nil
}

// lookupOrCompute is the per-key critical section guarded by singleflight.
func (e *Engine) lookupOrCompute(ctx context.Context, key model.CacheKey, ev designer.Evaluator, points []designspace.Point, cfg model.SimConfig) (*bundle, error) {
	logger := ctxlog.FromContext(ctx)

	if entry, ok := e.store.Lookup(ctx, key); ok {
		if entry.Key != key {
			// A hit whose payload identifies as a different key means the
			// digest no longer identifies content: an unrecoverable
			// integrity fault, not a condition the caller can handle.
			panic(fmt.Sprintf("cache key collision: looked up %s, entry claims %s", key, entry.Key))
		}
		logger.Info("Cache hit.", "key", key, "created_at", entry.CreatedAt)
		if e.metrics != nil {
			e.metrics.CacheHits.Inc()
		}
		return &bundle{entry: entry, fromCache: true}, nil
	}
	if e.metrics != nil {
		e.metrics.CacheMisses.Inc()
	}
	logger.Info("Cache miss, evaluating.", "key", key, "points", len(points))

	results, err := e.pool.Evaluate(ctx, points, ev, cfg)
	if err != nil {
		// Cancelled: no partial cache entry is ever written, so a stored
		// entry always represents a fully completed evaluation.
		return nil, err
	}

	entry := aggregate(key, results)
	if err := e.store.Put(ctx, entry); err != nil {
		// Persistence failure does not invalidate the in-memory result.
		logger.Error("Cache write failed; returning uncached result.", "key", key, "error", err)
		if e.metrics != nil {
			e.metrics.StoreFailures.Inc()
		}
	}
	return &bundle{entry: entry}, nil
}

// aggregate assembles per-point results, in point order, into one cache
// entry. Each successful point's rows are prefixed with that point's
// parameter assignment columns; failed points become failure records.
func aggregate(key model.CacheKey, results []executor.PointResult) *cache.Entry {
	entry := &cache.Entry{Key: key, CreatedAt: time.Now().UTC()}
	for _, res := range results {
		if res.Err != nil {
			entry.Failures = append(entry.Failures, model.PointFailure{
				Index:   res.Point.Index,
				Message: res.Err.Error(),
			})
			continue
		}
		entry.Simulations.Concat(withAssignments(res.Point, res.Simulations))
		entry.Diagnosands.Concat(withAssignments(res.Point, res.Diagnosands))
	}
	return entry
}

// withAssignments returns t with the point's parameter columns prepended, so
// every aggregated row is keyed by the assignment that produced it.
func withAssignments(point designspace.Point, t table.Table) table.Table {
	columns := make([]string, 0, len(point.Assignments)+len(t.Columns))
	prefix := make([]any, 0, len(point.Assignments))
	for _, a := range point.Assignments {
		columns = append(columns, a.Name)
		prefix = append(prefix, cell(a.Value))
	}
	columns = append(columns, t.Columns...)

	out := table.New(columns...)
	for _, row := range t.Rows {
		merged := make([]any, 0, len(columns))
		merged = append(merged, prefix...)
		merged = append(merged, row...)
		out.AppendRow(merged...)
	}
	return out
}

// cell converts a parameter value into a table cell. Vectors render as their
// canonical text, which keeps the table JSON round-trip safe.
func cell(v cty.Value) any {
	switch {
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case v.Type() == cty.Bool:
		return v.True()
	case v.Type() == cty.String:
		return v.AsString()
	default:
		return designspace.FormatValue(v)
	}
}
