// Package engine implements the concurrent vector store core: the record
// table, its owner and dimension indexes, the two-tier result cache, the
// batch staging buffer and the parallel similarity-search routine.
//
// The engine is synchronous; the vecmem package wraps it in worker pools and
// a future-based API.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/vecmem/cache"
	"github.com/hupe1980/vecmem/internal/queue"
)

// Options configures an Engine.
type Options struct {
	// Dimension, when > 0, enforces a fixed embedding dimensionality for all
	// inserts and updates. When 0 (the default) records of different
	// dimensionality may coexist.
	Dimension int

	// OwnerKey is the properties key under which records are partitioned.
	OwnerKey string

	// TypeKey is the properties key used by MemoryTypeDistribution.
	TypeKey string

	// PointCacheSize bounds the by-id cache tier. <= 0 disables it.
	PointCacheSize int

	// QueryCacheSize bounds the query-result cache tier. <= 0 disables it.
	QueryCacheSize int

	// CacheTTL is the per-entry time-to-live for both cache tiers.
	CacheTTL time.Duration

	// SearchWorkers is the parallelism of candidate scoring.
	// <= 0 means GOMAXPROCS.
	SearchWorkers int
}

// DefaultOptions contains the default engine configuration.
var DefaultOptions = Options{
	OwnerKey:       "user_id",
	TypeKey:        "memory_type",
	PointCacheSize: 1024,
	QueryCacheSize: 256,
	CacheTTL:       5 * time.Minute,
}

// Engine is the concurrent vector store core.
//
// Locking: mutations (insert/update/delete and the cache invalidation that
// belongs to them) run under the exclusive mutation lock, so the record
// table, both secondary indexes and the caches always change as one logical
// operation. Point reads take the shared side of the lock only long enough
// to fill the point cache coherently; search scoring runs outside the lock
// against immutable record snapshots.
type Engine struct {
	opts Options

	mu      sync.RWMutex
	store   *MapStore
	owners  *OwnerIndex
	dims    *DimensionIndex
	staging *StagingBuffer

	pointCache *cache.Cache[uint64, *VectorRecord]
	queryCache *cache.Cache[string, any]

	colMu       sync.RWMutex
	collections map[string]int

	nextID    atomic.Uint64
	batchMode atomic.Bool
	closed    atomic.Bool

	counters counters
	sf       singleflight.Group
}

// New creates an Engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.OwnerKey == "" {
		opts.OwnerKey = DefaultOptions.OwnerKey
	}
	if opts.TypeKey == "" {
		opts.TypeKey = DefaultOptions.TypeKey
	}
	if opts.SearchWorkers <= 0 {
		opts.SearchWorkers = runtime.GOMAXPROCS(0)
	}

	e := &Engine{
		opts:        opts,
		store:       NewMapStore(),
		owners:      NewOwnerIndex(),
		dims:        NewDimensionIndex(),
		staging:     NewStagingBuffer(),
		pointCache:  cache.New[uint64, *VectorRecord](opts.PointCacheSize, opts.CacheTTL),
		queryCache:  cache.New[string, any](opts.QueryCacheSize, opts.CacheTTL),
		collections: make(map[string]int),
	}
	if opts.CacheTTL > 0 {
		e.pointCache.StartJanitor(opts.CacheTTL)
		e.queryCache.StartJanitor(opts.CacheTTL)
	}
	return e
}

// validateVector applies shared insert/update vector validation.
func (e *Engine) validateVector(vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", ErrInvalidArgument)
	}
	if e.opts.Dimension > 0 && len(vector) != e.opts.Dimension {
		return &ErrDimensionMismatch{Expected: e.opts.Dimension, Actual: len(vector)}
	}
	return nil
}

// Insert stores a defensive copy of vector and properties under a fresh id.
// While batch mode is active the record is staged instead and stays
// invisible until CommitBatch.
func (e *Engine) Insert(ctx context.Context, vector []float32, properties map[string]any) (uint64, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if err := e.validateVector(vector); err != nil {
		return 0, err
	}

	id := e.nextID.Add(1)
	rec := newRecord(id, vector, properties, time.Now())

	if e.batchMode.Load() {
		e.staging.Add(rec)
		return id, nil
	}

	e.applyInsert(rec)
	return id, nil
}

// applyInsert makes rec visible: record table, both indexes and the cache
// invalidation happen as one logical operation under the mutation lock.
func (e *Engine) applyInsert(rec *record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.store.Set(rec.id, rec)
	e.dims.Add(len(rec.embedding), rec.id)

	e.pointCache.Remove(rec.id)
	if owner, ok := rec.owner(e.opts.OwnerKey); ok {
		e.owners.Add(owner, rec.id)
		e.queryCache.Remove(ownerAllKey(owner))
	}

	e.counters.inserts.Add(1)
}

// BatchInsert inserts multiple vectors. The input lists must have equal
// length; on a length mismatch (or any per-record validation failure)
// nothing is inserted.
func (e *Engine) BatchInsert(ctx context.Context, vectors [][]float32, propertiesList []map[string]any) ([]uint64, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if len(vectors) != len(propertiesList) {
		return nil, fmt.Errorf("%w: %d vectors but %d properties", ErrInvalidArgument, len(vectors), len(propertiesList))
	}

	// Validate everything up front so a late failure cannot leave a partial
	// batch behind.
	for _, v := range vectors {
		if err := e.validateVector(v); err != nil {
			return nil, err
		}
	}

	ids := make([]uint64, 0, len(vectors))
	for i, v := range vectors {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		id, err := e.Insert(ctx, v, propertiesList[i])
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Update replaces the embedding of id and merges properties over the
// existing ones (existing keys absent from the new map are preserved).
// The whole read-merge-write runs under the mutation lock, so concurrent
// updates to the same id serialize instead of losing writes.
func (e *Engine) Update(ctx context.Context, id uint64, vector []float32, properties map[string]any) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if err := e.validateVector(vector); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	old, ok := e.store.Get(id)
	if !ok {
		return ErrNotFound
	}

	merged := make(map[string]any, len(old.properties)+len(properties))
	for k, v := range old.properties {
		merged[k] = v
	}
	for k, v := range properties {
		merged[k] = v
	}

	rec := newRecord(id, vector, merged, old.createdTime)
	rec.lastAccess.Store(old.lastAccess.Load())

	if oldDim, newDim := len(old.embedding), len(rec.embedding); oldDim != newDim {
		e.dims.Remove(oldDim, id)
		e.dims.Add(newDim, id)
	}

	oldOwner, hadOwner := old.owner(e.opts.OwnerKey)
	newOwner, hasOwner := rec.owner(e.opts.OwnerKey)
	if hadOwner && (!hasOwner || oldOwner != newOwner) {
		e.owners.Remove(oldOwner, id)
		e.queryCache.Remove(ownerAllKey(oldOwner))
	}
	if hasOwner {
		if !hadOwner || oldOwner != newOwner {
			e.owners.Add(newOwner, id)
		}
		e.queryCache.Remove(ownerAllKey(newOwner))
	}

	e.store.Set(id, rec)
	e.pointCache.Remove(id)
	e.counters.updates.Add(1)
	return nil
}

// Delete removes the record for id, prunes it from both indexes and
// invalidates the caches referencing it. Deleting an absent id reports
// ErrNotFound; idempotent callers may ignore that error.
func (e *Engine) Delete(ctx context.Context, id uint64) error {
	if e.closed.Load() {
		return ErrClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deleteLocked(id)
}

func (e *Engine) deleteLocked(id uint64) error {
	rec, ok := e.store.Get(id)
	if !ok {
		return ErrNotFound
	}

	_ = e.store.Delete(id)
	e.dims.Remove(len(rec.embedding), id)
	e.pointCache.Remove(id)
	if owner, ok := rec.owner(e.opts.OwnerKey); ok {
		e.owners.Remove(owner, id)
		e.queryCache.Remove(ownerAllKey(owner))
	}

	e.counters.deletes.Add(1)
	return nil
}

// DeleteByFilter deletes every record whose properties match filter by
// exact equality on every key, returning the number deleted. The scan is
// not atomic: records inserted concurrently may or may not be included.
func (e *Engine) DeleteByFilter(ctx context.Context, filter map[string]any) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if len(filter) == 0 {
		return 0, fmt.Errorf("%w: empty filter", ErrInvalidArgument)
	}

	count := 0
	for _, rec := range e.store.All() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if !matchesFilter(rec.properties, filter) {
			continue
		}

		e.mu.Lock()
		// Re-check under the lock: the record may have been deleted or
		// replaced since the scan snapshot.
		if cur, ok := e.store.Get(rec.id); ok && matchesFilter(cur.properties, filter) {
			_ = e.deleteLocked(rec.id)
			count++
		}
		e.mu.Unlock()
	}
	return count, nil
}

// Get returns a snapshot of the record for id, consulting the point cache
// first. Reads bump the record's last-access stamp.
func (e *Engine) Get(ctx context.Context, id uint64) (*VectorRecord, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	e.mu.RLock()
	if snap, ok := e.pointCache.Get(id); ok {
		e.mu.RUnlock()
		if rec, ok := e.store.Get(id); ok {
			rec.touch(time.Now())
		}
		return snap.Clone(), nil
	}

	rec, ok := e.store.Get(id)
	if !ok {
		e.mu.RUnlock()
		return nil, ErrNotFound
	}
	rec.touch(time.Now())
	snap := rec.snapshot()
	e.pointCache.Set(id, snap)
	e.mu.RUnlock()

	return snap.Clone(), nil
}

// GetAllByUser returns snapshots of every record owned by owner, ordered by
// ascending id (insertion order). The id list is served from the query
// cache under the key "owner_all_<owner>".
func (e *Engine) GetAllByUser(ctx context.Context, owner string) ([]*VectorRecord, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	key := ownerAllKey(owner)

	e.mu.RLock()
	var ids []uint64
	if v, ok := e.queryCache.Get(key); ok {
		ids = v.([]uint64)
	} else {
		ids = e.owners.IDs(owner)
		e.queryCache.Set(key, ids)
	}
	e.mu.RUnlock()

	recs := e.store.Collect(ids)
	out := make([]*VectorRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.snapshot())
	}
	return out, nil
}

// MemoryCount returns the number of records owned by owner.
func (e *Engine) MemoryCount(ctx context.Context, owner string) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	return e.owners.Count(owner), nil
}

// MemoryTypeDistribution returns, for owner, the count of records per value
// of the configured type key. Records without a string-typed value under
// that key are skipped.
func (e *Engine) MemoryTypeDistribution(ctx context.Context, owner string) (map[string]int, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	dist := make(map[string]int)
	for _, rec := range e.store.Collect(e.owners.IDs(owner)) {
		if t, ok := rec.properties[e.opts.TypeKey].(string); ok {
			dist[t]++
		}
	}
	return dist, nil
}

// Search scores the candidate set against query by cosine similarity and
// returns the top results in descending score order, at most limit of them.
//
// When filter carries the owner key, candidates are restricted to that
// owner's records; every other filter key must match by exact equality.
// Identical concurrent cache-miss searches are collapsed via singleflight.
func (e *Engine) Search(ctx context.Context, query []float32, filter map[string]any, limit int) ([]SearchResult, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", ErrInvalidArgument)
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidArgument, limit)
	}
	if e.opts.Dimension > 0 && len(query) != e.opts.Dimension {
		return nil, &ErrDimensionMismatch{Expected: e.opts.Dimension, Actual: len(query)}
	}

	e.counters.queries.Add(1)

	key := searchCacheKey(filter, query, limit)
	if v, ok := e.queryCache.Get(key); ok {
		return e.materialize(v.([]queue.Item)), nil
	}

	v, err, _ := e.sf.Do(key, func() (any, error) {
		items, err := e.searchUncached(ctx, query, filter, limit)
		if err != nil {
			return nil, err
		}
		e.queryCache.Set(key, items)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return e.materialize(v.([]queue.Item)), nil
}

// searchUncached runs candidate selection, filtering and parallel scoring.
func (e *Engine) searchUncached(ctx context.Context, query []float32, filter map[string]any, limit int) ([]queue.Item, error) {
	var cands []*record
	ownerIndexed := false
	if owner, ok := filter[e.opts.OwnerKey].(string); ok {
		cands = e.store.Collect(e.owners.IDs(owner))
		ownerIndexed = true
	} else {
		cands = e.store.All()
		// Map iteration order is random; sort so chunking and tie-breaks
		// see candidates in insertion order.
		sort.Slice(cands, func(i, j int) bool { return cands[i].id < cands[j].id })
	}

	if len(filter) > 0 {
		rest := make(map[string]any, len(filter))
		for k, v := range filter {
			// The owner key is already satisfied by the index lookup. A
			// non-string owner value cannot use the index and matches like
			// any other property.
			if ownerIndexed && k == e.opts.OwnerKey {
				continue
			}
			rest[k] = v
		}
		if len(rest) > 0 {
			filtered := cands[:0:len(cands)]
			for _, rec := range cands {
				if matchesFilter(rec.properties, rest) {
					filtered = append(filtered, rec)
				}
			}
			cands = filtered
		}
	}

	return scoreCandidates(ctx, query, cands, limit, e.opts.SearchWorkers)
}

// materialize resolves ranked (id, score) items against the live record
// table. Ids deleted since the items were computed (or cached) drop out, so
// a cached search can never resurrect a tombstoned record. Returned hits
// count as reads and bump the last-access stamp.
func (e *Engine) materialize(items []queue.Item) []SearchResult {
	now := time.Now()
	out := make([]SearchResult, 0, len(items))
	for _, item := range items {
		rec, ok := e.store.Get(item.ID)
		if !ok {
			continue
		}
		rec.touch(now)
		out = append(out, SearchResult{
			ID:         item.ID,
			Score:      item.Score,
			Properties: rec.snapshot().Properties,
		})
	}
	return out
}

// SetBatchMode toggles batch staging. The flag is sampled once per insert,
// so toggling with inserts in flight is safe per operation, but offers no
// barrier: an insert that sampled the old mode completes under it.
func (e *Engine) SetBatchMode(enabled bool) {
	e.batchMode.Store(enabled)
}

// BatchMode reports whether batch staging is active.
func (e *Engine) BatchMode() bool {
	return e.batchMode.Load()
}

// CommitBatch flushes every staged record into the record table and its
// indexes, in staging order, and clears the buffer. It stops at the first
// failure (context cancellation): records flushed before the failure stay
// applied, the remainder of the drained buffer is discarded.
func (e *Engine) CommitBatch(ctx context.Context) (int, error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}

	staged := e.staging.Drain()
	for i, rec := range staged {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		e.applyInsert(rec)
	}
	return len(staged), nil
}

// CreateCollection registers a named collection with a declared dimension.
// In this single-namespace in-memory design it is bookkeeping only, kept
// for interface parity with networked vector databases.
func (e *Engine) CreateCollection(name string, dimension int) error {
	if e.closed.Load() {
		return ErrClosed
	}
	if name == "" {
		return fmt.Errorf("%w: empty collection name", ErrInvalidArgument)
	}
	if dimension < 0 {
		return fmt.Errorf("%w: negative dimension %d", ErrInvalidArgument, dimension)
	}

	e.colMu.Lock()
	defer e.colMu.Unlock()
	e.collections[name] = dimension
	return nil
}

// CollectionExists reports whether name has been created.
func (e *Engine) CollectionExists(name string) bool {
	e.colMu.RLock()
	defer e.colMu.RUnlock()

	_, ok := e.collections[name]
	return ok
}

// DropCollection unregisters name and bulk-clears all in-memory state
// (single namespace: every record belongs to every collection).
// Dropping an unknown name still clears; the operation is idempotent.
func (e *Engine) DropCollection(name string) error {
	if e.closed.Load() {
		return ErrClosed
	}

	e.colMu.Lock()
	delete(e.collections, name)
	e.colMu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearLocked()
	return nil
}

// clearLocked drops all records, indexes, caches and staged state.
// Id assignment is not reset: identifiers stay unique for the lifetime of
// the process.
func (e *Engine) clearLocked() {
	e.store.Clear()
	e.owners.Clear()
	e.dims.Clear()
	e.staging.Clear()
	e.pointCache.Purge()
	e.queryCache.Purge()
}

// Len returns the number of committed records.
func (e *Engine) Len() int {
	return e.store.Len()
}

// Stats returns an immutable snapshot of the engine's counters.
func (e *Engine) Stats() StatsSnapshot {
	return StatsSnapshot{
		Records:    e.store.Len(),
		Staged:     e.staging.Len(),
		Queries:    e.counters.queries.Load(),
		Inserts:    e.counters.inserts.Load(),
		Updates:    e.counters.updates.Load(),
		Deletes:    e.counters.deletes.Load(),
		PointCache: e.pointCache.Stats(),
		QueryCache: e.queryCache.Stats(),
	}
}

// Close releases the caches' background workers and clears all in-memory
// state. Subsequent operations fail with ErrClosed. Idempotent.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	_ = e.pointCache.Close()
	_ = e.queryCache.Close()

	e.mu.Lock()
	e.store.Clear()
	e.owners.Clear()
	e.dims.Clear()
	e.staging.Clear()
	e.mu.Unlock()
	return nil
}
