package vecmem

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/vecmem/engine"
)

// VectorRecord is a snapshot of a stored record. Embedding and Properties
// are copies; mutating them does not affect the store.
type VectorRecord = engine.VectorRecord

// SearchResult is one ranked similarity-search hit.
type SearchResult = engine.SearchResult

// StatsSnapshot is an immutable view of the store's counters.
type StatsSnapshot = engine.StatsSnapshot

// Store is an embedded, concurrent in-memory vector store.
//
// All data-path methods submit their work to one of two worker pools (an
// I/O-shaped pool for point operations, a compute-shaped pool for vector
// math) and return a Future immediately; the store never blocks the caller.
type Store struct {
	engine     *engine.Engine
	dispatcher *engine.Dispatcher
	metrics    MetricsCollector
	logger     *Logger
	closed     atomic.Bool
}

// New creates a Store. All components (caches, worker pools, logger,
// metrics) are constructed per instance; multiple isolated stores can
// coexist in one process.
func New(optFns ...Option) (*Store, error) {
	o := applyOptions(optFns)
	if o.dimension < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", ErrInvalidArgument, o.dimension)
	}

	eng := engine.New(func(eo *engine.Options) {
		eo.Dimension = o.dimension
		eo.OwnerKey = o.ownerKey
		eo.TypeKey = o.typeKey
		eo.PointCacheSize = o.pointCacheSize
		eo.QueryCacheSize = o.queryCacheSize
		eo.CacheTTL = o.cacheTTL
		eo.SearchWorkers = o.computeWorkers
	})

	return &Store{
		engine:     eng,
		dispatcher: engine.NewDispatcher(o.ioWorkers, o.computeWorkers),
		metrics:    o.metricsCollector,
		logger:     o.logger,
	}, nil
}

// submit routes fn onto the requested pool and resolves the returned future
// with its (translated) result. Submission failures resolve the future
// immediately.
func submit[T any](s *Store, ctx context.Context, compute bool, fn func(ctx context.Context) (T, error)) *Future[T] {
	if s.closed.Load() {
		return failedFuture[T](ErrStoreClosed)
	}

	f := newFuture[T]()
	task := func() {
		v, err := fn(ctx)
		f.complete(v, translateError(err))
	}

	var err error
	if compute {
		err = s.dispatcher.SubmitCompute(ctx, task)
	} else {
		err = s.dispatcher.SubmitIO(ctx, task)
	}
	if err != nil {
		return failedFuture[T](translateError(err))
	}
	return f
}

// Insert stores a copy of vector and properties under a fresh id and
// resolves to that id. While batch mode is active the record is staged and
// stays invisible until CommitBatch.
func (s *Store) Insert(ctx context.Context, vector []float32, properties map[string]any) *Future[uint64] {
	return submit(s, ctx, false, func(ctx context.Context) (uint64, error) {
		start := time.Now()
		id, err := s.engine.Insert(ctx, vector, properties)
		s.metrics.RecordInsert(time.Since(start), err)
		s.logger.LogInsert(ctx, id, len(vector), err)
		return id, err
	})
}

// BatchInsert inserts multiple vectors and resolves to their ids.
// The lists must have equal length; on a mismatch nothing is inserted.
func (s *Store) BatchInsert(ctx context.Context, vectors [][]float32, propertiesList []map[string]any) *Future[[]uint64] {
	return submit(s, ctx, true, func(ctx context.Context) ([]uint64, error) {
		start := time.Now()
		ids, err := s.engine.BatchInsert(ctx, vectors, propertiesList)
		s.metrics.RecordBatchInsert(len(vectors), time.Since(start), err)
		s.logger.LogBatchInsert(ctx, len(vectors), err)
		return ids, err
	})
}

// Update replaces the embedding of id and merges properties over the
// existing ones. Resolves with ErrNotFound if the id does not exist.
func (s *Store) Update(ctx context.Context, id uint64, vector []float32, properties map[string]any) *Future[struct{}] {
	return submit(s, ctx, false, func(ctx context.Context) (struct{}, error) {
		start := time.Now()
		err := s.engine.Update(ctx, id, vector, properties)
		s.metrics.RecordUpdate(time.Since(start), err)
		s.logger.LogUpdate(ctx, id, err)
		return struct{}{}, err
	})
}

// Delete removes the record for id. Deleting an absent id resolves with
// ErrNotFound; callers treating delete as idempotent may ignore it.
func (s *Store) Delete(ctx context.Context, id uint64) *Future[struct{}] {
	return submit(s, ctx, false, func(ctx context.Context) (struct{}, error) {
		start := time.Now()
		err := s.engine.Delete(ctx, id)
		s.metrics.RecordDelete(time.Since(start), err)
		s.logger.LogDelete(ctx, id, err)
		return struct{}{}, err
	})
}

// DeleteByFilter deletes every record whose properties match filter by
// exact equality on every key and resolves to the number deleted.
func (s *Store) DeleteByFilter(ctx context.Context, filter map[string]any) *Future[int] {
	return submit(s, ctx, true, func(ctx context.Context) (int, error) {
		return s.engine.DeleteByFilter(ctx, filter)
	})
}

// Get resolves to a snapshot of the record for id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id uint64) *Future[*VectorRecord] {
	return submit(s, ctx, false, func(ctx context.Context) (*VectorRecord, error) {
		start := time.Now()
		rec, err := s.engine.Get(ctx, id)
		s.metrics.RecordGet(time.Since(start), err)
		return rec, err
	})
}

// Search scores candidates against query by cosine similarity and resolves
// to at most limit results in descending score order. When filter carries
// the owner key, candidates are restricted to that owner; all other filter
// keys must match by exact equality.
func (s *Store) Search(ctx context.Context, query []float32, filter map[string]any, limit int) *Future[[]SearchResult] {
	return submit(s, ctx, true, func(ctx context.Context) ([]SearchResult, error) {
		start := time.Now()
		results, err := s.engine.Search(ctx, query, filter, limit)
		s.metrics.RecordSearch(limit, time.Since(start), err)
		s.logger.LogSearch(ctx, limit, len(results), err)
		return results, err
	})
}

// GetAllByUser resolves to snapshots of every record owned by owner, in
// insertion order.
func (s *Store) GetAllByUser(ctx context.Context, owner string) *Future[[]*VectorRecord] {
	return submit(s, ctx, false, func(ctx context.Context) ([]*VectorRecord, error) {
		return s.engine.GetAllByUser(ctx, owner)
	})
}

// GetMemoryCount resolves to the number of records owned by owner.
func (s *Store) GetMemoryCount(ctx context.Context, owner string) *Future[int] {
	return submit(s, ctx, false, func(ctx context.Context) (int, error) {
		return s.engine.MemoryCount(ctx, owner)
	})
}

// GetMemoryTypeDistribution resolves to a map from memory type to record
// count for owner, based on the configured type key.
func (s *Store) GetMemoryTypeDistribution(ctx context.Context, owner string) *Future[map[string]int] {
	return submit(s, ctx, true, func(ctx context.Context) (map[string]int, error) {
		return s.engine.MemoryTypeDistribution(ctx, owner)
	})
}

// EnableBatchMode switches subsequent inserts to the staging buffer.
// Staged records are invisible to reads until CommitBatch.
func (s *Store) EnableBatchMode() {
	s.engine.SetBatchMode(true)
}

// DisableBatchMode switches inserts back to direct writes. Records already
// staged remain staged until CommitBatch.
func (s *Store) DisableBatchMode() {
	s.engine.SetBatchMode(false)
}

// CommitBatch flushes every staged record into the store and resolves to
// the number committed.
func (s *Store) CommitBatch(ctx context.Context) *Future[int] {
	return submit(s, ctx, true, func(ctx context.Context) (int, error) {
		n, err := s.engine.CommitBatch(ctx)
		s.logger.LogCommitBatch(ctx, n, err)
		return n, err
	})
}

// CreateCollection registers a named collection with a declared dimension.
// Bookkeeping only in this single-namespace design; kept for interface
// parity with networked vector databases.
func (s *Store) CreateCollection(name string, dimension int) error {
	return translateError(s.engine.CreateCollection(name, dimension))
}

// CollectionExists reports whether name has been created.
func (s *Store) CollectionExists(name string) bool {
	return s.engine.CollectionExists(name)
}

// DropCollection unregisters name and clears all in-memory state.
func (s *Store) DropCollection(name string) error {
	return translateError(s.engine.DropCollection(name))
}

// Len returns the number of committed records.
func (s *Store) Len() int {
	return s.engine.Len()
}

// Stats returns an immutable snapshot of operation and cache counters.
func (s *Store) Stats() StatsSnapshot {
	return s.engine.Stats()
}

// Close drains both worker pools and clears all in-memory state. This is
// destructive: records are gone, not flushed anywhere. Subsequent
// operations fail with ErrStoreClosed. Idempotent.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.dispatcher.Close()
	return s.engine.Close()
}
