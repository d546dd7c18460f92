package engine

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedDirections inserts one unit vector per entry, returning ids in order.
func seedDirections(t *testing.T, e *Engine, owner string, vectors [][]float32) []uint64 {
	t.Helper()

	ids := make([]uint64, 0, len(vectors))
	for _, v := range vectors {
		id, err := e.Insert(context.Background(), v, map[string]any{"user_id": owner})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestSearchRanking(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	ids := seedDirections(t, e, "alice", [][]float32{
		{1, 0},        // orthogonal to the query
		{0, 1},        // exact direction
		{1, 1},        // 45 degrees
		{-0.2, -0.9},  // opposite-ish
		{0.1, 0.995},  // near the query
	})

	results, err := e.Search(ctx, []float32{0, 1}, nil, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, ids[1], results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
	assert.Equal(t, ids[4], results[1].ID)
	assert.Equal(t, ids[2], results[2].ID)

	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestSearchLimit(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	seedDirections(t, e, "alice", [][]float32{{1, 0}, {0, 1}, {1, 1}})

	results, err := e.Search(ctx, []float32{1, 1}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = e.Search(ctx, []float32{1, 1}, nil, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchOwnerFilter(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	aliceIDs := seedDirections(t, e, "alice", [][]float32{{0, 1}, {1, 0}})
	seedDirections(t, e, "bob", [][]float32{{0, 1}, {0.1, 1}})

	results, err := e.Search(ctx, []float32{0, 1}, map[string]any{"user_id": "alice"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, aliceIDs[0], results[0].ID)
	for _, r := range results {
		assert.Equal(t, "alice", r.Properties["user_id"])
	}
}

func TestSearchPropertyFilter(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	_, err := e.Insert(ctx, []float32{0, 1}, map[string]any{"user_id": "alice", "memory_type": "episodic"})
	require.NoError(t, err)
	want, err := e.Insert(ctx, []float32{0.1, 1}, map[string]any{"user_id": "alice", "memory_type": "semantic"})
	require.NoError(t, err)

	results, err := e.Search(ctx, []float32{0, 1}, map[string]any{
		"user_id":     "alice",
		"memory_type": "semantic",
	}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, want, results[0].ID)
}

func TestSearchNonStringOwnerValue(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	// A numeric owner value cannot use the owner index, but it must still
	// constrain the candidate set like any other property.
	match, err := e.Insert(ctx, []float32{0, 1}, map[string]any{"user_id": 42})
	require.NoError(t, err)
	_, err = e.Insert(ctx, []float32{0, 1}, map[string]any{"user_id": "alice"})
	require.NoError(t, err)
	_, err = e.Insert(ctx, []float32{0, 1}, map[string]any{"user_id": 7})
	require.NoError(t, err)

	results, err := e.Search(ctx, []float32{0, 1}, map[string]any{"user_id": 42}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match, results[0].ID)
}

func TestSearchHugeLimit(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	seedDirections(t, e, "alice", [][]float32{{0, 1}, {1, 0}, {1, 1}})

	results, err := e.Search(ctx, []float32{0, 1}, nil, math.MaxInt32)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSearchTieBreakByInsertionOrder(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	// Identical vectors score identically; earlier ids must win.
	ids := seedDirections(t, e, "alice", [][]float32{{0, 1}, {0, 1}, {0, 1}})

	results, err := e.Search(ctx, []float32{0, 1}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, ids[0], results[0].ID)
	assert.Equal(t, ids[1], results[1].ID)
}

func TestSearchValidation(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	_, err := e.Search(ctx, nil, nil, 5)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.Search(ctx, []float32{1}, nil, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.Search(ctx, []float32{1}, nil, -3)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSearchDimensionMismatchCandidate(t *testing.T) {
	ctx := context.Background()
	e := New() // permissive: mixed dimensions can coexist
	defer e.Close()

	_, err := e.Insert(ctx, []float32{1, 0}, nil)
	require.NoError(t, err)
	_, err = e.Insert(ctx, []float32{1, 0, 0}, nil)
	require.NoError(t, err)

	_, err = e.Search(ctx, []float32{0, 1}, nil, 5)

	var dimErr *ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Actual)
}

func TestSearchFixedDimensionQuery(t *testing.T) {
	e := New(func(o *Options) { o.Dimension = 3 })
	defer e.Close()

	_, err := e.Search(context.Background(), []float32{1, 0}, nil, 5)

	var dimErr *ErrDimensionMismatch
	assert.ErrorAs(t, err, &dimErr)
}

func TestSearchEmptyStore(t *testing.T) {
	e := New()
	defer e.Close()

	results, err := e.Search(context.Background(), []float32{1, 0}, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchZeroVectorCandidate(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	zero, err := e.Insert(ctx, []float32{0, 0}, nil)
	require.NoError(t, err)
	hit, err := e.Insert(ctx, []float32{0, 1}, nil)
	require.NoError(t, err)

	results, err := e.Search(ctx, []float32{0, 1}, nil, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, hit, results[0].ID)
	assert.Equal(t, zero, results[1].ID)
	assert.Equal(t, float32(0), results[1].Score)
}

func TestSearchCacheHit(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	seedDirections(t, e, "alice", [][]float32{{0, 1}, {1, 0}})

	first, err := e.Search(ctx, []float32{0, 1}, map[string]any{"user_id": "alice"}, 5)
	require.NoError(t, err)

	second, err := e.Search(ctx, []float32{0, 1}, map[string]any{"user_id": "alice"}, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := e.Stats()
	assert.Equal(t, int64(1), stats.QueryCache.Hits)
	assert.Equal(t, uint64(2), stats.Queries)
}

func TestSearchCacheDropsDeletedHits(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	ids := seedDirections(t, e, "alice", [][]float32{{0, 1}, {0.5, 1}, {1, 0}})

	results, err := e.Search(ctx, []float32{0, 1}, nil, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Delete the top hit; the cached ranking must not resurrect it.
	require.NoError(t, e.Delete(ctx, ids[0]))

	results, err = e.Search(ctx, []float32{0, 1}, nil, 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, ids[0], r.ID)
	}
}

func TestSearchDistinctQueriesDistinctCacheEntries(t *testing.T) {
	ctx := context.Background()
	e := New()
	defer e.Close()

	seedDirections(t, e, "alice", [][]float32{{0, 1}, {1, 0}})

	a, err := e.Search(ctx, []float32{0, 1}, nil, 1)
	require.NoError(t, err)
	b, err := e.Search(ctx, []float32{1, 0}, nil, 1)
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.NotEqual(t, a[0].ID, b[0].ID)
}

func BenchmarkSearch(b *testing.B) {
	ctx := context.Background()
	e := New(func(o *Options) { o.QueryCacheSize = 0 }) // measure scoring, not cache hits
	defer e.Close()

	const dim = 128
	for i := 0; i < 10000; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = float32((i*31 + j*7) % 97)
		}
		if _, err := e.Insert(ctx, v, map[string]any{"user_id": "bench"}); err != nil {
			b.Fatal(err)
		}
	}

	query := make([]float32, dim)
	for j := range query {
		query[j] = float32(j % 13)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Search(ctx, query, nil, 10); err != nil {
			b.Fatal(err)
		}
	}
}
