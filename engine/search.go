package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecmem/distance"
	"github.com/hupe1980/vecmem/internal/queue"
)

// SearchResult is one ranked similarity-search hit.
type SearchResult struct {
	ID         uint64
	Score      float32
	Properties map[string]any
}

// minChunk is the smallest candidate chunk worth a goroutine of its own;
// below it the scheduling overhead outweighs the scoring work.
const minChunk = 256

// scoreCandidates computes cosine similarity between query and every
// candidate, in parallel chunks, and returns the best items ordered by
// descending score (ties by ascending id, i.e. insertion order).
//
// A candidate whose dimensionality differs from the query fails the whole
// call with ErrDimensionMismatch; mismatches are never silently coerced.
func scoreCandidates(ctx context.Context, query []float32, cands []*record, limit, workers int) ([]queue.Item, error) {
	if len(cands) == 0 {
		return nil, nil
	}
	if limit > len(cands) {
		// At most len(cands) items can rank; a larger limit would only
		// inflate the heap preallocations.
		limit = len(cands)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if max := (len(cands) + minChunk - 1) / minChunk; workers > max {
		workers = max
	}

	chunkSize := (len(cands) + workers - 1) / workers
	locals := make([]*queue.TopK, workers)

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, len(cands))
		if start >= end {
			continue
		}
		local := queue.NewTopK(limit)
		locals[w] = local

		g.Go(func() error {
			for i, r := range cands[start:end] {
				if i%1024 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if len(r.embedding) != len(query) {
					return &ErrDimensionMismatch{Expected: len(query), Actual: len(r.embedding)}
				}
				local.Offer(queue.Item{ID: r.id, Score: distance.Cosine(query, r.embedding)})
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := queue.NewTopK(limit)
	for _, local := range locals {
		if local == nil {
			continue
		}
		for _, item := range local.Drain() {
			merged.Offer(item)
		}
	}
	return merged.Drain(), nil
}
