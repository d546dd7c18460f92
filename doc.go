// Package vecmem provides an embedded, concurrent in-memory vector store for
// AI memory workloads.
//
// Vecmem keeps high-dimensional embeddings together with free-form metadata
// and serves exact cosine-similarity search over them:
//
//   - Thread-safe CRUD on (id, embedding, properties) records
//   - Secondary indexes by owner and by embedding dimension (Roaring Bitmaps)
//   - Two-tier bounded TTL result cache (point lookups and query results)
//   - Batch staging mode with explicit commit for bulk ingestion
//   - Two worker pools (I/O-shaped and compute-shaped) behind a future-based API
//   - Parallel brute-force top-K scoring sized to available cores
//
// # Quick Start
//
//	ctx := context.Background()
//	store, err := vecmem.New()
//	if err != nil {
//	    panic(err)
//	}
//	defer store.Close()
//
//	id, err := store.Insert(ctx, []float32{0.1, 0.2, 0.3}, map[string]any{
//	    "user_id":     "u1",
//	    "memory_type": "conversation",
//	}).Wait(ctx)
//
//	results, err := store.Search(ctx, []float32{0.1, 0.2, 0.3},
//	    map[string]any{"user_id": "u1"}, 10).Wait(ctx)
//
// All data-path operations return a *Future and never block the caller;
// resolve them with Wait or select on Done.
//
// Vecmem performs exact search only. There is no persistence, replication or
// approximate indexing; records live for the lifetime of the process.
package vecmem
