package engine

import (
	"sync/atomic"

	"github.com/hupe1980/vecmem/cache"
)

// counters are the engine's monotonically increasing operation counters.
// Observational only; they never affect correctness.
type counters struct {
	queries atomic.Uint64
	inserts atomic.Uint64
	updates atomic.Uint64
	deletes atomic.Uint64
}

// StatsSnapshot is an immutable view of the engine's counters and cache
// statistics, taken on demand.
type StatsSnapshot struct {
	// Records is the number of records currently in the table.
	Records int

	// Staged is the number of records waiting in the batch staging buffer.
	Staged int

	// Monotonic operation counters.
	Queries uint64
	Inserts uint64
	Updates uint64
	Deletes uint64

	// Per-tier cache counters.
	PointCache cache.Stats
	QueryCache cache.Stats
}
