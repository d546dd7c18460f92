package engine

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// DimensionIndex maps an embedding length to the set of record ids with that
// length. Writers take the exclusive lock for add/remove; the index is only
// consulted for bookkeeping, never on the search hot path.
type DimensionIndex struct {
	mu   sync.RWMutex
	dims map[int]*roaring64.Bitmap
}

// NewDimensionIndex creates an empty dimension index.
func NewDimensionIndex() *DimensionIndex {
	return &DimensionIndex{
		dims: make(map[int]*roaring64.Bitmap),
	}
}

// Add registers id under dimension dim.
func (x *DimensionIndex) Add(dim int, id uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	bm, ok := x.dims[dim]
	if !ok {
		bm = roaring64.New()
		x.dims[dim] = bm
	}
	bm.Add(id)
}

// Remove unregisters id from dimension dim, dropping the dimension entry
// when it becomes empty.
func (x *DimensionIndex) Remove(dim int, id uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	bm, ok := x.dims[dim]
	if !ok {
		return
	}
	bm.Remove(id)
	if bm.IsEmpty() {
		delete(x.dims, dim)
	}
}

// Count returns the number of records with dimension dim.
func (x *DimensionIndex) Count(dim int) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bm, ok := x.dims[dim]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Dimensions returns the set of observed embedding lengths.
func (x *DimensionIndex) Dimensions() []int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]int, 0, len(x.dims))
	for dim := range x.dims {
		out = append(out, dim)
	}
	return out
}

// Clear removes all entries.
func (x *DimensionIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.dims = make(map[int]*roaring64.Bitmap)
}
