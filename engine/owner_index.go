package engine

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// OwnerIndex maps an owner/user key to the set of record ids it owns.
// It is maintained under the engine's mutation lock, in the same logical
// operation as the record table; its own lock only guards readers against
// in-flight writers.
type OwnerIndex struct {
	mu     sync.RWMutex
	owners map[string]*roaring64.Bitmap
}

// NewOwnerIndex creates an empty owner index.
func NewOwnerIndex() *OwnerIndex {
	return &OwnerIndex{
		owners: make(map[string]*roaring64.Bitmap),
	}
}

// Add registers id under owner.
func (x *OwnerIndex) Add(owner string, id uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	bm, ok := x.owners[owner]
	if !ok {
		bm = roaring64.New()
		x.owners[owner] = bm
	}
	bm.Add(id)
}

// Remove unregisters id from owner, dropping the owner entry entirely when
// it becomes empty.
func (x *OwnerIndex) Remove(owner string, id uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	bm, ok := x.owners[owner]
	if !ok {
		return
	}
	bm.Remove(id)
	if bm.IsEmpty() {
		delete(x.owners, owner)
	}
}

// IDs returns the ids owned by owner in ascending order.
func (x *OwnerIndex) IDs(owner string) []uint64 {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bm, ok := x.owners[owner]
	if !ok {
		return nil
	}
	return bm.ToArray()
}

// Count returns the number of records owned by owner.
func (x *OwnerIndex) Count(owner string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bm, ok := x.owners[owner]
	if !ok {
		return 0
	}
	return int(bm.GetCardinality())
}

// Clear removes all entries.
func (x *OwnerIndex) Clear() {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.owners = make(map[string]*roaring64.Bitmap)
}
