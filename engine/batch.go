package engine

import "sync"

// StagingBuffer holds records submitted while batch mode is active. Staged
// records are invisible to reads until CommitBatch flushes them through the
// normal mutation path. The buffer is not durable: records staged but never
// committed are simply lost.
type StagingBuffer struct {
	mu    sync.Mutex
	items map[uint64]*record
	order []uint64
}

// NewStagingBuffer creates an empty staging buffer.
func NewStagingBuffer() *StagingBuffer {
	return &StagingBuffer{
		items: make(map[uint64]*record),
	}
}

// Add stages a record. Staging order is preserved for commit.
func (b *StagingBuffer) Add(r *record) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.items[r.id]; !ok {
		b.order = append(b.order, r.id)
	}
	b.items[r.id] = r
}

// Len returns the number of staged records.
func (b *StagingBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.items)
}

// Drain removes and returns all staged records in staging order.
func (b *StagingBuffer) Drain() []*record {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*record, 0, len(b.items))
	for _, id := range b.order {
		if r, ok := b.items[id]; ok {
			out = append(out, r)
		}
	}
	b.items = make(map[uint64]*record)
	b.order = nil
	return out
}

// Clear drops all staged records.
func (b *StagingBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items = make(map[uint64]*record)
	b.order = nil
}
