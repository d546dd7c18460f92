// Package queue provides the bounded priority queue used for top-K selection
// during similarity search.
package queue

import "container/heap"

// Compile time check to ensure TopK satisfies the heap interface.
var _ heap.Interface = (*TopK)(nil)

// Item is a scored candidate in the queue.
type Item struct {
	ID    uint64  // Record identifier.
	Score float32 // Similarity score (higher is better).
}

// TopK keeps the K best-scoring items seen so far.
//
// Internally it is a min-heap on (score, then recency): the root is the
// current worst candidate, so a new item only displaces it when strictly
// better. On equal scores the item with the larger ID sits closer to the
// root, which makes ties resolve in insertion order (IDs are assigned
// monotonically) and keeps results deterministic for identical inputs.
type TopK struct {
	k     int
	items []Item
}

// NewTopK creates a queue that retains at most k items.
func NewTopK(k int) *TopK {
	return &TopK{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// Len returns the number of elements in the queue.
func (q *TopK) Len() int { return len(q.items) }

// Less reports whether element i should sort before element j.
func (q *TopK) Less(i, j int) bool {
	if q.items[i].Score != q.items[j].Score {
		return q.items[i].Score < q.items[j].Score
	}
	return q.items[i].ID > q.items[j].ID
}

// Swap swaps the elements with indexes i and j.
func (q *TopK) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

// Push adds x to the queue. Use Offer instead; Push is part of heap.Interface.
func (q *TopK) Push(x any) {
	q.items = append(q.items, x.(Item))
}

// Pop removes the worst element. Part of heap.Interface.
func (q *TopK) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	q.items = old[:n-1]
	return item
}

// Offer considers item for inclusion, displacing the current worst when the
// queue is full and item ranks better.
func (q *TopK) Offer(item Item) {
	if q.k <= 0 {
		return
	}
	if len(q.items) < q.k {
		heap.Push(q, item)
		return
	}

	worst := q.items[0]
	if item.Score > worst.Score || (item.Score == worst.Score && item.ID < worst.ID) {
		q.items[0] = item
		heap.Fix(q, 0)
	}
}

// Drain removes and returns all items ordered best-first
// (descending score, ascending ID on ties). The queue is empty afterwards.
func (q *TopK) Drain() []Item {
	out := make([]Item, len(q.items))
	for i := len(q.items) - 1; i >= 0; i-- {
		out[i] = heap.Pop(q).(Item)
	}
	return out
}
