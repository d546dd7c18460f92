package engine

import (
	"maps"
	"slices"
	"sync/atomic"
	"time"
)

// VectorRecord is the caller-facing snapshot of a stored record.
// Embedding and Properties are copies; mutating them does not affect the store.
type VectorRecord struct {
	ID             uint64
	Embedding      []float32
	Properties     map[string]any
	CreatedTime    time.Time
	LastAccessTime time.Time
}

// Clone returns a deep copy of the snapshot.
func (r *VectorRecord) Clone() *VectorRecord {
	if r == nil {
		return nil
	}
	return &VectorRecord{
		ID:             r.ID,
		Embedding:      slices.Clone(r.Embedding),
		Properties:     maps.Clone(r.Properties),
		CreatedTime:    r.CreatedTime,
		LastAccessTime: r.LastAccessTime,
	}
}

// record is the stored representation. embedding and properties are immutable
// after construction; an update installs a whole new record. lastAccess is
// atomic so reads can touch it without taking the table's write lock.
type record struct {
	id          uint64
	embedding   []float32
	properties  map[string]any
	createdTime time.Time
	lastAccess  atomic.Int64 // unix nanos
}

// newRecord builds a record from caller-owned inputs, taking defensive copies.
func newRecord(id uint64, embedding []float32, properties map[string]any, now time.Time) *record {
	r := &record{
		id:          id,
		embedding:   slices.Clone(embedding),
		properties:  maps.Clone(properties),
		createdTime: now,
	}
	if r.properties == nil {
		r.properties = map[string]any{}
	}
	r.lastAccess.Store(now.UnixNano())
	return r
}

func (r *record) touch(t time.Time) {
	r.lastAccess.Store(t.UnixNano())
}

// snapshot materializes a caller-facing copy.
func (r *record) snapshot() *VectorRecord {
	return &VectorRecord{
		ID:             r.id,
		Embedding:      slices.Clone(r.embedding),
		Properties:     maps.Clone(r.properties),
		CreatedTime:    r.createdTime,
		LastAccessTime: time.Unix(0, r.lastAccess.Load()),
	}
}

// owner extracts the owner key value, if present and a string.
func (r *record) owner(ownerKey string) (string, bool) {
	v, ok := r.properties[ownerKey]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
