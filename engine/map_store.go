package engine

import "sync"

// MapStore is the authoritative in-memory record table: an RWMutex-guarded
// map from record id to its stored record. Records themselves are immutable
// once installed (apart from the atomic last-access stamp), so pointers
// handed out under the read lock remain safe to read after it is released.
type MapStore struct {
	mu   sync.RWMutex
	data map[uint64]*record
}

// NewMapStore creates an empty record table.
func NewMapStore() *MapStore {
	return &MapStore{
		data: make(map[uint64]*record),
	}
}

// Get retrieves the record for id.
func (m *MapStore) Get(id uint64) (*record, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.data[id]
	return r, ok
}

// Set installs (or replaces) the record for id.
func (m *MapStore) Set(id uint64, r *record) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[id] = r
}

// Delete removes the record for id.
func (m *MapStore) Delete(id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[id]; !ok {
		return ErrNotFound
	}
	delete(m.data, id)
	return nil
}

// Len returns the number of records currently stored.
func (m *MapStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// Clear removes all records.
func (m *MapStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = make(map[uint64]*record)
}

// All returns the current set of records. The slice is a fresh copy; the
// pointed-to records are the live immutable store entries.
func (m *MapStore) All() []*record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*record, 0, len(m.data))
	for _, r := range m.data {
		out = append(out, r)
	}
	return out
}

// Collect returns the records for ids, skipping ids with no record.
func (m *MapStore) Collect(ids []uint64) []*record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*record, 0, len(ids))
	for _, id := range ids {
		if r, ok := m.data[id]; ok {
			out = append(out, r)
		}
	}
	return out
}
