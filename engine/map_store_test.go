package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapStore(t *testing.T) {
	s := NewMapStore()
	assert.Equal(t, 0, s.Len())

	s.Set(1, newRecordForTest(1))
	s.Set(2, newRecordForTest(2))
	assert.Equal(t, 2, s.Len())

	r, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), r.id)

	_, ok = s.Get(99)
	assert.False(t, ok)

	require.NoError(t, s.Delete(1))
	assert.ErrorIs(t, s.Delete(1), ErrNotFound)
	assert.Equal(t, 1, s.Len())

	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestMapStoreCollect(t *testing.T) {
	s := NewMapStore()
	for i := uint64(1); i <= 5; i++ {
		s.Set(i, newRecordForTest(i))
	}

	recs := s.Collect([]uint64{2, 99, 4})
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(2), recs[0].id)
	assert.Equal(t, uint64(4), recs[1].id)
}

func TestMapStoreAll(t *testing.T) {
	s := NewMapStore()
	for i := uint64(1); i <= 3; i++ {
		s.Set(i, newRecordForTest(i))
	}

	all := s.All()
	require.Len(t, all, 3)

	seen := make(map[uint64]bool)
	for _, r := range all {
		seen[r.id] = true
	}
	assert.Len(t, seen, 3)
}
