package engine

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// queryQuantum is the grid the query vector is rounded to before hashing, so
// that floating-point jitter between otherwise identical queries still lands
// on the same cache entry.
const queryQuantum = 1e-4

// ownerAllKey is the query-cache key for a full per-owner listing.
func ownerAllKey(owner string) string {
	return "owner_all_" + owner
}

// searchCacheKey derives a deterministic query-cache key from the filter, the
// quantized query vector and the result limit. Filter keys are folded in
// sorted order so map iteration order cannot influence the key.
func searchCacheKey(filter map[string]any, query []float32, limit int) string {
	d := xxhash.New()

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(fmt.Sprintf("%v", filter[k]))
		_, _ = d.WriteString(";")
	}

	var buf [4]byte
	for _, v := range query {
		q := int32(math.Round(float64(v) / queryQuantum))
		binary.LittleEndian.PutUint32(buf[:], uint32(q))
		_, _ = d.Write(buf[:])
	}

	binary.LittleEndian.PutUint32(buf[:], uint32(limit))
	_, _ = d.Write(buf[:])

	return "search_" + strconv.FormatUint(d.Sum64(), 16)
}
