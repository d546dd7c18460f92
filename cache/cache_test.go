package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10, time.Minute)

	_, ok := c.Get("a")
	require.False(t, ok)

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// Overwrite.
	c.Set("a", 2)
	v, ok = c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	c := New[string, int](10, 20*time.Millisecond)

	c.Set("a", 1)
	_, ok := c.Get("a")
	require.True(t, ok)

	time.Sleep(40 * time.Millisecond)

	_, ok = c.Get("a")
	assert.False(t, ok, "entry should have expired")
}

func TestCacheLRUEviction(t *testing.T) {
	c := New[int, int](3, time.Minute)

	c.Set(1, 1)
	c.Set(2, 2)
	c.Set(3, 3)

	// Touch 1 so 2 becomes the eviction victim.
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Set(4, 4)

	_, ok = c.Get(2)
	assert.False(t, ok, "least recently used entry should be evicted")
	for _, k := range []int{1, 3, 4} {
		_, ok := c.Get(k)
		assert.True(t, ok, "key %d should survive", k)
	}
}

func TestCacheRemove(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1)
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCachePurge(t *testing.T) {
	c := New[string, int](10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Purge()

	assert.Equal(t, 0, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	c := New[string, int](0, time.Minute)

	c.Set("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheNoExpiry(t *testing.T) {
	c := New[string, int](10, 0)

	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	_, _ = c.Get("a")     // hit
	_, _ = c.Get("miss")  // miss
	c.Set("c", 3)         // evicts b
	_, _ = c.Get("b")     // miss

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Entries)
}

func TestCacheJanitor(t *testing.T) {
	c := New[string, int](10, 10*time.Millisecond)
	c.StartJanitor(5 * time.Millisecond)
	defer c.Close()

	c.Set("a", 1)
	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond, "janitor should collect expired entry")
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New[string, int](10, time.Minute)
	c.StartJanitor(time.Millisecond)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[string, int](128, time.Minute)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (w*200+i)%64)
				c.Set(key, i)
				c.Get(key)
				if i%10 == 0 {
					c.Remove(key)
				}
			}
		}(w)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 128)
}
