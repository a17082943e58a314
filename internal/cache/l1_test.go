package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestL1_SetGetMiss(t *testing.T) {
	c := NewL1(10)
	_, ok := c.Get("record:water")
	require.False(t, ok)

	c.Set("record:water", "value", 0)
	v, ok := c.Get("record:water")
	require.True(t, ok)
	require.Equal(t, "value", v)

	stats := c.SnapshotStats()
	require.Equal(t, int64(1), stats["record"].Hits)
	require.Equal(t, int64(1), stats["record"].Misses)
}

func TestL1_TTLExpiry(t *testing.T) {
	c := NewL1(10)
	c.Set("record:water", "value", 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	_, ok := c.Get("record:water")
	require.False(t, ok)
}

func TestL1_LRUEvictionAtCapacity(t *testing.T) {
	c := NewL1(2)
	c.Set("record:a", "a", 0)
	c.Set("record:b", "b", 0)
	c.Set("record:c", "c", 0) // evicts a (least recently used)

	_, ok := c.Get("record:a")
	require.False(t, ok)
	_, ok = c.Get("record:b")
	require.True(t, ok)
	_, ok = c.Get("record:c")
	require.True(t, ok)

	stats := c.SnapshotStats()
	require.Equal(t, int64(1), stats["record"].Evictions)
}

func TestL1_GetRefreshesLRUOrder(t *testing.T) {
	c := NewL1(2)
	c.Set("record:a", "a", 0)
	c.Set("record:b", "b", 0)
	_, _ = c.Get("record:a") // a is now most-recently-used
	c.Set("record:c", "c", 0) // evicts b, not a

	_, ok := c.Get("record:a")
	require.True(t, ok)
	_, ok = c.Get("record:b")
	require.False(t, ok)
}

func TestL1_DeleteRemovesEntry(t *testing.T) {
	c := NewL1(10)
	c.Set("record:water", "value", 0)
	c.Delete("record:water")
	_, ok := c.Get("record:water")
	require.False(t, ok)
}
