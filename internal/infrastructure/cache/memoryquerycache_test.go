package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueryCache_IDsRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	_, ok := c.GetIDs(ctx, GroupKeys, 0, "fp1")
	assert.False(t, ok)

	c.SetIDs(ctx, GroupKeys, 0, "fp1", []uint{3, 1, 2})

	got, ok := c.GetIDs(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, []uint{3, 1, 2}, got)

	// the cached slice is a copy
	got[0] = 99
	again, ok := c.GetIDs(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, []uint{3, 1, 2}, again)
}

func TestMemoryQueryCache_CountRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	_, ok := c.GetCount(ctx, GroupKeys, 0, "fp1")
	assert.False(t, ok)

	c.SetCount(ctx, GroupKeys, 0, "fp1", 42)

	got, ok := c.GetCount(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, int64(42), got)
}

func TestMemoryQueryCache_BumpInvalidates(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	stamp, err := c.Stamp(ctx, GroupKeys)
	require.NoError(t, err)
	c.SetIDs(ctx, GroupKeys, stamp, "fp1", []uint{1, 2})

	require.NoError(t, c.Bump(ctx, GroupKeys))

	newStamp, err := c.Stamp(ctx, GroupKeys)
	require.NoError(t, err)
	assert.Equal(t, stamp+1, newStamp)

	_, ok := c.GetIDs(ctx, GroupKeys, newStamp, "fp1")
	assert.False(t, ok, "entries under the old stamp are unreachable")
}

func TestMemoryQueryCache_GroupsAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	c.SetCount(ctx, GroupKeys, 0, "fp1", 10)
	require.NoError(t, c.Bump(ctx, GroupActivations))

	got, ok := c.GetCount(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, int64(10), got)
}

func TestMemoryQueryCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return current }

	c.SetIDs(ctx, GroupKeys, 0, "fp1", []uint{1})

	current = current.Add(30 * time.Second)
	_, ok := c.GetIDs(ctx, GroupKeys, 0, "fp1")
	assert.True(t, ok)

	current = current.Add(time.Minute)
	_, ok = c.GetIDs(ctx, GroupKeys, 0, "fp1")
	assert.False(t, ok)
}

func TestMemoryQueryCache_KindsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryQueryCache(time.Minute)

	c.SetIDs(ctx, GroupKeys, 0, "fp1", []uint{1, 2})
	c.SetCount(ctx, GroupKeys, 0, "fp1", 2)

	ids, ok := c.GetIDs(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, []uint{1, 2}, ids)

	count, ok := c.GetCount(ctx, GroupKeys, 0, "fp1")
	require.True(t, ok)
	assert.Equal(t, int64(2), count)
}
