package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/carrier-sync/internal/domain/carrier"
)

func TestInMemoryCountryCache_GetSet(t *testing.T) {
	c := NewInMemoryCountryCache(time.Hour)
	ctx := context.Background()
	cz := []carrier.Summary{{ID: 1, Name: "One"}, {ID: 3, Name: "Three"}}

	t.Run("miss on empty cache", func(t *testing.T) {
		got, ok, err := c.Get(ctx, 0, "cz")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("hit after set", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, 0, "cz", cz))

		got, ok, err := c.Get(ctx, 0, "cz")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, cz, got)
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		got, _, _ := c.Get(ctx, 0, "cz")
		got[0].Name = "mutated"

		again, _, _ := c.Get(ctx, 0, "cz")
		assert.Equal(t, "One", again[0].Name)
	})

	t.Run("empty list is a hit", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, 0, "hu", nil))

		got, ok, err := c.Get(ctx, 0, "hu")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Empty(t, got)
	})

	t.Run("other generation misses", func(t *testing.T) {
		_, ok, err := c.Get(ctx, 1, "cz")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestInMemoryCountryCache_Invalidate(t *testing.T) {
	c := NewInMemoryCountryCache(time.Hour)
	ctx := context.Background()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, gen, "cz", []carrier.Summary{{ID: 1, Name: "One"}}))
	assert.Equal(t, 1, c.Size())

	require.NoError(t, c.Invalidate(ctx))

	newGen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, gen+1, newGen)
	assert.Equal(t, 0, c.Size())

	t.Run("fill from a retired generation is dropped", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, gen, "cz", []carrier.Summary{{ID: 2, Name: "Stale"}}))
		_, ok, _ := c.Get(ctx, newGen, "cz")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Size())
	})
}

func TestInMemoryCountryCache_Expiry(t *testing.T) {
	c := NewInMemoryCountryCache(time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, 0, "cz", []carrier.Summary{{ID: 1, Name: "One"}}))

	now = now.Add(59 * time.Second)
	_, ok, _ := c.Get(ctx, 0, "cz")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Get(ctx, 0, "cz")
	assert.False(t, ok)
}

func TestInMemoryCountryCache_DefaultTTL(t *testing.T) {
	c := NewInMemoryCountryCache(0)
	assert.Equal(t, DefaultCountryTTL, c.ttl)
}

func TestInMemoryCountryCache_Concurrent(t *testing.T) {
	c := NewInMemoryCountryCache(time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gen, _ := c.Generation(ctx)
			_ = c.Set(ctx, gen, "cz", []carrier.Summary{{ID: int64(i), Name: "x"}})
			_, _, _ = c.Get(ctx, gen, "cz")
			if i%10 == 0 {
				_ = c.Invalidate(ctx)
			}
		}(i)
	}
	wg.Wait()

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), gen)
}
