package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/Team-7-graduated-project/HelloB-sub001/internal/infrastructure/cache/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrMiss)

	require.NoError(t, c.Set(ctx, "a", "1", time.Minute))
	v, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	t.Run("expiry", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, err := c.Get(ctx, "a")
		assert.ErrorIs(t, err, port.ErrMiss)
	})

	t.Run("eviction", func(t *testing.T) {
		require.NoError(t, c.Set(ctx, "x", "1", 0))
		require.NoError(t, c.Set(ctx, "y", "2", 0))
		require.NoError(t, c.Set(ctx, "z", "3", 0))
		_, err := c.Get(ctx, "x")
		assert.ErrorIs(t, err, port.ErrMiss)
		v, err := c.Get(ctx, "z")
		require.NoError(t, err)
		assert.Equal(t, "3", v)
	})

	t.Run("delete", func(t *testing.T) {
		n, err := c.Del(ctx, "z", "nope")
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Close())
}
