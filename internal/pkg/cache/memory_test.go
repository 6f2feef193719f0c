package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache("checkout").(*memoryCache)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	key := c.GenerateKey("session", "idem-1")
	assert.Equal(t, "checkout:session:idem-1", key)

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.Set(ctx, key, `{"id":"s1"}`, time.Minute))
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"s1"}`, got)

	now = now.Add(time.Minute)
	got, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, got, "entry expires at its ttl")

	require.NoError(t, c.Set(ctx, "forever", 42, 0))
	now = now.Add(24 * time.Hour)
	got, err = c.Get(ctx, "forever")
	require.NoError(t, err)
	assert.Equal(t, "42", got)
}
