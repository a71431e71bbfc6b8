package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPreviewCacheRoundTrip(t *testing.T) {
	c := NewMemoryPreviewCache()
	ctx := context.Background()

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	c.Set(ctx, []byte(`{"items":[]}`), time.Minute)
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, `{"items":[]}`, string(got))
}

func TestMemoryPreviewCacheInvalidate(t *testing.T) {
	c := NewMemoryPreviewCache()
	ctx := context.Background()

	c.Set(ctx, []byte("payload"), time.Minute)
	c.Invalidate(ctx)

	_, ok := c.Get(ctx)
	assert.False(t, ok)

	// Invalidating an empty cache is harmless.
	c.Invalidate(ctx)
}

func TestMemoryPreviewCacheExpiry(t *testing.T) {
	c := NewMemoryPreviewCache()
	ctx := context.Background()

	c.Set(ctx, []byte("payload"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get(ctx)
	assert.False(t, ok)
}

func TestMemoryPreviewCacheDefaultTTL(t *testing.T) {
	c := NewMemoryPreviewCache()
	ctx := context.Background()

	c.Set(ctx, []byte("payload"), 0)
	got, ok := c.Get(ctx)
	require.True(t, ok)
	assert.Equal(t, "payload", string(got))
}
