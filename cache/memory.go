package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

// MemoryPreviewCache is an in-process PreviewCache for tests and deployments
// without Redis. Backed by a small LRU so it stays bounded even if more keys
// are ever added.
type MemoryPreviewCache struct {
	items *lru.Cache[string, memoryItem]
}

func NewMemoryPreviewCache() *MemoryPreviewCache {
	// Capacity 8 is plenty: today there is exactly one key.
	items, err := lru.New[string, memoryItem](8)
	if err != nil {
		panic(err)
	}
	return &MemoryPreviewCache{items: items}
}

func (c *MemoryPreviewCache) Get(_ context.Context) ([]byte, bool) {
	item, ok := c.items.Get(previewKey)
	if !ok {
		return nil, false
	}
	if time.Now().After(item.expiresAt) {
		c.items.Remove(previewKey)
		return nil, false
	}
	return item.payload, true
}

func (c *MemoryPreviewCache) Set(_ context.Context, payload []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	c.items.Add(previewKey, memoryItem{payload: payload, expiresAt: time.Now().Add(ttl)})
}

func (c *MemoryPreviewCache) Invalidate(_ context.Context) {
	c.items.Remove(previewKey)
}
