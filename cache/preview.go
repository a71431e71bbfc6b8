package cache

import (
	"context"
	"time"
)

// DefaultPreviewTTL bounds staleness if an invalidation is ever missed.
const DefaultPreviewTTL = 5 * time.Minute

// previewKey is the single global cache key. The top-level list has no
// pagination or filter parameters, so one entry covers it.
const previewKey = "cache:comments:toplevel"

// PreviewCache stores the serialized top-level comment list. Read-through on
// the list endpoint, invalidated synchronously when a top-level comment is
// created or removed.
type PreviewCache interface {
	// Get returns the cached payload, or ok=false on a miss.
	Get(ctx context.Context) (payload []byte, ok bool)
	// Set stores the payload with the given TTL (DefaultPreviewTTL when <= 0).
	Set(ctx context.Context, payload []byte, ttl time.Duration)
	// Invalidate drops the cached entry.
	Invalidate(ctx context.Context)
}
