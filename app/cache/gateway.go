package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// NoExpiry stores an entry until it is invalidated.
const NoExpiry time.Duration = 0

// Gateway is the read-through cache used by services. It never returns
// errors: the cache is advisory, so failures are logged and behave as a
// miss or a no-op.
type Gateway struct {
	store Store
}

func NewGateway(store Store) *Gateway {
	if store == nil {
		store = NopStore{}
	}
	return &Gateway{store: store}
}

// Get decodes the entry under key into dst and reports whether it was a hit.
// Entries that fail to decode are deleted and reported as a miss.
func (g *Gateway) Get(ctx context.Context, key string, dst any) bool {
	data, ok, err := g.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache read failed", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		slog.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		if err := g.store.Delete(ctx, key); err != nil {
			slog.Warn("Cache delete failed", "key", key, "error", err)
		}
		return false
	}

	return true
}

func (g *Gateway) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Warn("Cache encode failed", "key", key, "error", err)
		return
	}

	if err := g.store.Set(ctx, key, data, ttl); err != nil {
		slog.Warn("Cache write failed", "key", key, "error", err)
	}
}

func (g *Gateway) Delete(ctx context.Context, keys ...string) {
	if err := g.store.Delete(ctx, keys...); err != nil {
		slog.Warn("Cache delete failed", "keys", keys, "error", err)
	}
}

// Invalidate deletes every key matching pattern. Zero matches is a no-op.
func (g *Gateway) Invalidate(ctx context.Context, pattern string) {
	deleted, err := g.store.DeletePattern(ctx, pattern)
	if err != nil {
		slog.Warn("Cache invalidation failed", "pattern", pattern, "deleted", deleted, "error", err)
		return
	}
	slog.Debug("Cache invalidated", "pattern", pattern, "deleted", deleted)
}

func (g *Gateway) InvalidateFamilies(ctx context.Context, patterns ...string) {
	for _, pattern := range patterns {
		g.Invalidate(ctx, pattern)
	}
}

func (g *Gateway) Health(ctx context.Context) map[string]any {
	return g.store.Health(ctx)
}

func (g *Gateway) Close() error {
	return g.store.Close()
}
