package cache

import (
	"context"
	"time"
)

// Store is the key-value backend behind the Gateway.
type Store interface {
	// Get returns ok=false when the key does not exist.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePattern removes every key matching a glob pattern and returns
	// how many were removed.
	DeletePattern(ctx context.Context, pattern string) (int, error)
	Health(ctx context.Context) map[string]any
	Close() error
}

// NopStore is used when no cache server is configured. Every read misses.
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NopStore) Delete(context.Context, ...string) error { return nil }

func (NopStore) DeletePattern(context.Context, string) (int, error) { return 0, nil }

func (NopStore) Health(context.Context) map[string]any {
	return map[string]any{"status": "disabled", "type": "none"}
}

func (NopStore) Close() error { return nil }
