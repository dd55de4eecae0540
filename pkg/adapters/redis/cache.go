package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.ArtifactCache using Redis strings.
type Cache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// NewCache creates a cache. A zero ttl keeps entries forever.
func NewCache(client *backend.Client, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = "flowbot:artifact:"
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the artifact stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read artifact: %w", err)
	}
	return data, true, nil
}

// Put stores data under key.
func (c *Cache) Put(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}
