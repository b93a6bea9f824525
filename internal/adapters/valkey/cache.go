package valkey

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"github.com/adityarao/campus-transit/internal/pkg/metrics"
)

// Cache implements ports.CollectionCache using Valkey (Redis-compatible).
// Snapshots have no TTL: the cache is a durable local mirror, overwritten
// on every change and only ever invalidated by an explicit delete.
type Cache struct {
	client valkey.Client
}

// New creates a new Valkey cache client.
func New(addr string) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("valkey connect: %w", err)
	}
	return &Cache{client: client}, nil
}

// Get retrieves a snapshot by key. A missing key returns nil bytes and no
// error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Do(ctx, c.client.B().Get().Key(key).Build())
	if err := cmd.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			metrics.CacheMisses.WithLabelValues("get").Inc()
			return nil, nil
		}
		return nil, err
	}
	metrics.CacheHits.WithLabelValues("get").Inc()
	return cmd.AsBytes()
}

// Set stores a snapshot.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	cmd := c.client.Do(ctx, c.client.B().Set().Key(key).Value(string(value)).Build())
	return cmd.Error()
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	cmd := c.client.Do(ctx, c.client.B().Del().Key(key).Build())
	return cmd.Error()
}

// Close releases the client.
func (c *Cache) Close() {
	c.client.Close()
}
