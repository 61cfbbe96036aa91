// Package cache provides a tiny Redis client wrapper for processed image caching
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// Entry is a cached pipeline result.
type Entry struct {
	PNG         []byte
	InferenceMs int64
	Device      string
	Processor   string
	Path        string
}

// Cache wraps a Redis client for processed image storage
type Cache struct {
	client *redis.Client
}

// New creates a new Cache instance connected to the specified Redis address
// If addr is empty, defaults to localhost:6379
func New(addr string) (*Cache, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password by default
		DB:       0,  // Default DB
	})

	// Test connection
	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	return &Cache{client: client}, nil
}

// Key derives the cache key for an encoded input image processed by a
// pipeline with the given identity (variant fingerprint and resize filter).
func Key(identity string, input []byte) string {
	return fmt.Sprintf("enhance:%016x:%016x:%d", xxhash.Sum64String(identity), xxhash.Sum64(input), len(input))
}

// Set stores a result under key with the specified TTL. A zero TTL keeps
// the entry until evicted.
func (c *Cache) Set(ctx context.Context, key string, e Entry, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("cache client is nil")
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"png":          e.PNG,
			"inference_ms": e.InferenceMs,
			"device":       e.Device,
			"processor":    e.Processor,
			"path":         e.Path,
		})
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

// Get retrieves a result. A missing key returns (nil, nil).
func (c *Cache) Get(ctx context.Context, key string) (*Entry, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("cache client is nil")
	}

	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return decodeEntry(fields)
}

// decodeEntry rebuilds an Entry from a Redis hash; an empty hash is a miss.
func decodeEntry(fields map[string]string) (*Entry, error) {
	if len(fields) == 0 || fields["png"] == "" {
		return nil, nil
	}

	ms, err := strconv.ParseInt(fields["inference_ms"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("corrupt cache entry: inference_ms: %w", err)
	}

	return &Entry{
		PNG:         []byte(fields["png"]),
		InferenceMs: ms,
		Device:      fields["device"],
		Processor:   fields["processor"],
		Path:        fields["path"],
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	if c != nil && c.client != nil {
		return c.client.Close()
	}
	return nil
}
