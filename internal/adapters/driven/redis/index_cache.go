package redis

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexCache = (*IndexCache)(nil)

const (
	// Key prefix for cached project indexes
	indexPrefix = "sercha:index:"

	// DefaultIndexTTL bounds how long a stale index can be served by another instance
	DefaultIndexTTL = 15 * time.Minute
)

// IndexCache implements driven.IndexCache using Redis.
// Loaded indexes are shared between instances so only one of them reads the artifact.
type IndexCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIndexCache creates a new Redis-backed IndexCache. A zero ttl uses DefaultIndexTTL.
func NewIndexCache(client *redis.Client, ttl time.Duration) *IndexCache {
	if ttl <= 0 {
		ttl = DefaultIndexTTL
	}
	return &IndexCache{client: client, ttl: ttl}
}

// indexKey hashes the project path so arbitrary paths make bounded keys
func indexKey(projectPath string) string {
	sum := blake2b.Sum256([]byte(projectPath))
	return indexPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached index or domain.ErrNotFound
func (c *IndexCache) Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	data, err := c.client.Get(ctx, indexKey(projectPath)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}

	var index domain.ProjectIndex
	if err := json.Unmarshal(data, &index); err != nil {
		// A corrupt entry is treated as a miss and dropped
		_ = c.client.Del(ctx, indexKey(projectPath)).Err()
		return nil, domain.ErrNotFound
	}
	return &index, nil
}

// Set stores an index under its metadata project path
func (c *IndexCache) Set(ctx context.Context, index *domain.ProjectIndex) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	if err := c.client.Set(ctx, indexKey(index.Metadata.ProjectPath), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache index: %w", err)
	}
	return nil
}

// Invalidate drops the cached index of a project. Missing entries are not an error.
func (c *IndexCache) Invalidate(ctx context.Context, projectPath string) error {
	if err := c.client.Del(ctx, indexKey(projectPath)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate index: %w", err)
	}
	return nil
}
