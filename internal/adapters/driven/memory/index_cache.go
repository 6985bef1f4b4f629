// Package memory holds in-process adapters for single-instance deployments.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexCache = (*IndexCache)(nil)

const (
	DefaultCacheSize = 16
	DefaultCacheTTL  = 15 * time.Minute
)

// IndexCache keeps recently loaded indexes in a bounded LRU with expiry.
// Cached indexes are shared with callers and must be treated as read-only.
type IndexCache struct {
	lru *expirable.LRU[string, *domain.ProjectIndex]
}

// NewIndexCache creates a cache. Non-positive size or ttl use the defaults.
func NewIndexCache(size int, ttl time.Duration) *IndexCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &IndexCache{lru: expirable.NewLRU[string, *domain.ProjectIndex](size, nil, ttl)}
}

func (c *IndexCache) Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	index, ok := c.lru.Get(projectPath)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return index, nil
}

func (c *IndexCache) Set(ctx context.Context, index *domain.ProjectIndex) error {
	c.lru.Add(index.Metadata.ProjectPath, index)
	return nil
}

func (c *IndexCache) Invalidate(ctx context.Context, projectPath string) error {
	c.lru.Remove(projectPath)
	return nil
}

// Len returns the number of cached projects
func (c *IndexCache) Len() int {
	return c.lru.Len()
}
