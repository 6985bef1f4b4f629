package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
)

// Ensure indexService implements IndexService
var _ driving.IndexService = (*indexService)(nil)

// IndexServiceConfig holds dependencies for the index service.
// Cache and History are optional.
type IndexServiceConfig struct {
	Indexer *Indexer
	Store   driven.IndexStore
	Cache   driven.IndexCache
	History driven.IndexHistoryStore
	Lock    driven.DistributedLock
	LockTTL time.Duration
	Logger  *slog.Logger
}

// indexService implements the IndexService interface
type indexService struct {
	indexer *Indexer
	store   driven.IndexStore
	cache   driven.IndexCache
	history driven.IndexHistoryStore
	lock    driven.DistributedLock
	lockTTL time.Duration
	logger  *slog.Logger
}

// NewIndexService creates a new IndexService
func NewIndexService(cfg IndexServiceConfig) driving.IndexService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &indexService{
		indexer: cfg.Indexer,
		store:   cfg.Store,
		cache:   cfg.Cache,
		history: cfg.History,
		lock:    cfg.Lock,
		lockTTL: ttl,
		logger:  logger,
	}
}

// Index rebuilds the artifact for a project root.
// Runs against the same root are serialised through the distributed lock.
func (s *indexService) Index(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	root, err := cleanRoot(projectPath)
	if err != nil {
		return nil, err
	}

	lockName := "index:" + root
	acquired, err := s.lock.Acquire(ctx, lockName, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !acquired {
		return nil, domain.ErrIndexingInProgress
	}
	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		s.keepAlive(ctx, lockName, stop)
	}()
	defer func() {
		close(stop)
		<-stopped
		if err := s.lock.Release(context.WithoutCancel(ctx), lockName); err != nil {
			s.logger.Warn("failed to release index lock", "project", root, "error", err)
		}
	}()

	index, stats, err := s.indexer.Build(ctx, root)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, index); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, root); err != nil {
			s.logger.Warn("failed to invalidate index cache", "project", root, "error", err)
		}
		if err := s.cache.Set(ctx, index); err != nil {
			s.logger.Warn("failed to cache index", "project", root, "error", err)
		}
	}

	if s.history != nil {
		run := &domain.IndexRun{
			ID:              uuid.NewString(),
			ProjectPath:     root,
			Framework:       index.Metadata.Framework,
			ComponentsCount: index.Metadata.ComponentsCount,
			PagesCount:      index.Metadata.PagesCount,
			SkippedFiles:    stats.Skipped,
			Took:            stats.Took,
			IndexedAt:       index.Metadata.LastIndexed,
		}
		if err := s.history.Record(ctx, run, index); err != nil {
			s.logger.Warn("failed to record index run", "project", root, "error", err)
		}
	}

	return index, nil
}

// keepAlive extends the index lock every half TTL until stop is closed.
// A failed extend means the lock was lost and ends the heartbeat.
func (s *indexService) keepAlive(ctx context.Context, lockName string, stop <-chan struct{}) {
	ticker := time.NewTicker(s.lockTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.lock.Extend(ctx, lockName, s.lockTTL); err != nil {
				s.logger.Debug("index lock heartbeat stopped", "lock", lockName, "error", err)
				return
			}
		}
	}
}

// Get returns the loaded index, preferring the cache
func (s *indexService) Get(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	root, err := cleanRoot(projectPath)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		index, err := s.cache.Get(ctx, root)
		if err == nil {
			return index, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("index cache read failed", "project", root, "error", err)
		}
	}

	index, err := s.store.Load(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	if index == nil {
		return nil, domain.ErrNotIndexed
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, index); err != nil {
			s.logger.Warn("failed to cache index", "project", root, "error", err)
		}
	}
	return index, nil
}

// History lists recent runs. Without a history store the list is empty.
func (s *indexService) History(ctx context.Context, projectPath string, limit int) ([]*domain.IndexRun, error) {
	root, err := cleanRoot(projectPath)
	if err != nil {
		return nil, err
	}
	if s.history == nil {
		return []*domain.IndexRun{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.history.List(ctx, root, limit)
}

// cleanRoot turns a project path into the absolute key used for locks, caches and history
func cleanRoot(projectPath string) (string, error) {
	if projectPath == "" {
		return "", fmt.Errorf("%w: project path is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(projectPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return root, nil
}
