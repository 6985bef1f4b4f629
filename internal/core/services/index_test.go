package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven/mocks"
)

type indexFixture struct {
	fs      *mocks.MockFileSystem
	store   *mocks.MockIndexStore
	cache   *mocks.MockIndexCache
	history *mocks.MockIndexHistoryStore
	lock    *mocks.MockDistributedLock
}

func newIndexFixture() (*indexFixture, *indexService) {
	f := &indexFixture{
		fs:      reactProject(),
		store:   mocks.NewMockIndexStore(),
		cache:   mocks.NewMockIndexCache(),
		history: mocks.NewMockIndexHistoryStore(),
		lock:    mocks.NewMockDistributedLock(),
	}
	svc := NewIndexService(IndexServiceConfig{
		Indexer: newTestIndexer(f.fs),
		Store:   f.store,
		Cache:   f.cache,
		History: f.history,
		Lock:    f.lock,
	}).(*indexService)
	return f, svc
}

func TestIndexService_Index(t *testing.T) {
	f, svc := newIndexFixture()
	ctx := context.Background()

	index, err := svc.Index(ctx, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.Metadata.ComponentsCount != 4 {
		t.Errorf("expected 4 components, got %d", index.Metadata.ComponentsCount)
	}
	if f.store.Saves() != 1 {
		t.Errorf("expected 1 save, got %d", f.store.Saves())
	}
	if !f.cache.Has("/project") {
		t.Error("expected index to be cached after indexing")
	}
	if f.lock.IsHeld("index:/project") {
		t.Error("expected lock to be released after indexing")
	}

	runs, err := svc.History(ctx, "/project", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].ID == "" {
		t.Error("expected run id to be set")
	}
	if runs[0].SkippedFiles != 1 {
		t.Errorf("expected 1 skipped file, got %d", runs[0].SkippedFiles)
	}
	if runs[0].PagesCount != 3 {
		t.Errorf("expected 3 pages, got %d", runs[0].PagesCount)
	}
}

func TestIndexService_IndexInProgress(t *testing.T) {
	f, svc := newIndexFixture()
	f.lock.SetLockHeld("index:/project", time.Minute)

	_, err := svc.Index(context.Background(), "/project")
	if !errors.Is(err, domain.ErrIndexingInProgress) {
		t.Errorf("expected ErrIndexingInProgress, got %v", err)
	}
	if f.store.Saves() != 0 {
		t.Error("expected no save while another run holds the lock")
	}
}

func TestIndexService_LockError(t *testing.T) {
	f, svc := newIndexFixture()
	f.lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		return false, errors.New("redis down")
	}

	_, err := svc.Index(context.Background(), "/project")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrIndexingInProgress) {
		t.Error("backend failure should not be reported as in progress")
	}
}

func TestIndexService_LockTTL(t *testing.T) {
	f, svc := newIndexFixture()
	var gotTTL time.Duration
	f.lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		gotTTL = ttl
		return true, nil
	}

	if _, err := svc.Index(context.Background(), "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotTTL != 5*time.Minute {
		t.Errorf("expected default ttl 5m, got %v", gotTTL)
	}
}

func TestIndexService_SaveError(t *testing.T) {
	f, svc := newIndexFixture()
	f.store.SaveErr = errors.New("disk full")

	_, err := svc.Index(context.Background(), "/project")
	if err == nil {
		t.Fatal("expected error")
	}
	if f.cache.Has("/project") {
		t.Error("failed save must not populate the cache")
	}
	if f.lock.IsHeld("index:/project") {
		t.Error("expected lock to be released on failure")
	}
}

func TestIndexService_HistoryErrorIgnored(t *testing.T) {
	f, svc := newIndexFixture()
	f.history.RecordErr = errors.New("postgres down")

	if _, err := svc.Index(context.Background(), "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIndexService_GetNotIndexed(t *testing.T) {
	_, svc := newIndexFixture()

	_, err := svc.Get(context.Background(), "/project")
	if !errors.Is(err, domain.ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}
}

func TestIndexService_GetCorruptArtifact(t *testing.T) {
	f, svc := newIndexFixture()
	f.store.SetRaw("/project", []byte("{not json"))

	_, err := svc.Get(context.Background(), "/project")
	if !errors.Is(err, domain.ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}
}

func TestIndexService_GetFromStoreThenCache(t *testing.T) {
	f, svc := newIndexFixture()
	ctx := context.Background()

	if _, err := svc.Index(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.cache.Invalidate(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	index, err := svc.Get(ctx, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.Component("src/components/Button") == nil {
		t.Error("expected loaded index to contain Button")
	}
	if f.cache.Hits() != 0 {
		t.Errorf("expected 0 cache hits, got %d", f.cache.Hits())
	}

	if _, err := svc.Get(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.Hits() != 1 {
		t.Errorf("expected 1 cache hit, got %d", f.cache.Hits())
	}
}

func TestIndexService_ReindexReplacesCache(t *testing.T) {
	f, svc := newIndexFixture()
	ctx := context.Background()

	if _, err := svc.Index(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f.fs.AddFile("src/components/Badge.tsx", "export const Badge = () => null", fixtureTime)
	if _, err := svc.Index(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	index, err := svc.Get(ctx, "/project")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if index.Component("src/components/Badge") == nil {
		t.Error("expected re-indexed component to be visible")
	}

	runs, _ := svc.History(ctx, "/project", 1)
	if len(runs) != 1 || runs[0].ComponentsCount != 5 {
		t.Errorf("expected newest run with 5 components, got %+v", runs)
	}
}

func TestIndexService_WithoutOptionalStores(t *testing.T) {
	store := mocks.NewMockIndexStore()
	svc := NewIndexService(IndexServiceConfig{
		Indexer: newTestIndexer(reactProject()),
		Store:   store,
		Lock:    mocks.NewMockDistributedLock(),
	})
	ctx := context.Background()

	if _, err := svc.Index(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs, err := svc.History(ctx, "/project", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected empty history, got %d", len(runs))
	}
}

func TestIndexService_EmptyPath(t *testing.T) {
	_, svc := newIndexFixture()

	if _, err := svc.Index(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Get(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIndexService_LockHeartbeat(t *testing.T) {
	f, _ := newIndexFixture()
	svc := NewIndexService(IndexServiceConfig{
		Indexer: newTestIndexer(f.fs),
		Store:   f.store,
		Lock:    f.lock,
		LockTTL: 20 * time.Millisecond,
	})
	f.store.SaveFn = func(*domain.ProjectIndex) { time.Sleep(100 * time.Millisecond) }

	if _, err := svc.Index(context.Background(), "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := f.lock.Extends("index:/project"); n < 2 {
		t.Errorf("expected the lock to be extended during a slow run, got %d extends", n)
	}
	if f.lock.IsHeld("index:/project") {
		t.Error("expected lock to be released after indexing")
	}
}

func TestIndexService_LockHeartbeatStopsWhenLost(t *testing.T) {
	f, _ := newIndexFixture()
	svc := NewIndexService(IndexServiceConfig{
		Indexer: newTestIndexer(f.fs),
		Store:   f.store,
		Lock:    f.lock,
		LockTTL: 20 * time.Millisecond,
	})
	f.lock.ExtendFn = func(name string, ttl time.Duration) error {
		return errors.New("lock lost")
	}
	f.store.SaveFn = func(*domain.ProjectIndex) { time.Sleep(100 * time.Millisecond) }

	if _, err := svc.Index(context.Background(), "/project"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := f.lock.Extends("index:/project"); n != 1 {
		t.Errorf("expected heartbeat to stop after the first failed extend, got %d", n)
	}
}
