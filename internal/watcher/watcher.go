// Package watcher re-indexes a project when its source tree changes.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driving"
)

// Config configures a Watcher
type Config struct {
	ProjectPath string
	Dirs        []string // watched recursively, relative to ProjectPath
	Extensions  []string // changes to other files are ignored
	SkipDirs    []string // never watched; hidden directories are always skipped
	Manifest    string   // root file that also triggers a re-index, e.g. package.json
	Debounce    time.Duration
	Indexes     driving.IndexService
	Logger      *slog.Logger
}

// Watcher runs one re-index per burst of relevant changes
type Watcher struct {
	root       string
	dirs       []string
	extensions map[string]bool
	skipDirs   map[string]bool
	manifest   string
	debounce   time.Duration
	indexes    driving.IndexService
	logger     *slog.Logger
	fsw        *fsnotify.Watcher
}

// New creates a watcher. Nothing is watched until Run.
func New(cfg Config) (*Watcher, error) {
	if cfg.Indexes == nil {
		return nil, fmt.Errorf("%w: index service is required", domain.ErrInvalidInput)
	}
	root, err := filepath.Abs(cfg.ProjectPath)
	if err != nil || cfg.ProjectPath == "" {
		return nil, fmt.Errorf("%w: invalid project path %q", domain.ErrInvalidInput, cfg.ProjectPath)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:       root,
		extensions: make(map[string]bool, len(cfg.Extensions)),
		skipDirs:   make(map[string]bool, len(cfg.SkipDirs)),
		manifest:   cfg.Manifest,
		debounce:   cfg.Debounce,
		indexes:    cfg.Indexes,
		logger:     cfg.Logger,
		fsw:        fsw,
	}
	for _, d := range cfg.Dirs {
		w.dirs = append(w.dirs, filepath.ToSlash(filepath.Clean(d)))
	}
	for _, ext := range cfg.Extensions {
		w.extensions[ext] = true
	}
	for _, d := range cfg.SkipDirs {
		w.skipDirs[d] = true
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w, nil
}

// Run watches until ctx is done. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	// The root itself is watched flat so missing dirs are picked up when created
	if err := w.fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	for _, d := range w.dirs {
		w.addRecursive(filepath.Join(w.root, filepath.FromSlash(d)))
	}
	w.logger.Info("watching project", "path", w.root, "dirs", w.dirs, "debounce", w.debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
		} else {
			timer.Reset(w.debounce)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(event) {
				schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)

		case <-fire:
			fire = nil
			if w.reindex(ctx) {
				schedule()
			}
		}
	}
}

// handle reports whether the event should trigger a re-index
func (w *Watcher) handle(event fsnotify.Event) bool {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) && w.tracked(rel) && !w.skipped(rel) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addRecursive(event.Name)
			return true
		}
	}

	if rel == w.manifest {
		return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
	}
	if !w.tracked(rel) || w.skipped(rel) || !w.extensions[filepath.Ext(rel)] {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// reindex runs one index build and reports whether it should be retried
func (w *Watcher) reindex(ctx context.Context) bool {
	start := time.Now()
	index, err := w.indexes.Index(ctx, w.root)
	switch {
	case err == nil:
		w.logger.Info("re-indexed project",
			"path", w.root,
			"components", index.Metadata.ComponentsCount,
			"pages", index.Metadata.PagesCount,
			"took", time.Since(start))
	case errors.Is(err, domain.ErrIndexingInProgress):
		w.logger.Info("indexing in progress elsewhere, retrying", "path", w.root)
		return true
	case ctx.Err() != nil:
	default:
		w.logger.Error("re-index failed", "path", w.root, "error", err)
	}
	return false
}

// tracked reports whether rel lies inside one of the watched dirs
func (w *Watcher) tracked(rel string) bool {
	for _, d := range w.dirs {
		if d == "." || rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}

// skipped reports whether any path segment is hidden or in the skip list
func (w *Watcher) skipped(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if w.skipDirs[seg] || (strings.HasPrefix(seg, ".") && seg != "." && seg != "..") {
			return true
		}
	}
	return false
}

func (w *Watcher) addRecursive(dir string) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && (w.skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
	if err != nil {
		w.logger.Warn("failed to walk directory", "path", dir, "error", err)
	}
}
