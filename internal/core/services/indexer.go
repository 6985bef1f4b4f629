package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// IndexerOptions controls file discovery.
type IndexerOptions struct {
	SourceDir   string   // walked for components, relative to the project root
	PagesDirs   []string // walked for pages, relative to the project root
	Extensions  []string // allowed file extensions with leading dot
	SkipDirs    []string // directory names never entered (hidden directories are always skipped)
	ManifestRel string   // manifest read for framework detection
	Concurrency int      // parallel file extraction workers
}

// DefaultIndexerOptions returns the options used when none are configured
func DefaultIndexerOptions() IndexerOptions {
	return IndexerOptions{
		SourceDir:   "src",
		PagesDirs:   []string{"src/pages", "pages"},
		Extensions:  []string{".js", ".jsx", ".ts", ".tsx", ".vue"},
		SkipDirs:    []string{"node_modules"},
		ManifestRel: "package.json",
		Concurrency: 4,
	}
}

// IndexerConfig holds dependencies for Indexer.
type IndexerConfig struct {
	FileSystem driven.FileSystem
	Extractors driven.ExtractorRegistry
	Options    IndexerOptions
	Logger     *slog.Logger
	Now        func() time.Time
}

// Indexer walks a project tree and builds a ProjectIndex.
// File-scoped failures are logged and skipped; they never abort a build.
type Indexer struct {
	fs         driven.FileSystem
	extractors driven.ExtractorRegistry
	opts       IndexerOptions
	logger     *slog.Logger
	now        func() time.Time
}

// BuildStats summarises one build
type BuildStats struct {
	Skipped int
	Took    time.Duration
}

// NewIndexer creates a new indexer.
func NewIndexer(cfg IndexerConfig) *Indexer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	opts := cfg.Options
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Indexer{
		fs:         cfg.FileSystem,
		extractors: cfg.Extractors,
		opts:       opts,
		logger:     logger,
		now:        now,
	}
}

// Options returns the discovery options in use
func (ix *Indexer) Options() IndexerOptions {
	return ix.opts
}

// Build indexes the project rooted at projectPath.
// The build never fails on file-level problems; it only returns ctx errors.
func (ix *Indexer) Build(ctx context.Context, projectPath string) (*domain.ProjectIndex, BuildStats, error) {
	start := ix.now()
	var stats BuildStats

	framework := ix.detectFramework(projectPath)

	paths := ix.walk(filepath.Join(projectPath, filepath.FromSlash(ix.opts.SourceDir)), ix.isComponentFile)
	components, skipped, err := ix.extractComponents(ctx, projectPath, paths)
	if err != nil {
		return nil, stats, err
	}
	stats.Skipped += skipped

	pages, skipped := ix.discoverPages(projectPath)
	stats.Skipped += skipped

	linkUsage(components, pages)

	index := domain.NewProjectIndex(projectPath, framework, components, pages, ix.now().UTC())
	stats.Took = ix.now().Sub(start)

	ix.logger.Info("project indexed",
		"project", projectPath,
		"framework", framework,
		"components", index.Metadata.ComponentsCount,
		"pages", index.Metadata.PagesCount,
		"skipped", stats.Skipped,
		"took_ms", stats.Took.Milliseconds(),
	)
	return index, stats, nil
}

type manifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// detectFramework reads the manifest dependencies. Any failure yields unknown.
func (ix *Indexer) detectFramework(projectPath string) domain.Framework {
	path := filepath.Join(projectPath, filepath.FromSlash(ix.opts.ManifestRel))
	data, err := ix.fs.ReadFile(path)
	if err != nil {
		ix.logger.Debug("manifest not readable", "path", path, "error", err)
		return domain.FrameworkUnknown
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		ix.logger.Warn("manifest not parsable", "path", path, "error", err)
		return domain.FrameworkUnknown
	}

	has := func(dep string) bool {
		_, inDeps := m.Dependencies[dep]
		_, inDev := m.DevDependencies[dep]
		return inDeps || inDev
	}
	switch {
	case has("react"):
		return domain.FrameworkReact
	case has("vue"):
		return domain.FrameworkVue
	case has("@angular/core"):
		return domain.FrameworkAngular
	}
	return domain.FrameworkUnknown
}

// walk returns qualifying files under dir, depth first in name order.
// An unreadable directory contributes nothing.
func (ix *Indexer) walk(dir string, qualifies func(name string) bool) []string {
	entries, err := ix.fs.ReadDir(dir)
	if err != nil {
		ix.logger.Debug("skipping unreadable directory", "path", dir, "error", err)
		return nil
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if ix.skipDir(name) {
				continue
			}
			files = append(files, ix.walk(path, qualifies)...)
			continue
		}
		if qualifies(name) {
			files = append(files, path)
		}
	}
	return files
}

func (ix *Indexer) skipDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, skip := range ix.opts.SkipDirs {
		if name == skip {
			return true
		}
	}
	return false
}

func (ix *Indexer) allowedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range ix.opts.Extensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// isComponentFile: allowed extension and a capitalized name or "component" in the name
func (ix *Indexer) isComponentFile(name string) bool {
	if !ix.allowedExt(name) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(first) || strings.Contains(strings.ToLower(name), "component")
}

func (ix *Indexer) isPageFile(name string) bool {
	return ix.allowedExt(name)
}

// extractComponents reads and extracts files in parallel.
// Results keep the order of paths so ids and ordering are reproducible.
func (ix *Indexer) extractComponents(ctx context.Context, projectPath string, paths []string) ([]domain.ComponentRecord, int, error) {
	records := make([]*domain.ComponentRecord, len(paths))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(ix.opts.Concurrency, max(len(paths), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				record, err := ix.extractComponent(projectPath, paths[i])
				if err != nil {
					ix.logger.Warn("failed to extract component", "path", paths[i], "error", err)
					continue
				}
				records[i] = record
			}
		}()
	}

	var cancelled error
	for i := range paths {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if cancelled != nil {
		return nil, 0, cancelled
	}

	// Ids drop the extension, so Button.jsx and Button.tsx collide. The first in walk order wins.
	components := make([]domain.ComponentRecord, 0, len(paths))
	seen := make(map[string]string, len(paths))
	skipped := 0
	for _, r := range records {
		if r == nil {
			skipped++
			continue
		}
		if first, dup := seen[r.ID]; dup {
			ix.logger.Warn("duplicate component id", "id", r.ID, "path", r.FilePath, "kept", first)
			skipped++
			continue
		}
		seen[r.ID] = r.FilePath
		components = append(components, *r)
	}
	return components, skipped, nil
}

func (ix *Indexer) extractComponent(projectPath, path string) (*domain.ComponentRecord, error) {
	rel, err := relPath(projectPath, path)
	if err != nil {
		return nil, err
	}

	data, err := ix.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	info, err := ix.fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	extractor := ix.extractors.Get(filepath.Ext(path))
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for %s", filepath.Ext(path))
	}

	name := domain.FileStem(rel)
	source := string(data)
	features, err := extractor.Extract(source, name)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	return &domain.ComponentRecord{
		ID:           domain.RecordID(rel),
		Name:         name,
		FilePath:     rel,
		SourceText:   source,
		Props:        nonNilProps(features.Props),
		Imports:      nonNil(features.Imports),
		Tags:         nonNil(features.Tags),
		UsedIn:       make([]string, 0),
		Description:  features.Description,
		Styles:       features.Styles,
		LastModified: info.ModTime().UTC(),
	}, nil
}

// discoverPages walks every pages directory. A file reachable from two
// configured directories is recorded once, as is a page id.
func (ix *Indexer) discoverPages(projectPath string) ([]domain.PageRecord, int) {
	pages := make([]domain.PageRecord, 0)
	seen := make(map[string]bool)
	ids := make(map[string]string)
	skipped := 0

	for _, dir := range ix.opts.PagesDirs {
		for _, path := range ix.walk(filepath.Join(projectPath, filepath.FromSlash(dir)), ix.isPageFile) {
			if seen[path] {
				continue
			}
			seen[path] = true

			page, err := ix.extractPage(projectPath, path)
			if err != nil {
				ix.logger.Warn("failed to extract page", "path", path, "error", err)
				skipped++
				continue
			}
			if first, dup := ids[page.ID]; dup {
				ix.logger.Warn("duplicate page id", "id", page.ID, "path", page.FilePath, "kept", first)
				skipped++
				continue
			}
			ids[page.ID] = page.FilePath
			pages = append(pages, *page)
		}
	}
	return pages, skipped
}

func (ix *Indexer) extractPage(projectPath, path string) (*domain.PageRecord, error) {
	rel, err := relPath(projectPath, path)
	if err != nil {
		return nil, err
	}
	data, err := ix.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	extractor := ix.extractors.Get(filepath.Ext(path))
	if extractor == nil {
		return nil, fmt.Errorf("no extractor for %s", filepath.Ext(path))
	}

	name := domain.FileStem(rel)
	return &domain.PageRecord{
		ID:         domain.RecordID(rel),
		Name:       name,
		Route:      domain.RouteFor(name),
		FilePath:   rel,
		Components: nonNil(extractor.UsedComponents(string(data))),
	}, nil
}

// linkUsage appends each page id to the usedIn of every component it references by name
func linkUsage(components []domain.ComponentRecord, pages []domain.PageRecord) {
	byName := make(map[string]int, len(components))
	for i := len(components) - 1; i >= 0; i-- {
		byName[components[i].Name] = i
	}
	for _, page := range pages {
		for _, name := range page.Components {
			i, ok := byName[name]
			if !ok {
				continue
			}
			if !containsString(components[i].UsedIn, page.ID) {
				components[i].UsedIn = append(components[i].UsedIn, page.ID)
			}
		}
	}
}

func relPath(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relative path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return make([]string, 0)
	}
	return s
}

func nonNilProps(p []domain.Prop) []domain.Prop {
	if p == nil {
		return make([]domain.Prop, 0)
	}
	return p
}
