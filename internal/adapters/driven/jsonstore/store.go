// Package jsonstore persists project indexes as JSON artifacts inside the project.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexStore = (*Store)(nil)

// DefaultArtifactPath is the artifact location relative to the project root
const DefaultArtifactPath = ".sercha/component-index.json"

// Store implements driven.IndexStore with one JSON file per project.
// Writes go to a temp file in the same directory and are renamed into place,
// so readers never see a partial artifact.
type Store struct {
	artifactRel string
	logger      *slog.Logger
}

// New creates a store. An empty artifactRel uses DefaultArtifactPath.
func New(artifactRel string, logger *slog.Logger) *Store {
	if artifactRel == "" {
		artifactRel = DefaultArtifactPath
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{artifactRel: artifactRel, logger: logger}
}

// ArtifactPath returns the artifact file of a project
func (s *Store) ArtifactPath(projectPath string) string {
	return filepath.Join(projectPath, filepath.FromSlash(s.artifactRel))
}

// Save writes the artifact, replacing any previous one
func (s *Store) Save(ctx context.Context, index *domain.ProjectIndex) error {
	path := s.ArtifactPath(index.Metadata.ProjectPath)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".component-index-*.json")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// no-op once the rename succeeded
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// Load reads the artifact. A missing or unparsable artifact yields (nil, nil)
// so callers report the project as not indexed.
func (s *Store) Load(ctx context.Context, projectPath string) (*domain.ProjectIndex, error) {
	path := s.ArtifactPath(projectPath)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	var index domain.ProjectIndex
	if err := json.Unmarshal(data, &index); err != nil {
		s.logger.Warn("ignoring unparsable index artifact", "path", path, "error", err)
		return nil, nil
	}
	if index.Components == nil {
		index.Components = []domain.ComponentRecord{}
	}
	if index.Pages == nil {
		index.Pages = []domain.PageRecord{}
	}
	return &index, nil
}
