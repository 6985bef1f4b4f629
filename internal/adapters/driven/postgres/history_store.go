package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-components/internal/core/domain"
	"github.com/custodia-labs/sercha-components/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.IndexHistoryStore = (*HistoryStore)(nil)

// HistoryStore implements driven.IndexHistoryStore using PostgreSQL.
// Every run keeps a copy of the artifact it produced.
type HistoryStore struct {
	db *DB
}

// NewHistoryStore creates a new HistoryStore
func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Record inserts one run row with its artifact
func (s *HistoryStore) Record(ctx context.Context, run *domain.IndexRun, index *domain.ProjectIndex) error {
	artifact, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	query := `
		INSERT INTO index_runs (
			id, project_path, framework, components_count, pages_count,
			skipped_files, took_ns, indexed_at, artifact
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.ProjectPath,
		string(run.Framework),
		run.ComponentsCount,
		run.PagesCount,
		run.SkippedFiles,
		run.Took.Nanoseconds(),
		run.IndexedAt,
		artifact,
	)
	if err != nil {
		return fmt.Errorf("failed to record index run: %w", err)
	}
	return nil
}

// List returns the most recent runs of a project, newest first
func (s *HistoryStore) List(ctx context.Context, projectPath string, limit int) ([]*domain.IndexRun, error) {
	query := `
		SELECT id, project_path, framework, components_count, pages_count,
		       skipped_files, took_ns, indexed_at
		FROM index_runs
		WHERE project_path = $1
		ORDER BY indexed_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, projectPath, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list index runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.IndexRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list index runs: %w", err)
	}
	return runs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*domain.IndexRun, error) {
	var run domain.IndexRun
	var framework string
	var tookNs int64

	err := row.Scan(
		&run.ID,
		&run.ProjectPath,
		&framework,
		&run.ComponentsCount,
		&run.PagesCount,
		&run.SkippedFiles,
		&tookNs,
		&run.IndexedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan index run: %w", err)
	}

	run.Framework = domain.Framework(framework)
	if !run.Framework.IsValid() {
		run.Framework = domain.FrameworkUnknown
	}
	run.Took = time.Duration(tookNs)
	run.IndexedAt = run.IndexedAt.UTC()
	return &run, nil
}
