package domain

import "time"

// IndexRun records one completed indexing run
type IndexRun struct {
	ID              string        `json:"id"`
	ProjectPath     string        `json:"project_path"`
	Framework       Framework     `json:"framework"`
	ComponentsCount int           `json:"components_count"`
	PagesCount      int           `json:"pages_count"`
	SkippedFiles    int           `json:"skipped_files"`
	Took            time.Duration `json:"took" swaggertype:"integer" example:"1500000"`
	IndexedAt       time.Time     `json:"indexed_at"`
}
