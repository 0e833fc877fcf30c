// Package store persists pipeline runs, extracted covariate tables, and
// validation reports.
package store

import (
	"context"

	"github.com/loonworks/sdm-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Species string          `json:"species,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// NeighborhoodRecord is one neighborhood buffer geometry, EWKB encoded.
type NeighborhoodRecord struct {
	LocalityID string
	EWKB       []byte
}

// Store defines the persistence interface for the covariate pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, species string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Covariate tables, keyed by species
	SaveCovariates(ctx context.Context, species string, rows []model.CovariateRow) error
	GetCovariates(ctx context.Context, species string) ([]model.CovariateRow, error)

	// Neighborhood geometries, keyed by species
	SaveNeighborhoods(ctx context.Context, species string, records []NeighborhoodRecord) error

	// Reports, keyed by (run, kind)
	SaveReport(ctx context.Context, runID, kind string, payload []byte) error
	GetReport(ctx context.Context, runID, kind string) ([]byte, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
