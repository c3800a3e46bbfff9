package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// Dataset is an uploaded batch of records.
type Dataset struct {
	ID          uuid.UUID `json:"dataset_id"`
	Name        string    `json:"name"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// AnalysisRun is the persisted summary of one pipeline run. Scored rows,
// aggregates and the clustering are recomputed on demand and not stored.
type AnalysisRun struct {
	ID              uuid.UUID                `json:"run_id"`
	DatasetID       *uuid.UUID               `json:"dataset_id,omitempty"`
	Options         analysis.Options         `json:"options"`
	Filter          dataset.Filter           `json:"filter"`
	RecordCount     int                      `json:"record_count"`
	FilteredCount   int                      `json:"filtered_count"`
	BestK           int                      `json:"best_k"`
	Weights         analysis.EntropyWeights  `json:"weights"`
	Stats           analysis.Stats           `json:"stats"`
	Recommendations analysis.Recommendations `json:"recommendations"`
	Warnings        []analysis.Warning       `json:"warnings"`
	DurationMs      int64                    `json:"duration_ms"`
	CreatedAt       time.Time                `json:"created_at"`
}

// RunFromState extracts the persisted summary of a finished run.
func RunFromState(s *analysis.AnalysisState) *AnalysisRun {
	run := &AnalysisRun{
		ID:              s.RunID,
		DatasetID:       s.DatasetID,
		Options:         s.Options,
		Filter:          s.Filter,
		RecordCount:     s.RecordCount,
		FilteredCount:   s.FilteredCount,
		Weights:         s.Weights,
		Stats:           s.Stats,
		Recommendations: s.Recommendations,
		Warnings:        s.Warnings,
		DurationMs:      s.DurationMs,
		CreatedAt:       s.CreatedAt,
	}
	if s.Elbow != nil {
		run.BestK = s.Elbow.BestK
	}
	return run
}

type RunFilter struct {
	DatasetID *uuid.UUID
	Limit     int
	Offset    int
}

const defaultListLimit = 100

// Store persists datasets and analysis runs. Getters return nil, nil when
// the row does not exist.
type Store interface {
	CreateDataset(ctx context.Context, ds *Dataset, records []dataset.Record) error
	GetDataset(ctx context.Context, id uuid.UUID) (*Dataset, error)
	ListDatasets(ctx context.Context) ([]*Dataset, error)
	GetDatasetRecords(ctx context.Context, id uuid.UUID) ([]dataset.Record, error)
	DeleteDataset(ctx context.Context, id uuid.UUID) error

	CreateRun(ctx context.Context, run *AnalysisRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]*AnalysisRun, error)

	Close() error
}
