package hermes

import (
	"time"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

type DatasetCreatedEvent struct {
	DatasetID   string    `json:"dataset_id"`
	Name        string    `json:"name"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type DatasetDeletedEvent struct {
	DatasetID string `json:"dataset_id"`
}

type AnalysisCompletedEvent struct {
	RunID         string    `json:"run_id"`
	DatasetID     string    `json:"dataset_id,omitempty"`
	RecordCount   int       `json:"record_count"`
	FilteredCount int       `json:"filtered_count"`
	BestK         int       `json:"best_k"`
	AvgSIS        float64   `json:"avg_sis"`
	WEnv          float64   `json:"w_env"`
	WPolicy       float64   `json:"w_policy"`
	Warnings      int       `json:"warnings"`
	DurationMs    int64     `json:"duration_ms"`
	CompletedAt   time.Time `json:"completed_at"`
}

func NewDatasetCreatedEvent(ds *store.Dataset) DatasetCreatedEvent {
	return DatasetCreatedEvent{
		DatasetID:   ds.ID.String(),
		Name:        ds.Name,
		RecordCount: ds.RecordCount,
		CreatedAt:   ds.CreatedAt,
	}
}

func NewAnalysisCompletedEvent(s *analysis.AnalysisState) AnalysisCompletedEvent {
	ev := AnalysisCompletedEvent{
		RunID:         s.RunID.String(),
		RecordCount:   s.RecordCount,
		FilteredCount: s.FilteredCount,
		AvgSIS:        s.Stats.AvgSIS,
		WEnv:          s.Weights.WEnv,
		WPolicy:       s.Weights.WPolicy,
		Warnings:      len(s.Warnings),
		DurationMs:    s.DurationMs,
		CompletedAt:   s.CreatedAt.Add(time.Duration(s.DurationMs) * time.Millisecond),
	}
	if s.DatasetID != nil {
		ev.DatasetID = s.DatasetID.String()
	}
	if s.Elbow != nil {
		ev.BestK = s.Elbow.BestK
	}
	return ev
}
