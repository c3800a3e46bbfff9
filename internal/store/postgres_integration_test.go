//go:build integration

package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

func setupTestDB(t *testing.T) *PostgresStore {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	if err := Migrate(dbURL, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	s, err := NewPostgresStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	t.Cleanup(func() {
		_, _ = s.pool.Exec(ctx, "TRUNCATE canopy_runs, canopy_records, canopy_datasets CASCADE")
		s.Close()
	})

	return s
}

func TestPostgresDatasetRoundTrip(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	records := []dataset.Record{
		{BrandID: "B-1", BrandName: "A", Country: "USA", Year: 2020, MaterialType: "Cotton",
			CarbonFootprintMT: 10.5, WaterUsageLiters: 1000, AveragePriceUSD: 20, SustainabilityRating: 3},
		{BrandName: "B", Country: "Peru", Year: 2021, MaterialType: "Hemp", Certifications: "GOTS",
			CarbonFootprintMT: 5, RecyclingPrograms: 1, AveragePriceUSD: 40},
	}
	ds := &Dataset{Name: "integration"}
	if err := s.CreateDataset(ctx, ds, records); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}
	if ds.ID == uuid.Nil || ds.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be set, got %+v", ds)
	}

	got, err := s.GetDataset(ctx, ds.ID)
	if err != nil {
		t.Fatalf("GetDataset failed: %v", err)
	}
	if got == nil || got.RecordCount != 2 {
		t.Fatalf("expected dataset with 2 records, got %+v", got)
	}

	back, err := s.GetDatasetRecords(ctx, ds.ID)
	if err != nil {
		t.Fatalf("GetDatasetRecords failed: %v", err)
	}
	if len(back) != 2 {
		t.Fatalf("expected 2 records, got %d", len(back))
	}
	if back[0] != records[0] || back[1] != records[1] {
		t.Errorf("records differ after round trip:\n%+v\n%+v", records, back)
	}

	list, err := s.ListDatasets(ctx)
	if err != nil {
		t.Fatalf("ListDatasets failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 dataset, got %d", len(list))
	}

	missing, err := s.GetDataset(ctx, uuid.New())
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown dataset, got %v, %v", missing, err)
	}
}

func TestPostgresRunsSurviveDatasetDelete(t *testing.T) {
	s := setupTestDB(t)
	ctx := context.Background()

	ds := &Dataset{Name: "to-delete"}
	if err := s.CreateDataset(ctx, ds, []dataset.Record{{MaterialType: "Cotton"}}); err != nil {
		t.Fatalf("CreateDataset failed: %v", err)
	}

	run := &AnalysisRun{
		DatasetID:     &ds.ID,
		Options:       analysis.Options{TopN: 3, MaxK: 4},
		Filter:        dataset.Filter{Materials: []string{"Cotton"}},
		RecordCount:   1,
		FilteredCount: 1,
		BestK:         1,
		Weights:       analysis.EntropyWeights{WEnv: 0.5, WPolicy: 0.5},
		Stats:         analysis.Stats{RecordCount: 1, AvgSIS: 0.5},
		Warnings:      []analysis.Warning{{Code: analysis.WarnKClamped, Message: "clamped"}},
		DurationMs:    7,
	}
	if err := s.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Options.TopN != 3 || got.Filter.Materials[0] != "Cotton" || got.Weights.WEnv != 0.5 {
		t.Errorf("run JSON columns did not round trip: %+v", got)
	}
	if len(got.Warnings) != 1 || got.Warnings[0].Code != analysis.WarnKClamped {
		t.Errorf("expected k_clamped warning, got %+v", got.Warnings)
	}

	runs, err := s.ListRuns(ctx, RunFilter{DatasetID: &ds.ID})
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 run for dataset, got %d (%v)", len(runs), err)
	}

	if err := s.DeleteDataset(ctx, ds.ID); err != nil {
		t.Fatalf("DeleteDataset failed: %v", err)
	}
	records, err := s.GetDatasetRecords(ctx, ds.ID)
	if err != nil || records != nil {
		t.Errorf("expected records gone, got %v (%v)", records, err)
	}
	kept, err := s.GetRun(ctx, run.ID)
	if err != nil || kept == nil {
		t.Fatalf("expected run to survive delete: %v", err)
	}
	if kept.DatasetID != nil {
		t.Errorf("expected dataset reference cleared, got %v", kept.DatasetID)
	}
}
