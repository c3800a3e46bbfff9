package hermes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

func TestSubjects(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{SubjectDatasetCreated("d1"), "canopy.dataset.d1.created"},
		{SubjectDatasetDeleted("d1"), "canopy.dataset.d1.deleted"},
		{SubjectAnalysisCompleted("r9"), "canopy.analysis.r9.completed"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %s, got %s", tt.want, tt.got)
		}
	}
}

func TestSubjectsCoveredByStream(t *testing.T) {
	for _, subject := range []string{
		SubjectDatasetCreated("x"),
		SubjectDatasetDeleted("x"),
		SubjectAnalysisCompleted("x"),
	} {
		covered := false
		for _, pattern := range StreamSubjects() {
			if strings.HasPrefix(subject, strings.TrimSuffix(pattern, ">")) {
				covered = true
			}
		}
		assert.True(t, covered, "subject %s not captured by %s", subject, StreamName)
	}
	assert.Equal(t, 720*time.Hour, StreamMaxAge)
}

func TestNewAnalysisCompletedEvent(t *testing.T) {
	dsID := uuid.New()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	state := &analysis.AnalysisState{
		RunID:         uuid.New(),
		DatasetID:     &dsID,
		CreatedAt:     created,
		RecordCount:   20,
		FilteredCount: 12,
		Stats:         analysis.Stats{AvgSIS: 0.42},
		Weights:       analysis.EntropyWeights{WEnv: 0.6, WPolicy: 0.4},
		Elbow:         &analysis.ElbowResult{BestK: 3},
		Warnings:      []analysis.Warning{{Code: analysis.WarnZeroVarianceColumn}},
		DurationMs:    1500,
	}

	ev := NewAnalysisCompletedEvent(state)
	assert.Equal(t, state.RunID.String(), ev.RunID)
	assert.Equal(t, dsID.String(), ev.DatasetID)
	assert.Equal(t, 3, ev.BestK)
	assert.Equal(t, 1, ev.Warnings)
	assert.Equal(t, created.Add(1500*time.Millisecond), ev.CompletedAt)

	data, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"avg_sis":0.42`)

	state.DatasetID = nil
	state.Elbow = nil
	ev = NewAnalysisCompletedEvent(state)
	assert.Empty(t, ev.DatasetID)
	assert.Zero(t, ev.BestK)
	data, _ = json.Marshal(ev)
	assert.NotContains(t, string(data), "dataset_id")
}

func TestNewDatasetCreatedEvent(t *testing.T) {
	ds := &store.Dataset{ID: uuid.New(), Name: "spring", RecordCount: 4}
	ev := NewDatasetCreatedEvent(ds)
	assert.Equal(t, ds.ID.String(), ev.DatasetID)
	assert.Equal(t, "spring", ev.Name)
	assert.Equal(t, 4, ev.RecordCount)
}
