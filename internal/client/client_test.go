package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

func TestUploadCSV(t *testing.T) {
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/datasets", r.URL.Path)
		assert.Equal(t, "spring drop", r.URL.Query().Get("name"))
		assert.Equal(t, "text/csv", r.Header.Get("Content-Type"))
		assert.Equal(t, "canopyctl", r.Header.Get("X-Client-ID"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "Country\nUSA\n", string(body))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(store.Dataset{ID: id, Name: "spring drop", RecordCount: 1})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL+"/", "canopyctl")
	ds, err := c.UploadCSV(context.Background(), "spring drop", strings.NewReader("Country\nUSA\n"))
	require.NoError(t, err)
	assert.Equal(t, id, ds.ID)
	assert.Equal(t, 1, ds.RecordCount)
}

func TestListRunsQuery(t *testing.T) {
	dsID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/runs", r.URL.Path)
		assert.Equal(t, dsID.String(), r.URL.Query().Get("dataset_id"))
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]store.AnalysisRun{{BestK: 2}, {BestK: 3}})
	}))
	defer srv.Close()

	runs, err := NewHTTPClient(srv.URL, "").ListRuns(context.Background(), &dsID, 3)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, 3, runs[1].BestK)
}

func TestAnalyzeReportsCacheHit(t *testing.T) {
	runID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Records []dataset.Record `json:"records"`
			Config  analysis.Options `json:"config"`
			Filter  dataset.Filter   `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Records, 1)
		assert.Equal(t, 3, req.Config.TopN)
		assert.Equal(t, []string{"Cotton"}, req.Filter.Materials)

		w.Header().Set("X-Canopy-Cache", "hit")
		json.NewEncoder(w).Encode(analysis.AnalysisState{RunID: runID})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	state, cached, err := c.Analyze(context.Background(),
		[]dataset.Record{{MaterialType: "Cotton"}},
		dataset.Filter{Materials: []string{"Cotton"}},
		analysis.Options{TopN: 3})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, runID, state.RunID)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"dataset not found"}`))
	}))
	defer srv.Close()

	_, _, err := NewHTTPClient(srv.URL, "").AnalyzeDataset(context.Background(), uuid.New(), dataset.Filter{}, analysis.Options{})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "dataset not found", apiErr.Message)
}
