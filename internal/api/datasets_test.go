package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

const uploadCSV = `Brand_Name,Country,Year,Material_Type,Carbon_Footprint_MT,Water_Usage_Liters,Waste_Production_KG,Sustainability_Rating,Recycling_Programs,Average_Price_USD,Certifications
Brand_1,USA,2018,Cotton,10,100,1,A,Yes,10,GOTS
Brand_2,Japan,2020,Hemp,20,200,2,C,No,20,B Corp
Brand_3,USA,2022,Tencel,30,300,3,D,Yes,15,GOTS
`

func createDataset(t *testing.T, env *testEnv) store.Dataset {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/datasets?name=spring", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv; charset=utf-8")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ds store.Dataset
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ds))
	return ds
}

func TestCreateDatasetCSV(t *testing.T) {
	env := setupTestRouter(t, nil)
	ds := createDataset(t, env)

	assert.Equal(t, "spring", ds.Name)
	assert.Equal(t, 3, ds.RecordCount)
	assert.NotEqual(t, uuid.Nil, ds.ID)
	env.hermes.AssertCalled(t, "Publish", mock.Anything, "canopy.dataset."+ds.ID.String()+".created", mock.Anything)

	records, err := env.store.GetDatasetRecords(context.Background(), ds.ID)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, dataset.Number(4), records[0].SustainabilityRating)
}

func TestCreateDatasetJSON(t *testing.T) {
	env := setupTestRouter(t, nil)

	body, _ := json.Marshal(CreateDatasetRequest{Name: "batch", Records: sampleRecords()})
	w := env.do("POST", "/api/v1/datasets", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var ds store.Dataset
	require.NoError(t, json.NewDecoder(w.Body).Decode(&ds))
	assert.Equal(t, 4, ds.RecordCount)
}

func TestCreateDatasetValidation(t *testing.T) {
	env := setupTestRouter(t, nil)

	w := env.do("POST", "/api/v1/datasets", `{"records":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("POST", "/api/v1/datasets", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/api/v1/datasets", strings.NewReader(uploadCSV))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "csv upload without a name")
}

func TestGetAndListDatasets(t *testing.T) {
	env := setupTestRouter(t, nil)
	ds := createDataset(t, env)

	w := env.do("GET", "/api/v1/datasets/"+ds.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do("GET", "/api/v1/datasets", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []store.Dataset
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	assert.Len(t, list, 1)

	w = env.do("GET", "/api/v1/datasets/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("GET", "/api/v1/datasets/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDatasetFacets(t *testing.T) {
	env := setupTestRouter(t, nil)
	ds := createDataset(t, env)

	w := env.do("GET", "/api/v1/datasets/"+ds.ID.String()+"/facets", "")
	require.Equal(t, http.StatusOK, w.Code)

	var f dataset.Facets
	require.NoError(t, json.NewDecoder(w.Body).Decode(&f))
	assert.Equal(t, 3, f.Records)
	assert.Equal(t, []string{"Japan", "USA"}, f.Countries)
	assert.Equal(t, []string{"B Corp", "GOTS"}, f.Certifications)
	assert.Equal(t, 2018, f.YearMin)
	assert.Equal(t, 2022, f.YearMax)

	w = env.do("GET", "/api/v1/datasets/"+uuid.New().String()+"/facets", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeDatasetPersistsRun(t *testing.T) {
	env := setupTestRouter(t, nil)
	ds := createDataset(t, env)

	w := env.do("POST", "/api/v1/datasets/"+ds.ID.String()+"/analyze", `{"filter":{"countries":["USA"]},"config":{"topN":1}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	state := decodeState(t, w)
	require.NotNil(t, state.DatasetID)
	assert.Equal(t, ds.ID, *state.DatasetID)
	assert.Equal(t, 2, state.FilteredCount)

	w = env.do("POST", "/api/v1/datasets/"+ds.ID.String()+"/analyze", "")
	require.Equal(t, http.StatusOK, w.Code, "empty body analyses everything")
	assert.Equal(t, 3, decodeState(t, w).FilteredCount)

	w = env.do("GET", "/api/v1/runs?dataset_id="+ds.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var runs []store.AnalysisRun
	require.NoError(t, json.NewDecoder(w.Body).Decode(&runs))
	require.Len(t, runs, 2)

	w = env.do("GET", "/api/v1/runs/"+state.RunID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	var run store.AnalysisRun
	require.NoError(t, json.NewDecoder(w.Body).Decode(&run))
	assert.Equal(t, []string{"USA"}, run.Filter.Countries)
	assert.Equal(t, 1, run.Options.TopN)
	assert.Equal(t, state.Elbow.BestK, run.BestK)

	w = env.do("POST", "/api/v1/datasets/"+uuid.New().String()+"/analyze", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunsQueryValidation(t *testing.T) {
	env := setupTestRouter(t, nil)

	tests := []struct {
		query  string
		status int
	}{
		{"", http.StatusOK},
		{"?limit=5&offset=2", http.StatusOK},
		{"?dataset_id=nope", http.StatusBadRequest},
		{"?limit=abc", http.StatusBadRequest},
		{"?offset=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := env.do("GET", "/api/v1/runs"+tt.query, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := env.do("GET", "/api/v1/runs/"+uuid.New().String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDatasetRequiresAdminToken(t *testing.T) {
	mc := &mockCache{}
	env := setupTestRouter(t, mc)
	ds := createDataset(t, env)
	mc.On("InvalidateDataset", mock.Anything, ds.ID).Return(nil).Once()

	w := env.do("DELETE", "/api/v1/datasets/"+ds.ID.String(), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("DELETE", "/api/v1/datasets/"+ds.ID.String(), "", "Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do("DELETE", "/api/v1/datasets/"+ds.ID.String(), "", "Authorization", "Bearer test-token")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	mc.AssertExpectations(t)
	env.hermes.AssertCalled(t, "Publish", mock.Anything, "canopy.dataset."+ds.ID.String()+".deleted", mock.Anything)

	w = env.do("GET", "/api/v1/datasets/"+ds.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("DELETE", "/api/v1/datasets/"+ds.ID.String(), "", "Authorization", "Bearer test-token")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
