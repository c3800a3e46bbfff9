package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
)

func TestObserveRun(t *testing.T) {
	m := New()
	m.ObserveRun(&analysis.AnalysisState{FilteredCount: 12, Elbow: &analysis.ElbowResult{BestK: 3}}, 20*time.Millisecond)
	m.ObserveRun(&analysis.AnalysisState{FilteredCount: 0}, time.Millisecond)
	m.RunFailed(OutcomeInvalidInput)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues(OutcomeInvalidInput)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.bestK), "nil elbow leaves the gauge alone")
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestCacheLookup(t *testing.T) {
	m := New()
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RunFailed(OutcomeError)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, name := range []string{"canopy_analysis_runs_total", "canopy_elbow_best_k", "go_goroutines"} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}

func TestFreshRegistryListsZeroSeries(t *testing.T) {
	m := New()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	for _, series := range []string{
		`canopy_analysis_runs_total{outcome="success"} 0`,
		`canopy_analysis_runs_total{outcome="invalid_input"} 0`,
		`canopy_analysis_runs_total{outcome="canceled"} 0`,
		`canopy_analysis_runs_total{outcome="error"} 0`,
		`canopy_cache_lookups_total{result="hit"} 0`,
		`canopy_cache_lookups_total{result="miss"} 0`,
	} {
		assert.Contains(t, body, series)
	}
	assert.Equal(t, 4, testutil.CollectAndCount(m.runs))
}
