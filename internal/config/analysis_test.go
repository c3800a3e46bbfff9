package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
)

func TestDefaultsMatchAnalyzerDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(analysis.DefaultSettings(), cfg.AnalysisSettings()); diff != "" {
		t.Errorf("config defaults drifted from analyzer defaults (-want +got):\n%s", diff)
	}
}

func TestAnalysisSettingsFollowOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CANOPY_MAX_K", "9")
	t.Setenv("CANOPY_TOP_N", "2")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	s := cfg.AnalysisSettings()
	if s.MaxK != 9 || s.TopN != 2 {
		t.Errorf("expected MaxK=9 TopN=2, got %d %d", s.MaxK, s.TopN)
	}
	if _, err := analysis.NewAnalyzer(s, nil); err != nil {
		t.Errorf("settings from a valid config should build an analyzer: %v", err)
	}
}
