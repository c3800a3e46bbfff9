package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// Settings are the analyzer defaults, normally taken from configuration.
type Settings struct {
	Indicators    IndicatorColumns
	MaxK          int
	MaxIterations int
	Seed          int64
	TopN          int
	Balance       BalanceWeights
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{
		Indicators:    DefaultIndicators(),
		MaxK:          6,
		MaxIterations: 40,
		Seed:          42,
		TopN:          5,
		Balance:       DefaultBalance(),
	}
}

// Options override Settings for one run. Zero fields take the defaults, so
// Seed 0 always means the configured seed and cannot be requested itself;
// any other value, negative ones included, seeds k-means as given.
type Options struct {
	TopN          int   `json:"topN,omitempty"`
	MaxK          int   `json:"maxK,omitempty"`
	MaxIterations int   `json:"maxIterations,omitempty"`
	Seed          int64 `json:"seed,omitempty"`
}

// AnalysisState is everything one pipeline run produces. It is built fresh
// on every run and shares nothing with other runs.
type AnalysisState struct {
	RunID           uuid.UUID           `json:"run_id"`
	DatasetID       *uuid.UUID          `json:"dataset_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	Filter          dataset.Filter      `json:"filter"`
	Options         Options             `json:"options"`
	RecordCount     int                 `json:"record_count"`
	FilteredCount   int                 `json:"filtered_count"`
	Scored          []ScoredRecord      `json:"scored"`
	Weights         EntropyWeights      `json:"weights"`
	Stats           Stats               `json:"stats"`
	Materials       []MaterialAggregate `json:"materials"`
	Brands          []BrandAggregate    `json:"brands"`
	Elbow           *ElbowResult        `json:"elbow"`
	Clustering      *KMeansResult       `json:"clustering"`
	Recommendations Recommendations     `json:"recommendations"`
	Warnings        []Warning           `json:"warnings"`
	DurationMs      int64               `json:"duration_ms"`
}

// ParetoRecords returns the scored records on the price/SIS frontier.
func (s *AnalysisState) ParetoRecords() []ScoredRecord {
	out := make([]ScoredRecord, 0)
	for _, r := range s.Scored {
		if r.IsPareto {
			out = append(out, r)
		}
	}
	return out
}

// Analyzer runs the full pipeline: filter, SIS, then clustering and
// recommendations side by side.
type Analyzer struct {
	settings Settings
	logger   *slog.Logger
}

// NewAnalyzer validates settings and returns an Analyzer.
func NewAnalyzer(settings Settings, logger *slog.Logger) (*Analyzer, error) {
	if err := settings.Indicators.Validate(); err != nil {
		return nil, err
	}
	if err := (KMeansParams{K: settings.MaxK, MaxIterations: settings.MaxIterations}).validate("analyzer"); err != nil {
		return nil, err
	}
	if _, err := NewRecommender(settings.TopN, settings.Balance); err != nil {
		return nil, err
	}
	return &Analyzer{settings: settings, logger: logger}, nil
}

// Settings returns the defaults the analyzer was built with.
func (a *Analyzer) Settings() Settings { return a.settings }

// Resolve fills zero option fields from the analyzer settings and rejects
// negative values.
func (a *Analyzer) Resolve(opts Options) (Options, error) {
	switch {
	case opts.TopN < 0:
		return opts, invalid("analyze", "topN", "must not be negative, got %d", opts.TopN)
	case opts.MaxK < 0:
		return opts, invalid("analyze", "maxK", "must not be negative, got %d", opts.MaxK)
	case opts.MaxIterations < 0:
		return opts, invalid("analyze", "maxIterations", "must not be negative, got %d", opts.MaxIterations)
	}
	if opts.TopN == 0 {
		opts.TopN = a.settings.TopN
	}
	if opts.MaxK == 0 {
		opts.MaxK = a.settings.MaxK
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = a.settings.MaxIterations
	}
	if opts.Seed == 0 {
		opts.Seed = a.settings.Seed
	}
	return opts, nil
}

// Run executes the pipeline over records narrowed by filter. records is not
// modified. Only invalid options return an error besides ctx cancellation.
func (a *Analyzer) Run(ctx context.Context, records []dataset.Record, filter dataset.Filter, opts Options) (*AnalysisState, error) {
	start := time.Now()
	opts, err := a.Resolve(opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filtered := filter.Apply(records)
	sis, err := ComputeSIS(filtered, a.settings.Indicators)
	if err != nil {
		return nil, fmt.Errorf("compute sis: %w", err)
	}
	brands := AggregateBrands(sis.Scored)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	features := make([][]float64, len(sis.Materials))
	for i, m := range sis.Materials {
		features[i] = m.Features
	}
	rec := &Recommender{TopN: opts.TopN, Balance: a.settings.Balance}

	var (
		elbow      *ElbowResult
		clusters   *KMeansResult
		recFlags   []bool
		matFlags   []bool
		brandFlags []bool
		recs       Recommendations
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		elbow, err = ChooseKByElbow(features, opts.MaxK, opts.MaxIterations, opts.Seed)
		if err != nil {
			return fmt.Errorf("choose k: %w", err)
		}
		clusters = elbow.Best
		return gctx.Err()
	})
	g.Go(func() error {
		recFlags = ComputeParetoFlags(recordPoints(sis.Scored))
		matFlags = ComputeParetoFlags(materialPoints(sis.Materials))
		brandFlags = ComputeParetoFlags(brandPoints(brands))
		recs = rec.fromFlags(sis.Scored, recFlags)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range sis.Scored {
		sis.Scored[i].IsPareto = recFlags[i]
	}
	for i := range sis.Materials {
		sis.Materials[i].IsPareto = matFlags[i]
		if i < len(clusters.Assignments) {
			sis.Materials[i].Cluster = clusters.Assignments[i]
		}
	}
	for i := range brands {
		brands[i].IsPareto = brandFlags[i]
	}

	warnings := sis.Warnings
	if n := len(features); n > 0 && opts.MaxK > n {
		warnings = append(warnings, warnf(WarnKClamped, "max k %d clamped to %d materials", opts.MaxK, n))
	}
	if !clusters.Converged {
		warnings = append(warnings, warnf(WarnKMeansNotConverged,
			"k-means stopped after %d iterations without converging", clusters.Iterations))
	}

	state := &AnalysisState{
		RunID:           uuid.New(),
		CreatedAt:       start.UTC(),
		Filter:          filter,
		Options:         opts,
		RecordCount:     len(records),
		FilteredCount:   len(filtered),
		Scored:          sis.Scored,
		Weights:         sis.Weights,
		Stats:           sis.Stats,
		Materials:       sis.Materials,
		Brands:          brands,
		Elbow:           elbow,
		Clustering:      clusters,
		Recommendations: recs,
		Warnings:        warnings,
		DurationMs:      time.Since(start).Milliseconds(),
	}

	a.logger.Info("analysis complete",
		"run_id", state.RunID,
		"records", state.RecordCount,
		"filtered", state.FilteredCount,
		"materials", len(state.Materials),
		"best_k", elbow.BestK,
		"weights", sis.Weights.String(),
		"warnings", len(warnings),
		"duration_ms", state.DurationMs,
	)
	return state, nil
}
