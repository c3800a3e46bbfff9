package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/client"
	"github.com/MikeSquared-Agency/Canopy/internal/config"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/report"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "table",
		Usage:   "Output format (table, json, markdown)",
	}
}

func csvFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "csv",
		Usage:    "Path to the dataset CSV",
		Required: true,
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Score, cluster and rank a dataset",
		Flags: []cli.Flag{
			csvFlag(),
			formatFlag(),
			&cli.IntFlag{Name: "top-n", Usage: "Recommendations per category"},
			&cli.IntFlag{Name: "max-k", Usage: "Largest cluster count tried by the elbow search"},
			&cli.IntFlag{Name: "max-iterations", Usage: "K-means iteration cap"},
			&cli.Int64Flag{Name: "seed", Usage: "K-means seed"},
			&cli.StringSliceFlag{Name: "country", Usage: "Keep only these countries"},
			&cli.StringSliceFlag{Name: "material", Usage: "Keep only these materials"},
			&cli.StringSliceFlag{Name: "certification", Usage: "Keep only these certifications"},
			&cli.StringSliceFlag{Name: "trend", Usage: "Keep only these market trends"},
			&cli.StringSliceFlag{Name: "brand", Usage: "Keep only these brands"},
			&cli.IntFlag{Name: "year-from", Usage: "First year kept"},
			&cli.IntFlag{Name: "year-to", Usage: "Last year kept"},
			&cli.BoolFlag{Name: "remote", Usage: "Run on the server given by --api instead of locally"},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}
	records, err := readCSV(c.String("csv"))
	if err != nil {
		return err
	}
	filter := dataset.Filter{
		Countries:      c.StringSlice("country"),
		Materials:      c.StringSlice("material"),
		Certifications: c.StringSlice("certification"),
		MarketTrends:   c.StringSlice("trend"),
		Brands:         c.StringSlice("brand"),
		YearFrom:       c.Int("year-from"),
		YearTo:         c.Int("year-to"),
	}
	opts := analysis.Options{
		TopN:          c.Int("top-n"),
		MaxK:          c.Int("max-k"),
		MaxIterations: c.Int("max-iterations"),
		Seed:          c.Int64("seed"),
	}

	ctx := context.Background()
	var state *analysis.AnalysisState
	if c.Bool("remote") {
		var cached bool
		state, cached, err = apiClient(c).Analyze(ctx, records, filter, opts)
		if err != nil {
			return fmt.Errorf("remote analysis failed: %w", err)
		}
		newLogger(c).Debug("remote analysis", "run_id", state.RunID, "cached", cached)
	} else {
		analyzer, err := localAnalyzer(c)
		if err != nil {
			return err
		}
		state, err = analyzer.Run(ctx, records, filter, opts)
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
	}
	return report.Analysis(c.App.Writer, state, format)
}

func facetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "facets",
		Usage: "List the filterable values of a dataset",
		Flags: []cli.Flag{csvFlag(), formatFlag()},
		Action: func(c *cli.Context) error {
			format, err := report.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			records, err := readCSV(c.String("csv"))
			if err != nil {
				return err
			}
			return report.Facets(c.App.Writer, dataset.ComputeFacets(records), format)
		},
	}
}

func uploadCommand() *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Store a dataset on the server",
		Flags: []cli.Flag{
			csvFlag(),
			&cli.StringFlag{Name: "name", Usage: "Dataset name", Required: true},
		},
		Action: func(c *cli.Context) error {
			f, err := os.Open(c.String("csv"))
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			ds, err := apiClient(c).UploadCSV(context.Background(), c.String("name"), f)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			fmt.Fprintf(c.App.Writer, "dataset %s created with %d records\n", ds.ID, ds.RecordCount)
			return nil
		},
	}
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List stored analysis runs",
		Flags: []cli.Flag{
			formatFlag(),
			&cli.StringFlag{Name: "dataset", Usage: "Only runs of this dataset id"},
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum runs listed"},
		},
		Action: func(c *cli.Context) error {
			format, err := report.ParseFormat(c.String("format"))
			if err != nil {
				return err
			}
			var datasetID *uuid.UUID
			if raw := c.String("dataset"); raw != "" {
				id, err := uuid.Parse(raw)
				if err != nil {
					return fmt.Errorf("invalid dataset id %q: %w", raw, err)
				}
				datasetID = &id
			}
			runs, err := apiClient(c).ListRuns(context.Background(), datasetID, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("list runs failed: %w", err)
			}
			return report.Runs(c.App.Writer, runs, format)
		},
	}
}

func readCSV(path string) ([]dataset.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return dataset.ReadCSV(f)
}

func newLogger(c *cli.Context) *slog.Logger {
	return config.LoggingConfig{Level: c.String("log-level"), Format: "text"}.NewLogger(c.App.ErrWriter)
}

// localAnalyzer builds an analyzer from the config file when one is given,
// else from the built-in defaults.
func localAnalyzer(c *cli.Context) (*analysis.Analyzer, error) {
	settings := analysis.DefaultSettings()
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		settings = cfg.AnalysisSettings()
	}
	return analysis.NewAnalyzer(settings, newLogger(c))
}

func apiClient(c *cli.Context) *client.HTTPClient {
	return client.NewHTTPClient(c.String("api"), c.String("client-id"))
}
