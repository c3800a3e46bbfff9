// Package report renders analysis results for terminals and documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Canopy/internal/analysis"
	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
	"github.com/MikeSquared-Agency/Canopy/internal/store"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatTable, FormatJSON, FormatMarkdown:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format %q (want table, json or markdown)", s)
	}
}

func money(v float64) string {
	return "$" + decimal.NewFromFloat(v).StringFixed(2)
}

func score(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(3)
}

func writeIndented(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Analysis renders the headline numbers, weights, materials and
// recommendations of a run.
func Analysis(w io.Writer, s *analysis.AnalysisState, f Format) error {
	switch f {
	case FormatJSON:
		return writeIndented(w, s)
	case FormatMarkdown:
		return analysisMarkdown(w, s)
	default:
		return analysisTable(w, s)
	}
}

func bestK(s *analysis.AnalysisState) int {
	if s.Elbow == nil {
		return 0
	}
	return s.Elbow.BestK
}

func analysisTable(w io.Writer, s *analysis.AnalysisState) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "Records\t%d of %d\n", s.FilteredCount, s.RecordCount)
	fmt.Fprintf(tw, "Brands\t%d\n", s.Stats.BrandCount)
	fmt.Fprintf(tw, "Average SIS\t%s\n", score(s.Stats.AvgSIS))
	fmt.Fprintf(tw, "Average price\t%s\n", money(s.Stats.AvgPrice))
	fmt.Fprintf(tw, "Weights\tenv %s / policy %s\n", score(s.Weights.WEnv), score(s.Weights.WPolicy))
	fmt.Fprintf(tw, "Clusters\t%d\n", bestK(s))
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "MATERIAL\tCOUNT\tAVG SIS\tAVG PRICE\tCLUSTER\tPARETO")
	for _, m := range s.Materials {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d\t%s\n", m.Material, m.Count, score(m.AvgSIS), money(m.AvgPrice), m.Cluster, mark(m.IsPareto))
	}
	fmt.Fprintln(tw)

	for _, sec := range recommendationSections(s.Recommendations) {
		fmt.Fprintln(tw, strings.ToUpper(sec.title))
		if len(sec.items) == 0 {
			fmt.Fprintln(tw, "  (none)")
		}
		for _, r := range sec.items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\tSIS %s\n", r.BrandKey(), r.MaterialType, money(r.Price()), score(r.SIS))
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "WARNINGS")
		for _, warn := range s.Warnings {
			fmt.Fprintf(tw, "  %s\t%s\n", warn.Code, warn.Message)
		}
	}
	return tw.Flush()
}

func analysisMarkdown(w io.Writer, s *analysis.AnalysisState) error {
	var b strings.Builder
	b.WriteString("## Sustainability analysis\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	fmt.Fprintf(&b, "| **Records** | %d of %d |\n", s.FilteredCount, s.RecordCount)
	fmt.Fprintf(&b, "| **Brands** | %d |\n", s.Stats.BrandCount)
	fmt.Fprintf(&b, "| **Average SIS** | %s |\n", score(s.Stats.AvgSIS))
	fmt.Fprintf(&b, "| **Average price** | %s |\n", money(s.Stats.AvgPrice))
	fmt.Fprintf(&b, "| **Environmental weight** | %s |\n", score(s.Weights.WEnv))
	fmt.Fprintf(&b, "| **Policy weight** | %s |\n", score(s.Weights.WPolicy))
	fmt.Fprintf(&b, "| **Clusters** | %d |\n", bestK(s))

	b.WriteString("\n### Materials\n\n")
	b.WriteString("| Material | Count | Avg SIS | Avg price | Cluster | Pareto |\n")
	b.WriteString("|----------|-------|---------|-----------|---------|--------|\n")
	for _, m := range s.Materials {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %d | %s |\n", m.Material, m.Count, score(m.AvgSIS), money(m.AvgPrice), m.Cluster, mark(m.IsPareto))
	}

	for _, sec := range recommendationSections(s.Recommendations) {
		fmt.Fprintf(&b, "\n### %s\n\n", sec.title)
		if len(sec.items) == 0 {
			b.WriteString("_none_\n")
			continue
		}
		for _, r := range sec.items {
			fmt.Fprintf(&b, "- **%s** (%s): %s, SIS %s\n", r.BrandKey(), r.MaterialType, money(r.Price()), score(r.SIS))
		}
	}

	if len(s.Warnings) > 0 {
		b.WriteString("\n### Warnings\n\n")
		for _, warn := range s.Warnings {
			fmt.Fprintf(&b, "- `%s`: %s\n", warn.Code, warn.Message)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type section struct {
	title string
	items []analysis.ScoredRecord
}

func recommendationSections(r analysis.Recommendations) []section {
	return []section{
		{"Max sustainability", r.MaxSustainability},
		{"Best value", r.BestValue},
		{"Balanced", r.Balanced},
	}
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

// Facets renders the filterable values of a batch.
func Facets(w io.Writer, f dataset.Facets, format Format) error {
	if format == FormatJSON {
		return writeIndented(w, f)
	}
	rows := [][2]string{
		{"Records", fmt.Sprint(f.Records)},
		{"Years", fmt.Sprintf("%d-%d", f.YearMin, f.YearMax)},
		{"Countries", strings.Join(f.Countries, ", ")},
		{"Materials", strings.Join(f.Materials, ", ")},
		{"Certifications", strings.Join(f.Certifications, ", ")},
		{"Market trends", strings.Join(f.MarketTrends, ", ")},
		{"Brands", fmt.Sprint(len(f.Brands))},
	}
	if format == FormatMarkdown {
		var b strings.Builder
		b.WriteString("| Facet | Values |\n|-------|--------|\n")
		for _, r := range rows {
			fmt.Fprintf(&b, "| **%s** | %s |\n", r[0], r[1])
		}
		_, err := io.WriteString(w, b.String())
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1])
	}
	return tw.Flush()
}

// Runs renders stored run summaries, newest first as the server returns them.
func Runs(w io.Writer, runs []*store.AnalysisRun, format Format) error {
	if format == FormatJSON {
		return writeIndented(w, runs)
	}
	if format == FormatMarkdown {
		var b strings.Builder
		b.WriteString("| Run | Created | Records | Best k | Avg SIS | Avg price |\n")
		b.WriteString("|-----|---------|---------|--------|---------|-----------|\n")
		for _, r := range runs {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %s | %s |\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"),
				r.FilteredCount, r.BestK, score(r.Stats.AvgSIS), money(r.Stats.AvgPrice))
		}
		_, err := io.WriteString(w, b.String())
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tRECORDS\tBEST K\tAVG SIS\tAVG PRICE")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04"),
			r.FilteredCount, r.BestK, score(r.Stats.AvgSIS), money(r.Stats.AvgPrice))
	}
	return tw.Flush()
}
