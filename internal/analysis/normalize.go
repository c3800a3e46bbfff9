package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// DegenerateValue is assigned to every record when a column has zero range.
const DegenerateValue = 0.5

// NormalizedRecord is a Record plus one min-max scaled value per indicator column.
type NormalizedRecord struct {
	dataset.Record
	Normalized map[string]float64 `json:"normalized"`
}

// Normalize min-max scales each column over the batch into [0,1].
//
// Non-finite values and unknown columns count as missing: they are left out
// of the min/max and normalize to 0. A column whose valid values are all
// equal normalizes to DegenerateValue. An empty batch yields an empty slice.
func Normalize(records []dataset.Record, columns []string) []NormalizedRecord {
	out, _ := normalize(records, columns)
	return out
}

// normalize also returns the columns that had zero range.
func normalize(records []dataset.Record, columns []string) ([]NormalizedRecord, []string) {
	out := make([]NormalizedRecord, len(records))
	for i := range records {
		out[i] = NormalizedRecord{
			Record:     records[i],
			Normalized: make(map[string]float64, len(columns)),
		}
	}

	var flat []string
	vals := make([]float64, len(records))
	ok := make([]bool, len(records))
	for _, col := range columns {
		valid := make([]float64, 0, len(records))
		for i := range records {
			v, known := records[i].Value(col)
			ok[i] = known && isFinite(v)
			vals[i] = v
			if ok[i] {
				valid = append(valid, v)
			}
		}

		if len(valid) == 0 {
			for i := range out {
				out[i].Normalized[col] = 0
			}
			continue
		}

		lo, hi := floats.Min(valid), floats.Max(valid)
		span := hi - lo
		if span == 0 {
			flat = append(flat, col)
		}
		for i := range out {
			switch {
			case !ok[i]:
				out[i].Normalized[col] = 0
			case span == 0:
				out[i].Normalized[col] = DegenerateValue
			default:
				out[i].Normalized[col] = clamp01((vals[i] - lo) / span)
			}
		}
	}
	return out, flat
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// clamp01 bounds v to [0,1]; NaN becomes 0.
func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
