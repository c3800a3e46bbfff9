package analysis

import "github.com/MikeSquared-Agency/Canopy/internal/dataset"

// IndicatorColumns names the raw columns feeding each sub-score.
// Environmental columns are burdens (lower is better); policy columns are
// benefits (higher is better).
type IndicatorColumns struct {
	Environmental []string `json:"environmental" yaml:"environmental"`
	Policy        []string `json:"policy" yaml:"policy"`
}

// DefaultIndicators returns the column set used by the fashion sustainability dataset.
func DefaultIndicators() IndicatorColumns {
	return IndicatorColumns{
		Environmental: []string{
			dataset.ColCarbonFootprintMT,
			dataset.ColWaterUsageLiters,
			dataset.ColWasteProductionKG,
		},
		Policy: []string{
			dataset.ColSustainabilityRating,
			dataset.ColRecyclingPrograms,
		},
	}
}

// Validate requires both groups to be non-empty and every column to be numeric.
func (c IndicatorColumns) Validate() error {
	if len(c.Environmental) == 0 {
		return invalid("indicators", "environmental", "at least one column is required")
	}
	if len(c.Policy) == 0 {
		return invalid("indicators", "policy", "at least one column is required")
	}
	for _, col := range c.All() {
		if !dataset.IsNumericColumn(col) {
			return invalid("indicators", col, "not a numeric column")
		}
	}
	return nil
}

// All returns the environmental then policy columns, without duplicates.
func (c IndicatorColumns) All() []string {
	seen := make(map[string]bool, len(c.Environmental)+len(c.Policy))
	out := make([]string, 0, len(c.Environmental)+len(c.Policy))
	for _, group := range [][]string{c.Environmental, c.Policy} {
		for _, col := range group {
			if !seen[col] {
				seen[col] = true
				out = append(out, col)
			}
		}
	}
	return out
}
