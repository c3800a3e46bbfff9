package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// ScoredRecord is a NormalizedRecord with its sub-scores and composite SIS.
type ScoredRecord struct {
	NormalizedRecord
	EnvScore    float64 `json:"env_score"`
	PolicyScore float64 `json:"policy_score"`
	SIS         float64 `json:"sis"`
	IsPareto    bool    `json:"is_pareto"`
}

// ColumnQuality summarizes the spread of one raw indicator column.
type ColumnQuality struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	CV       float64 `json:"cv"`
}

// Stats holds batch-level means and variances. Variances are population variances.
type Stats struct {
	RecordCount int                      `json:"record_count"`
	BrandCount  int                      `json:"brand_count"`
	AvgSIS      float64                  `json:"avg_sis"`
	AvgPrice    float64                  `json:"avg_price"`
	AvgCarbon   float64                  `json:"avg_carbon"`
	AvgWater    float64                  `json:"avg_water"`
	AvgWaste    float64                  `json:"avg_waste"`
	VarSIS      float64                  `json:"var_sis"`
	VarPrice    float64                  `json:"var_price"`
	DataQuality map[string]ColumnQuality `json:"data_quality"`
}

// SISResult is the output of ComputeSIS.
type SISResult struct {
	Scored    []ScoredRecord      `json:"scored"`
	Weights   EntropyWeights      `json:"weights"`
	Stats     Stats               `json:"stats"`
	Materials []MaterialAggregate `json:"materials"`
	Warnings  []Warning           `json:"warnings"`
}

// ComputeSIS normalizes the indicator columns, derives entropy weights and
// scores every record as SIS = wEnv*envScore + wPolicy*policyScore.
// Environmental columns are inverted after normalization so that a lower
// footprint scores higher. Only invalid columns produce an error; an empty
// batch yields empty outputs and a warning.
func ComputeSIS(records []dataset.Record, cols IndicatorColumns) (*SISResult, error) {
	if err := cols.Validate(); err != nil {
		return nil, err
	}

	normalized, flat := normalize(records, cols.All())
	groups := NormalizedGroups{
		Env:    IndicatorGroup{Columns: cols.Environmental, Rows: make([][]float64, len(normalized))},
		Policy: IndicatorGroup{Columns: cols.Policy, Rows: make([][]float64, len(normalized))},
	}
	for i, nr := range normalized {
		env := make([]float64, len(cols.Environmental))
		for j, c := range cols.Environmental {
			env[j] = 1 - nr.Normalized[c]
		}
		pol := make([]float64, len(cols.Policy))
		for j, c := range cols.Policy {
			pol[j] = nr.Normalized[c]
		}
		groups.Env.Rows[i] = env
		groups.Policy.Rows[i] = pol
	}

	weights, fellBack := computeEntropyWeights(groups)

	scored := make([]ScoredRecord, len(normalized))
	for i, nr := range normalized {
		env, pol := weights.EnvScores[i], weights.PolicyScores[i]
		scored[i] = ScoredRecord{
			NormalizedRecord: nr,
			EnvScore:         env,
			PolicyScore:      pol,
			SIS:              clamp01(weights.WEnv*env + weights.WPolicy*pol),
		}
	}

	res := &SISResult{
		Scored:    scored,
		Weights:   weights,
		Stats:     computeStats(scored, cols),
		Materials: AggregateMaterials(scored, cols),
		Warnings:  []Warning{},
	}
	if len(records) == 0 {
		res.Warnings = append(res.Warnings, warnf(WarnEmptyBatch, "no records to analyze"))
		return res, nil
	}
	for _, c := range flat {
		res.Warnings = append(res.Warnings, warnf(WarnZeroVarianceColumn,
			"column %s has a single value; normalized to %.1f", c, DegenerateValue))
	}
	if fellBack {
		res.Warnings = append(res.Warnings, warnf(WarnEqualEntropyWeights,
			"indicator groups carry no information; using equal weights"))
	}
	return res, nil
}

func computeStats(scored []ScoredRecord, cols IndicatorColumns) Stats {
	s := Stats{
		RecordCount: len(scored),
		DataQuality: make(map[string]ColumnQuality, len(cols.Environmental)),
	}

	brands := make(map[string]bool)
	for i := range scored {
		if k := scored[i].BrandKey(); k != "" {
			brands[k] = true
		}
	}
	s.BrandCount = len(brands)

	sis := make([]float64, len(scored))
	for i := range scored {
		sis[i] = scored[i].SIS
	}
	s.AvgSIS, s.VarSIS = meanVariance(sis)
	s.AvgPrice, s.VarPrice = meanVariance(columnValues(scored, dataset.ColAveragePriceUSD))
	s.AvgCarbon, _ = meanVariance(columnValues(scored, dataset.ColCarbonFootprintMT))
	s.AvgWater, _ = meanVariance(columnValues(scored, dataset.ColWaterUsageLiters))
	s.AvgWaste, _ = meanVariance(columnValues(scored, dataset.ColWasteProductionKG))

	for _, c := range cols.Environmental {
		s.DataQuality[c] = columnQuality(columnValues(scored, c))
	}
	return s
}

// columnValues returns the finite values of column across scored.
func columnValues(scored []ScoredRecord, column string) []float64 {
	out := make([]float64, 0, len(scored))
	for i := range scored {
		if v, ok := scored[i].Value(column); ok && isFinite(v) {
			out = append(out, v)
		}
	}
	return out
}

func columnQuality(x []float64) ColumnQuality {
	if len(x) == 0 {
		return ColumnQuality{}
	}
	q := ColumnQuality{Min: floats.Min(x), Max: floats.Max(x)}
	q.Mean, q.Variance = meanVariance(x)
	if q.Mean != 0 {
		q.CV = math.Sqrt(q.Variance) / q.Mean
	}
	return q
}

// meanVariance returns the mean and population variance of x, 0 for empty input.
func meanVariance(x []float64) (mean, variance float64) {
	if len(x) == 0 {
		return 0, 0
	}
	mean, variance = stat.PopMeanVariance(x, nil)
	if !isFinite(mean) {
		mean = 0
	}
	if !isFinite(variance) || variance < 0 {
		variance = 0
	}
	return mean, variance
}
