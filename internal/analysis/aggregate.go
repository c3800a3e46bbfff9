package analysis

import (
	"sort"

	"github.com/MikeSquared-Agency/Canopy/internal/dataset"
)

// Unclustered marks a MaterialAggregate that has not been assigned a cluster.
const Unclustered = -1

// MaterialAggregate summarizes all scored records sharing a Material_Type.
type MaterialAggregate struct {
	Material string `json:"material"`
	Count    int    `json:"count"`
	// Means holds the arithmetic mean of every numeric column.
	Means map[string]float64 `json:"means"`
	// Features is the mean normalized value of each indicator column, in
	// IndicatorColumns.All order. It is the vector clustered by K-Means.
	Features       []float64 `json:"features"`
	AvgEnvScore    float64   `json:"avg_env_score"`
	AvgPolicyScore float64   `json:"avg_policy_score"`
	AvgSIS         float64   `json:"avg_sis"`
	AvgPrice       float64   `json:"avg_price"`
	Cluster        int       `json:"cluster"`
	IsPareto       bool      `json:"is_pareto"`
}

// BrandAggregate summarizes the records of one brand.
type BrandAggregate struct {
	Brand    string  `json:"brand"`
	Count    int     `json:"count"`
	AvgPrice float64 `json:"avg_price"`
	AvgSIS   float64 `json:"avg_sis"`
	IsPareto bool    `json:"is_pareto"`
}

// AggregateMaterials groups scored records by material, sorted by material name.
func AggregateMaterials(scored []ScoredRecord, cols IndicatorColumns) []MaterialAggregate {
	numeric := dataset.NumericColumns()
	features := cols.All()

	groups := make(map[string][]int)
	for i := range scored {
		m := scored[i].MaterialType
		groups[m] = append(groups[m], i)
	}

	out := make([]MaterialAggregate, 0, len(groups))
	for material, idx := range groups {
		n := float64(len(idx))
		agg := MaterialAggregate{
			Material: material,
			Count:    len(idx),
			Means:    make(map[string]float64, len(numeric)),
			Features: make([]float64, len(features)),
			Cluster:  Unclustered,
		}
		for _, i := range idx {
			r := &scored[i]
			for _, c := range numeric {
				if v, ok := r.Value(c); ok && isFinite(v) {
					agg.Means[c] += v
				}
			}
			for j, c := range features {
				agg.Features[j] += r.Normalized[c]
			}
			agg.AvgEnvScore += r.EnvScore
			agg.AvgPolicyScore += r.PolicyScore
			agg.AvgSIS += r.SIS
		}
		for c := range agg.Means {
			agg.Means[c] /= n
		}
		for j := range agg.Features {
			agg.Features[j] /= n
		}
		agg.AvgEnvScore /= n
		agg.AvgPolicyScore /= n
		agg.AvgSIS /= n
		agg.AvgPrice = agg.Means[dataset.ColAveragePriceUSD]
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Material < out[j].Material })
	return out
}

// AggregateBrands groups scored records by BrandKey, sorted by brand.
// Records without a brand are skipped.
func AggregateBrands(scored []ScoredRecord) []BrandAggregate {
	groups := make(map[string][]int)
	for i := range scored {
		if k := scored[i].BrandKey(); k != "" {
			groups[k] = append(groups[k], i)
		}
	}

	out := make([]BrandAggregate, 0, len(groups))
	for brand, idx := range groups {
		n := float64(len(idx))
		b := BrandAggregate{Brand: brand, Count: len(idx)}
		for _, i := range idx {
			b.AvgPrice += scored[i].Price()
			b.AvgSIS += scored[i].SIS
		}
		b.AvgPrice /= n
		b.AvgSIS /= n
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Brand < out[j].Brand })
	return out
}
