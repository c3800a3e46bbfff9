package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// IndicatorGroup is a rows × columns matrix of normalized values for one
// group of indicators. Rows[i][j] belongs to Columns[j].
type IndicatorGroup struct {
	Columns []string
	Rows    [][]float64
}

// NormalizedGroups pairs the environmental and policy groups of one batch.
// Environmental values must already be oriented so that higher is better.
type NormalizedGroups struct {
	Env    IndicatorGroup
	Policy IndicatorGroup
}

// ComputeEntropyWeights applies the entropy weight method within each group
// to derive per-record sub-scores, then weighs the two groups against each
// other by their diversity (1 - mean entropy). Degenerate input falls back
// to equal weights; NaN never reaches the result.
func ComputeEntropyWeights(groups NormalizedGroups) EntropyWeights {
	w, _ := computeEntropyWeights(groups)
	return w
}

// computeEntropyWeights also reports whether the group weights fell back to 0.5/0.5.
func computeEntropyWeights(groups NormalizedGroups) (EntropyWeights, bool) {
	envCols, envScores, envEntropy := weighGroup(groups.Env)
	polCols, polScores, polEntropy := weighGroup(groups.Policy)

	w := EntropyWeights{
		EnvEntropy:    envEntropy,
		PolicyEntropy: polEntropy,
		EnvColumns:    envCols,
		PolicyColumns: polCols,
		EnvScores:     envScores,
		PolicyScores:  polScores,
	}

	dEnv, dPol := 1-envEntropy, 1-polEntropy
	total := dEnv + dPol
	if total <= 0 || !isFinite(total) {
		w.WEnv, w.WPolicy = 0.5, 0.5
		return w, true
	}
	w.WEnv = dEnv / total
	w.WPolicy = 1 - w.WEnv
	return w, false
}

// weighGroup returns the column weights, the per-row weighted scores and the
// mean column entropy of g.
func weighGroup(g IndicatorGroup) ([]ColumnWeight, []float64, float64) {
	n, m := len(g.Rows), len(g.Columns)
	scores := make([]float64, n)
	if m == 0 {
		return []ColumnWeight{}, scores, 1
	}

	cells := make([][]float64, m)
	entropies := make([]float64, m)
	for j := 0; j < m; j++ {
		col := make([]float64, n)
		for i, row := range g.Rows {
			if j < len(row) {
				col[i] = nonNegative(row[j])
			}
		}
		cells[j] = col
		entropies[j] = columnEntropy(col)
	}

	diversity := make([]float64, m)
	for j, e := range entropies {
		diversity[j] = 1 - e
	}
	weights := make([]float64, m)
	if total := floats.Sum(diversity); total > 0 {
		floats.ScaleTo(weights, 1/total, diversity)
	} else {
		for j := range weights {
			weights[j] = 1 / float64(m)
		}
	}

	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < m; j++ {
			s += weights[j] * cells[j][i]
		}
		scores[i] = clamp01(s)
	}

	cols := make([]ColumnWeight, m)
	for j := range cols {
		cols[j] = ColumnWeight{Column: g.Columns[j], Entropy: entropies[j], Weight: weights[j]}
	}
	return cols, scores, stat.Mean(entropies, nil)
}

// columnEntropy is e = -1/ln(n) * Σ p ln p with p = x/Σx, clipped to [0,1].
// A column with one row, a zero sum or a single repeated value carries no
// information and scores exactly 1.
func columnEntropy(col []float64) float64 {
	n := len(col)
	if n <= 1 || floats.Max(col) == floats.Min(col) {
		return 1
	}
	sum := floats.Sum(col)
	if sum <= 0 {
		return 1
	}
	var e float64
	for _, x := range col {
		if x > 0 {
			p := x / sum
			e -= p * math.Log(p)
		}
	}
	e /= math.Log(float64(n))
	if !isFinite(e) {
		return 1
	}
	return clamp01(e)
}

func nonNegative(v float64) float64 {
	if !isFinite(v) || v < 0 {
		return 0
	}
	return v
}
