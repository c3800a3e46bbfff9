package analysis

import (
	"math"
	"sort"
)

// Recommendations are three rankings of the Pareto-optimal records.
// Every list is non-nil and holds at most TopN items, all with IsPareto set.
type Recommendations struct {
	MaxSustainability []ScoredRecord `json:"max_sustainability"`
	BestValue         []ScoredRecord `json:"best_value"`
	Balanced          []ScoredRecord `json:"balanced"`
}

// Recommender picks representative records from the price/SIS frontier.
type Recommender struct {
	TopN    int
	Balance BalanceWeights
}

// NewRecommender validates topN and the balance weights.
func NewRecommender(topN int, balance BalanceWeights) (*Recommender, error) {
	if topN <= 0 {
		return nil, invalid("recommend", "top_n", "must be positive, got %d", topN)
	}
	if err := balance.Validate(); err != nil {
		return nil, err
	}
	return &Recommender{TopN: topN, Balance: balance}, nil
}

// BuildRecommendations ranks the frontier of scored with equal balance weights.
func BuildRecommendations(scored []ScoredRecord, topN int) (Recommendations, error) {
	r, err := NewRecommender(topN, DefaultBalance())
	if err != nil {
		return Recommendations{}, err
	}
	return r.Build(scored), nil
}

// Build flags the frontier of scored and ranks it three ways:
// by SIS descending, by price ascending, and by weighted distance to the
// ideal (cheapest, most sustainable) corner. Ties keep input order.
func (r *Recommender) Build(scored []ScoredRecord) Recommendations {
	return r.fromFlags(scored, ComputeParetoFlags(recordPoints(scored)))
}

func (r *Recommender) fromFlags(scored []ScoredRecord, flags []bool) Recommendations {
	frontier := make([]int, 0)
	for i, ok := range flags {
		if ok {
			frontier = append(frontier, i)
		}
	}

	bySIS := append([]int(nil), frontier...)
	sort.SliceStable(bySIS, func(a, b int) bool {
		sa, sb := &scored[bySIS[a]], &scored[bySIS[b]]
		if sa.SIS != sb.SIS {
			return sa.SIS > sb.SIS
		}
		return sa.Price() < sb.Price()
	})

	byPrice := append([]int(nil), frontier...)
	sort.SliceStable(byPrice, func(a, b int) bool {
		sa, sb := &scored[byPrice[a]], &scored[byPrice[b]]
		if sa.Price() != sb.Price() {
			return sa.Price() < sb.Price()
		}
		return sa.SIS > sb.SIS
	})

	dist := r.idealDistances(scored)
	balanced := append([]int(nil), frontier...)
	sort.SliceStable(balanced, func(a, b int) bool {
		return dist[balanced[a]] < dist[balanced[b]]
	})

	return Recommendations{
		MaxSustainability: r.take(scored, bySIS),
		BestValue:         r.take(scored, byPrice),
		Balanced:          r.take(scored, balanced),
	}
}

// idealDistances returns, per record, the weighted Euclidean distance to
// (min price, max SIS) with both axes rescaled to [0,1] over the whole batch.
func (r *Recommender) idealDistances(scored []ScoredRecord) []float64 {
	minP, maxP := math.Inf(1), math.Inf(-1)
	minS, maxS := math.Inf(1), math.Inf(-1)
	for i := range scored {
		p, s := scored[i].Price(), scored[i].SIS
		minP, maxP = math.Min(minP, p), math.Max(maxP, p)
		minS, maxS = math.Min(minS, s), math.Max(maxS, s)
	}

	out := make([]float64, len(scored))
	for i := range scored {
		pn := scale(scored[i].Price(), minP, maxP)
		sn := scale(scored[i].SIS, minS, maxS)
		d := math.Sqrt(r.Balance.Price*pn*pn + r.Balance.Sustainability*(1-sn)*(1-sn))
		if !isFinite(d) {
			d = math.Inf(1)
		}
		out[i] = d
	}
	return out
}

func scale(v, lo, hi float64) float64 {
	if hi <= lo || !isFinite(hi-lo) {
		return 0
	}
	return clamp01((v - lo) / (hi - lo))
}

func (r *Recommender) take(scored []ScoredRecord, order []int) []ScoredRecord {
	if len(order) > r.TopN {
		order = order[:r.TopN]
	}
	out := make([]ScoredRecord, len(order))
	for i, idx := range order {
		out[i] = scored[idx]
		out[i].IsPareto = true
	}
	return out
}
