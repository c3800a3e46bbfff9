package analysis

import (
	"math"
	"sort"
)

// ParetoPoint is one entity scored on price (lower is better) and SIS
// (higher is better).
type ParetoPoint struct {
	Price float64 `json:"price"`
	SIS   float64 `json:"sis"`
}

// ComputeParetoFlags marks the non-dominated points, in input order.
// A point is dominated when another point has price <= and SIS >= with at
// least one strict inequality. Identical points do not dominate each other,
// so duplicates of a frontier point are all flagged. Points with a
// non-finite coordinate are never on the frontier. Runs in O(n log n).
func ComputeParetoFlags(points []ParetoPoint) []bool {
	flags := make([]bool, len(points))
	order := make([]int, 0, len(points))
	for i, p := range points {
		if isFinite(p.Price) && isFinite(p.SIS) {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := points[order[a]], points[order[b]]
		if pa.Price != pb.Price {
			return pa.Price < pb.Price
		}
		return pa.SIS > pb.SIS
	})

	// Sweep price groups cheapest first. Only the top of a group can be on
	// the frontier, and only if it beats every cheaper point.
	best := math.Inf(-1)
	for g := 0; g < len(order); {
		top := points[order[g]]
		h := g + 1
		for h < len(order) && points[order[h]].Price == top.Price {
			h++
		}
		if top.SIS > best {
			for i := g; i < h && points[order[i]].SIS == top.SIS; i++ {
				flags[order[i]] = true
			}
			best = top.SIS
		}
		g = h
	}
	return flags
}

// Dominates reports whether a dominates b: no more expensive, no less
// sustainable, and strictly better on at least one of the two.
func Dominates(a, b ParetoPoint) bool {
	if a.Price > b.Price || a.SIS < b.SIS {
		return false
	}
	return a.Price < b.Price || a.SIS > b.SIS
}

func recordPoints(scored []ScoredRecord) []ParetoPoint {
	out := make([]ParetoPoint, len(scored))
	for i := range scored {
		out[i] = ParetoPoint{Price: scored[i].Price(), SIS: scored[i].SIS}
	}
	return out
}

func materialPoints(materials []MaterialAggregate) []ParetoPoint {
	out := make([]ParetoPoint, len(materials))
	for i, m := range materials {
		out[i] = ParetoPoint{Price: m.AvgPrice, SIS: m.AvgSIS}
	}
	return out
}

func brandPoints(brands []BrandAggregate) []ParetoPoint {
	out := make([]ParetoPoint, len(brands))
	for i, b := range brands {
		out[i] = ParetoPoint{Price: b.AvgPrice, SIS: b.AvgSIS}
	}
	return out
}
