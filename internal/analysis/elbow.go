package analysis

import "math/rand"

// ElbowPoint is the inertia reached with K clusters.
type ElbowPoint struct {
	K       int     `json:"k"`
	Inertia float64 `json:"inertia"`
}

// ElbowResult holds the inertia curve over k = 1..maxK and the chosen k.
// Best is the clustering that produced Curve[BestK-1].
type ElbowResult struct {
	BestK int           `json:"best_k"`
	Curve []ElbowPoint  `json:"curve"`
	Best  *KMeansResult `json:"-"`
}

// ChooseKByElbow runs K-Means for k = 1..maxK (clamped to the number of
// vectors) and picks the elbow of the inertia curve.
//
// Each k starts from the final centroids of k-1 plus one k-means++ pick, so
// the curve is non-increasing. The elbow is the k with the largest second
// difference of inertia; when the curve has no bend it falls back to the k
// right after the largest drop, and to 1 when inertia never drops.
func ChooseKByElbow(vectors [][]float64, maxK, maxIterations int, seed int64) (*ElbowResult, error) {
	p := KMeansParams{K: maxK, MaxIterations: maxIterations, Seed: seed}
	if err := p.validate("elbow"); err != nil {
		return nil, err
	}
	if len(vectors) < 2 {
		best, err := RunKMeans(vectors, KMeansParams{K: 1, MaxIterations: maxIterations, Seed: seed})
		if err != nil {
			return nil, err
		}
		return &ElbowResult{BestK: 1, Curve: []ElbowPoint{{K: 1, Inertia: best.Inertia}}, Best: best}, nil
	}
	data, err := toDense("elbow", vectors)
	if err != nil {
		return nil, err
	}

	n, _ := data.Dims()
	top := maxK
	if top > n {
		top = n
	}

	rng := rand.New(rand.NewSource(seed))
	curve := make([]ElbowPoint, 0, top)
	results := make([]*KMeansResult, 0, top)
	res, centroids := lloyd(data, seedCentroids(data, 1, rng), maxIterations)
	curve = append(curve, ElbowPoint{K: 1, Inertia: res.Inertia})
	results = append(results, res)
	for k := 2; k <= top; k++ {
		res, centroids = lloyd(data, addCentroid(data, centroids, rng), maxIterations)
		// Floating noise in the mean update must not break monotonicity.
		if prev := curve[len(curve)-1].Inertia; res.Inertia > prev {
			res.Inertia = prev
		}
		curve = append(curve, ElbowPoint{K: k, Inertia: res.Inertia})
		results = append(results, res)
	}

	bestK := elbowK(curve)
	return &ElbowResult{BestK: bestK, Curve: curve, Best: results[bestK-1]}, nil
}

func elbowK(curve []ElbowPoint) int {
	if len(curve) < 2 {
		return 1
	}
	eps := 1e-9 * (1 + curve[0].Inertia)

	best, bestBend := 0, eps
	for i := 1; i < len(curve)-1; i++ {
		bend := (curve[i-1].Inertia - curve[i].Inertia) - (curve[i].Inertia - curve[i+1].Inertia)
		if bend > bestBend {
			best, bestBend = curve[i].K, bend
		}
	}
	if best != 0 {
		return best
	}

	best, bestDrop := 1, eps
	for i := 1; i < len(curve); i++ {
		if drop := curve[i-1].Inertia - curve[i].Inertia; drop > bestDrop {
			best, bestDrop = curve[i].K, drop
		}
	}
	return best
}
