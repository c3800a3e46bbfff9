package analysis

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// KMeansParams configures a single K-Means run.
type KMeansParams struct {
	K             int   `json:"k"`
	MaxIterations int   `json:"max_iterations"`
	Seed          int64 `json:"seed"`
}

// KMeansResult is the outcome of RunKMeans. Assignments[i] is the index of
// the centroid closest to vector i.
type KMeansResult struct {
	K           int         `json:"k"`
	Centroids   [][]float64 `json:"centroids"`
	Assignments []int       `json:"assignments"`
	Inertia     float64     `json:"inertia"`
	Iterations  int         `json:"iterations"`
	Converged   bool        `json:"converged"`
	Clamped     bool        `json:"clamped"`
}

func (p KMeansParams) validate(op string) error {
	if p.K <= 0 {
		return invalid(op, "k", "must be positive, got %d", p.K)
	}
	if p.MaxIterations < 1 {
		return invalid(op, "max_iterations", "must be at least 1, got %d", p.MaxIterations)
	}
	return nil
}

// RunKMeans partitions vectors into K clusters with Lloyd's algorithm,
// seeded by k-means++ from a PRNG built on p.Seed. The same vectors and
// params always produce the same result. K larger than the number of
// vectors is clamped. A cluster that loses all its members keeps its
// previous centroid. Reaching MaxIterations is not an error.
func RunKMeans(vectors [][]float64, p KMeansParams) (*KMeansResult, error) {
	if err := p.validate("kmeans"); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return &KMeansResult{
			Centroids:   [][]float64{},
			Assignments: []int{},
			Converged:   true,
			Clamped:     true,
		}, nil
	}
	data, err := toDense("kmeans", vectors)
	if err != nil {
		return nil, err
	}

	n, _ := data.Dims()
	k := p.K
	clamped := k > n
	if clamped {
		k = n
	}

	rng := rand.New(rand.NewSource(p.Seed))
	centroids := seedCentroids(data, k, rng)
	res, _ := lloyd(data, centroids, p.MaxIterations)
	res.Clamped = clamped
	return res, nil
}

// toDense copies vectors into an n×d matrix, rejecting ragged or empty rows.
func toDense(op string, vectors [][]float64) (*mat.Dense, error) {
	d := len(vectors[0])
	if d == 0 {
		return nil, invalid(op, "vectors", "feature vectors have zero dimensions")
	}
	data := mat.NewDense(len(vectors), d, nil)
	for i, v := range vectors {
		if len(v) != d {
			return nil, invalid(op, "vectors", "vector %d has %d dimensions, want %d", i, len(v), d)
		}
		for j, x := range v {
			if !isFinite(x) {
				return nil, invalid(op, "vectors", "vector %d has a non-finite value at %d", i, j)
			}
		}
		data.SetRow(i, v)
	}
	return data, nil
}

// seedCentroids picks k initial centroids with k-means++.
func seedCentroids(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))
	for c := 1; c < k; c++ {
		centroids.SetRow(c, data.RawRowView(nextSeed(data, centroids, c, rng)))
	}
	return centroids
}

// addCentroid returns prev grown by one k-means++ pick.
func addCentroid(data, prev *mat.Dense, rng *rand.Rand) *mat.Dense {
	k, d := prev.Dims()
	grown := mat.NewDense(k+1, d, nil)
	for c := 0; c < k; c++ {
		grown.SetRow(c, prev.RawRowView(c))
	}
	grown.SetRow(k, data.RawRowView(nextSeed(data, grown, k, rng)))
	return grown
}

// nextSeed samples a data row with probability proportional to its squared
// distance from the nearest of the first c centroids. Rows already covered
// by a centroid are never picked unless every row is.
func nextSeed(data, centroids *mat.Dense, c int, rng *rand.Rand) int {
	n, _ := data.Dims()
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		_, weights[i] = nearest(data.RawRowView(i), centroids, c)
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return rng.Intn(n)
	}

	target := rng.Float64() * total
	var cum float64
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		cum += w
		last = i
		if cum >= target {
			return i
		}
	}
	return last
}

// nearest returns the index of the closest of the first c centroids and
// the squared distance to it. Ties go to the lower index.
func nearest(point []float64, centroids *mat.Dense, c int) (int, float64) {
	best, bestDist := 0, math.Inf(1)
	for j := 0; j < c; j++ {
		dist := floats.Distance(point, centroids.RawRowView(j), 2)
		if d2 := dist * dist; d2 < bestDist {
			best, bestDist = j, d2
		}
	}
	return best, bestDist
}

func assign(data, centroids *mat.Dense) []int {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	out := make([]int, n)
	for i := 0; i < n; i++ {
		out[i], _ = nearest(data.RawRowView(i), centroids, k)
	}
	return out
}

// updateCentroids moves each centroid to the mean of its members in place.
func updateCentroids(data, centroids *mat.Dense, assignments []int) {
	k, d := centroids.Dims()
	sums := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, c := range assignments {
		floats.Add(sums.RawRowView(c), data.RawRowView(i))
		counts[c]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		row := sums.RawRowView(c)
		floats.Scale(1/float64(counts[c]), row)
		centroids.SetRow(c, row)
	}
}

// lloyd refines centroids in place until assignments stop changing or
// maxIterations updates have run. Assignments always point at the nearest
// current centroid, so inertia never increases across iterations.
func lloyd(data, centroids *mat.Dense, maxIterations int) (*KMeansResult, *mat.Dense) {
	assignments := assign(data, centroids)
	res := &KMeansResult{}
	for res.Iterations < maxIterations {
		res.Iterations++
		updateCentroids(data, centroids, assignments)
		next := assign(data, centroids)
		if equalInts(assignments, next) {
			res.Converged = true
			break
		}
		assignments = next
	}

	k, _ := centroids.Dims()
	res.K = k
	res.Assignments = assignments
	res.Centroids = make([][]float64, k)
	for c := 0; c < k; c++ {
		res.Centroids[c] = mat.Row(nil, c, centroids)
	}
	for i, c := range assignments {
		dist := floats.Distance(data.RawRowView(i), centroids.RawRowView(c), 2)
		res.Inertia += dist * dist
	}
	return res, centroids
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
