package analysis

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

var twoBlobs = [][]float64{
	{0, 0}, {0.1, 0.2}, {0.2, 0.1},
	{5, 5}, {5.1, 4.9}, {4.8, 5.2},
}

func TestRunKMeansDeterministic(t *testing.T) {
	p := KMeansParams{K: 2, MaxIterations: 50, Seed: 42}
	a, err := RunKMeans(twoBlobs, p)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunKMeans(twoBlobs, p)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed produced different results (-first +second):\n%s", diff)
	}
}

func TestRunKMeansSeparatesBlobs(t *testing.T) {
	res, err := RunKMeans(twoBlobs, KMeansParams{K: 2, MaxIterations: 50, Seed: 1})
	if err != nil {
		t.Fatal(err)
	}
	a := res.Assignments
	if a[0] != a[1] || a[1] != a[2] || a[3] != a[4] || a[4] != a[5] || a[0] == a[3] {
		t.Errorf("blobs not separated: %v", a)
	}
	if !res.Converged {
		t.Error("expected convergence")
	}
	if res.Inertia <= 0 || res.Inertia > 0.5 {
		t.Errorf("unexpected inertia %f", res.Inertia)
	}
	if len(res.Centroids) != 2 || len(res.Centroids[0]) != 2 {
		t.Errorf("unexpected centroid shape %v", res.Centroids)
	}
}

func TestRunKMeansZeroInertiaAtDistinctCount(t *testing.T) {
	vectors := [][]float64{{0, 0}, {0, 0}, {5, 5}, {10, 0}, {10, 0}}
	res, err := RunKMeans(vectors, KMeansParams{K: 3, MaxIterations: 10, Seed: 3})
	if err != nil {
		t.Fatal(err)
	}
	if res.Inertia != 0 {
		t.Errorf("expected inertia 0 with one cluster per distinct point, got %f", res.Inertia)
	}
}

func TestRunKMeansClampsK(t *testing.T) {
	vectors := [][]float64{{1}, {2}, {3}}
	res, err := RunKMeans(vectors, KMeansParams{K: 10, MaxIterations: 10, Seed: 42})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Clamped || res.K != 3 {
		t.Errorf("expected k clamped to 3, got k=%d clamped=%v", res.K, res.Clamped)
	}
	if res.Inertia != 0 {
		t.Errorf("expected inertia 0, got %f", res.Inertia)
	}
}

func TestRunKMeansEmpty(t *testing.T) {
	res, err := RunKMeans(nil, KMeansParams{K: 3, MaxIterations: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Assignments) != 0 || len(res.Centroids) != 0 || res.Inertia != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRunKMeansInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		vectors [][]float64
		params  KMeansParams
		field   string
	}{
		{"k zero", twoBlobs, KMeansParams{K: 0, MaxIterations: 10}, "k"},
		{"k negative", twoBlobs, KMeansParams{K: -2, MaxIterations: 10}, "k"},
		{"no iterations", twoBlobs, KMeansParams{K: 2}, "max_iterations"},
		{"ragged", [][]float64{{1, 2}, {3}}, KMeansParams{K: 1, MaxIterations: 10}, "vectors"},
		{"zero dimensions", [][]float64{{}, {}}, KMeansParams{K: 1, MaxIterations: 10}, "vectors"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunKMeans(tt.vectors, tt.params)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var ie *InputError
			if !errors.As(err, &ie) || ie.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestRunKMeansMaxIterationsIsNotAnError(t *testing.T) {
	vectors := [][]float64{{0}, {1}, {2}, {3}, {10}, {11}, {12}, {13}, {30}}
	res, err := RunKMeans(vectors, KMeansParams{K: 3, MaxIterations: 1, Seed: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", res.Iterations)
	}
	if len(res.Assignments) != len(vectors) {
		t.Errorf("expected %d assignments, got %d", len(vectors), len(res.Assignments))
	}
}

func TestUpdateCentroidsKeepsEmptyCluster(t *testing.T) {
	data := mat.NewDense(2, 1, []float64{1, 3})
	centroids := mat.NewDense(2, 1, []float64{0, 100})
	updateCentroids(data, centroids, []int{0, 0})
	if got := centroids.At(0, 0); got != 2 {
		t.Errorf("expected centroid 0 at mean 2, got %f", got)
	}
	if got := centroids.At(1, 0); got != 100 {
		t.Errorf("empty cluster should keep its centroid, got %f", got)
	}
}
