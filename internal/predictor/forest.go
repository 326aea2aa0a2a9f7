package predictor

import (
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Forest averages trees grown on bootstrap samples of the rows
type Forest struct {
	NumTrees        int       `json:"num_trees"`
	MaxDepth        int       `json:"max_depth"`
	MinSamplesSplit int       `json:"min_samples_split"`
	MinSamplesLeaf  int       `json:"min_samples_leaf"`
	Seed            int64     `json:"seed"`
	Trees           []*Tree   `json:"trees"`
	Importances     []float64 `json:"importances"`
}

// NewForest creates an unfitted forest
func NewForest(numTrees, maxDepth, minSamplesSplit, minSamplesLeaf int, seed int64) *Forest {
	return &Forest{
		NumTrees:        numTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MinSamplesLeaf:  minSamplesLeaf,
		Seed:            seed,
	}
}

// Fit draws every bootstrap sample up front from the seeded source and then
// grows the trees in parallel, so the result does not depend on scheduling.
func (f *Forest) Fit(x mat.Matrix, y []float64) error {
	n, p, err := checkShape(x, y)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(f.Seed))
	samples := make([][]int, max(f.NumTrees, 1))
	for t := range samples {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		samples[t] = sample
	}

	cols := columnsOf(x)
	trees := make([]*Tree, len(samples))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := range trees {
		t := t
		g.Go(func() error {
			tree := NewTree(f.MaxDepth, f.MinSamplesSplit, f.MinSamplesLeaf)
			tree.fit(cols, y, samples[t])
			trees[t] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	importances := make([]float64, p)
	for _, tree := range trees {
		for j, v := range tree.Importances {
			importances[j] += v
		}
	}

	f.Trees = trees
	f.Importances = normalize(importances)
	return nil
}

// Predict averages the trees
func (f *Forest) Predict(x mat.Matrix) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	if len(f.Trees) == 0 {
		return out
	}
	for i := range out {
		var sum float64
		for _, tree := range f.Trees {
			sum += tree.predictRow(x, i)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out
}

// FeatureImportances averages the per-tree importances
func (f *Forest) FeatureImportances() []float64 {
	return append([]float64(nil), f.Importances...)
}
