package predictor

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Boosting fits shallow trees to the residuals of the running prediction
type Boosting struct {
	NumStages    int       `json:"num_stages"`
	MaxDepth     int       `json:"max_depth"`
	LearningRate float64   `json:"learning_rate"`
	Init         float64   `json:"init"`
	Stages       []*Tree   `json:"stages"`
	Importances  []float64 `json:"importances"`
}

// NewBoosting creates an unfitted booster
func NewBoosting(stages, maxDepth int, learningRate float64) *Boosting {
	return &Boosting{
		NumStages:    stages,
		MaxDepth:     maxDepth,
		LearningRate: learningRate,
	}
}

// Fit starts from the target mean and adds one tree per stage
func (b *Boosting) Fit(x mat.Matrix, y []float64) error {
	n, p, err := checkShape(x, y)
	if err != nil {
		return err
	}

	cols := columnsOf(x)
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}

	b.Init = stat.Mean(y, nil)
	current := make([]float64, n)
	for i := range current {
		current[i] = b.Init
	}

	residual := make([]float64, n)
	importances := make([]float64, p)
	b.Stages = make([]*Tree, 0, b.NumStages)
	for s := 0; s < b.NumStages; s++ {
		for i := range residual {
			residual[i] = y[i] - current[i]
		}

		tree := NewTree(b.MaxDepth, 2, 1)
		tree.fit(cols, residual, rows)
		for i := range current {
			current[i] += b.LearningRate * tree.predictRow(x, i)
		}
		for j, v := range tree.Importances {
			importances[j] += v
		}
		b.Stages = append(b.Stages, tree)
	}

	b.Importances = normalize(importances)
	return nil
}

// Predict sums the scaled stage outputs
func (b *Boosting) Predict(x mat.Matrix) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		v := b.Init
		for _, tree := range b.Stages {
			v += b.LearningRate * tree.predictRow(x, i)
		}
		out[i] = v
	}
	return out
}

// FeatureImportances averages the per-stage importances
func (b *Boosting) FeatureImportances() []float64 {
	return append([]float64(nil), b.Importances...)
}
