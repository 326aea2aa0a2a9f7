// Package predictor trains and serves price regression models.
package predictor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Algorithm names a regression algorithm
type Algorithm string

const (
	RandomForest     Algorithm = "random_forest"
	GradientBoosting Algorithm = "gradient_boosting"
	LinearRegression Algorithm = "linear"
	MeanBaseline     Algorithm = "mean"
)

// Algorithms lists every supported algorithm
var Algorithms = []Algorithm{RandomForest, GradientBoosting, LinearRegression, MeanBaseline}

var (
	ErrUnknownAlgorithm      = errors.New("unknown algorithm")
	ErrNotTrained            = errors.New("model not trained")
	ErrImportanceUnsupported = errors.New("algorithm does not report feature importance")
	ErrFeatureMismatch       = errors.New("feature layout does not match the trained schema")
	ErrInsufficientData      = errors.New("not enough rows to train and evaluate")
	ErrNonFinite             = errors.New("prediction is not a finite number")
	ErrInvalidModel          = errors.New("saved model state is inconsistent")
)

// ParseAlgorithm validates an algorithm name
func ParseAlgorithm(name string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Regressor is a fitted or unfitted regression model. Implementations marshal
// their fitted state to JSON.
type Regressor interface {
	Fit(x mat.Matrix, y []float64) error
	Predict(x mat.Matrix) []float64
}

// importancer is implemented by regressors that score their input columns
type importancer interface {
	FeatureImportances() []float64
}

// Options holds the hyperparameters of every algorithm
type Options struct {
	TestSize float64
	Seed     int64

	Trees           int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	Stages       int
	StageDepth   int
	LearningRate float64
}

// DefaultOptions returns the standard hyperparameters
func DefaultOptions() Options {
	return Options{
		TestSize:        0.2,
		Seed:            42,
		Trees:           100,
		MaxDepth:        20,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Stages:          100,
		StageDepth:      5,
		LearningRate:    0.1,
	}
}

func newRegressor(algorithm Algorithm, o Options) (Regressor, error) {
	switch algorithm {
	case RandomForest:
		return NewForest(o.Trees, o.MaxDepth, o.MinSamplesSplit, o.MinSamplesLeaf, o.Seed), nil
	case GradientBoosting:
		return NewBoosting(o.Stages, o.StageDepth, o.LearningRate), nil
	case LinearRegression:
		return &Linear{}, nil
	case MeanBaseline:
		return &Mean{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

func checkShape(x mat.Matrix, y []float64) (int, int, error) {
	n, p := x.Dims()
	if n != len(y) {
		return 0, 0, fmt.Errorf("matrix has %d rows but target has %d", n, len(y))
	}
	if n == 0 {
		return 0, 0, ErrInsufficientData
	}
	return n, p, nil
}

func columnsOf(x mat.Matrix) [][]float64 {
	_, p := x.Dims()
	cols := make([][]float64, p)
	for j := range cols {
		cols[j] = mat.Col(nil, j, x)
	}
	return cols
}

func normalize(values []float64) []float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	out := make([]float64, len(values))
	if sum <= 0 {
		return out
	}
	for i, v := range values {
		out[i] = v / sum
	}
	return out
}
