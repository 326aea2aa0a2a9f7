package predictor

import (
	"errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// rankTolerance drops singular values below this fraction of the largest one
const rankTolerance = 1e-10

// Linear is ordinary least squares with an intercept. Rank deficient designs
// get the minimum-norm solution.
type Linear struct {
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// Fit solves the least squares problem through a thin SVD
func (l *Linear) Fit(x mat.Matrix, y []float64) error {
	n, p, err := checkShape(x, y)
	if err != nil {
		return err
	}

	design := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			design.Set(i, j+1, x.At(i, j))
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(design, mat.SVDThin); !ok {
		return errors.New("singular value decomposition failed")
	}
	rank := svd.Rank(rankTolerance)
	if rank == 0 {
		// all-zero design: the best constant is the mean
		l.Intercept = stat.Mean(y, nil)
		l.Coefficients = make([]float64, p)
		return nil
	}

	var beta mat.VecDense
	svd.SolveVecTo(&beta, mat.NewVecDense(n, append([]float64(nil), y...)), rank)

	l.Intercept = beta.AtVec(0)
	l.Coefficients = make([]float64, p)
	for j := range l.Coefficients {
		l.Coefficients[j] = beta.AtVec(j + 1)
	}
	return nil
}

// Predict evaluates the fitted hyperplane
func (l *Linear) Predict(x mat.Matrix) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	for i := range out {
		v := l.Intercept
		for j := 0; j < p && j < len(l.Coefficients); j++ {
			v += l.Coefficients[j] * x.At(i, j)
		}
		out[i] = v
	}
	return out
}

// Mean predicts the training mean for every row
type Mean struct {
	Value float64 `json:"value"`
}

// Fit records the target mean
func (m *Mean) Fit(x mat.Matrix, y []float64) error {
	if _, _, err := checkShape(x, y); err != nil {
		return err
	}
	m.Value = stat.Mean(y, nil)
	return nil
}

// Predict returns the recorded mean for each row
func (m *Mean) Predict(x mat.Matrix) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = m.Value
	}
	return out
}
