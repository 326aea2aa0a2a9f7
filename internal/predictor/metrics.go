package predictor

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metrics reports fit quality on the training and held-out rows
type Metrics struct {
	TrainRows int     `json:"train_rows" yaml:"train_rows"`
	TestRows  int     `json:"test_rows" yaml:"test_rows"`
	TrainMAE  float64 `json:"train_mae" yaml:"train_mae"`
	TestMAE   float64 `json:"test_mae" yaml:"test_mae"`
	TrainRMSE float64 `json:"train_rmse" yaml:"train_rmse"`
	TestRMSE  float64 `json:"test_rmse" yaml:"test_rmse"`
	TrainR2   float64 `json:"train_r2" yaml:"train_r2"`
	TestR2    float64 `json:"test_r2" yaml:"test_r2"`
}

// MAE is the mean absolute error
func MAE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	diff := residuals(actual, predicted)
	return floats.Norm(diff, 1) / float64(len(diff))
}

// RMSE is the root mean squared error
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	diff := residuals(actual, predicted)
	return floats.Norm(diff, 2) / math.Sqrt(float64(len(diff)))
}

// R2 is the coefficient of determination. A constant target scores 1 when it is
// predicted exactly and 0 otherwise.
func R2(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	diff := residuals(actual, predicted)
	ssRes := floats.Dot(diff, diff)

	mean := stat.Mean(actual, nil)
	var ssTot float64
	for _, v := range actual {
		ssTot += (v - mean) * (v - mean)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

func residuals(actual, predicted []float64) []float64 {
	diff := make([]float64, len(actual))
	floats.SubTo(diff, actual, predicted)
	return diff
}

func evaluate(trainY, trainPred, testY, testPred []float64) Metrics {
	return Metrics{
		TrainRows: len(trainY),
		TestRows:  len(testY),
		TrainMAE:  MAE(trainY, trainPred),
		TestMAE:   MAE(testY, testPred),
		TrainRMSE: RMSE(trainY, trainPred),
		TestRMSE:  RMSE(testY, testPred),
		TrainR2:   R2(trainY, trainPred),
		TestR2:    R2(testY, testPred),
	}
}
