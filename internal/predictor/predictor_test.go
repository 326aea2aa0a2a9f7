package predictor

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/features"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
)

func fastOptions() Options {
	o := DefaultOptions()
	o.Trees = 15
	o.Stages = 30
	return o
}

func encodedListings(t *testing.T, n int) (*models.PropertyTable, *features.Matrix, features.Target) {
	t.Helper()
	raw, err := dataset.Generate(n, 42)
	require.NoError(t, err)
	cleaned, err := dataset.Clean(raw)
	require.NoError(t, err)
	x, y, err := features.Encode(cleaned)
	require.NoError(t, err)
	return cleaned, x, y
}

func newPredictor(t *testing.T, algorithm Algorithm) *Predictor {
	t.Helper()
	p, err := New(string(algorithm), fastOptions(), logging.Discard())
	require.NoError(t, err)
	return p
}

func TestNew(t *testing.T) {
	_, err := New("neural_net", DefaultOptions(), nil)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	bad := DefaultOptions()
	bad.TestSize = 1
	_, err = New(string(MeanBaseline), bad, nil)
	assert.Error(t, err)

	for _, algo := range Algorithms {
		p, err := New(string(algo), DefaultOptions(), nil)
		require.NoError(t, err)
		assert.Equal(t, algo, p.Algorithm())
		assert.False(t, p.Trained())
	}
}

func TestPredictor_NotTrained(t *testing.T) {
	_, x, _ := encodedListings(t, 50)
	p := newPredictor(t, RandomForest)

	_, err := p.Predict(x)
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.PredictSingle(map[string]float64{"area_sqm": 100})
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.PredictRecord(models.PropertyRecord{})
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.FeatureImportance()
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = p.Metrics()
	assert.ErrorIs(t, err, ErrNotTrained)
	assert.ErrorIs(t, p.Save(filepath.Join(t.TempDir(), "model.json")), ErrNotTrained)
}

func TestPredictor_InsufficientData(t *testing.T) {
	table, err := dataset.Generate(1, 42)
	require.NoError(t, err)
	x, y, err := features.Encode(table)
	require.NoError(t, err)

	p := newPredictor(t, MeanBaseline)
	_, err = p.Train(x, y)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.False(t, p.Trained())

	empty, emptyY, err := features.Encode(models.NewPropertyTable(nil))
	require.NoError(t, err)
	_, err = p.Train(empty, emptyY)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestPredictor_SplitSizes(t *testing.T) {
	tests := []struct {
		rows      int
		wantTest  int
		wantTrain int
	}{
		{2, 1, 1},
		{5, 1, 4},
		{10, 2, 8},
		{11, 3, 8},
	}

	for _, tt := range tests {
		table, err := dataset.Generate(tt.rows, 42)
		require.NoError(t, err)
		x, y, err := features.Encode(table)
		require.NoError(t, err)

		metrics, err := newPredictor(t, MeanBaseline).Train(x, y)
		require.NoError(t, err)
		assert.Equal(t, tt.wantTest, metrics.TestRows, "rows=%d", tt.rows)
		assert.Equal(t, tt.wantTrain, metrics.TrainRows, "rows=%d", tt.rows)
	}
}

func TestPredictor_MeanIsReproducible(t *testing.T) {
	_, x, y := encodedListings(t, 200)

	first, err := newPredictor(t, MeanBaseline).Train(x, y)
	require.NoError(t, err)
	second, err := newPredictor(t, MeanBaseline).Train(x, y)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.GreaterOrEqual(t, first.TestRMSE, 0.0)
	assert.LessOrEqual(t, first.TestR2, 1.0)
	assert.Equal(t, x.Rows(), first.TrainRows+first.TestRows)
}

func TestPredictor_Ensembles(t *testing.T) {
	_, x, y := encodedListings(t, 300)

	for _, algo := range []Algorithm{RandomForest, GradientBoosting} {
		t.Run(string(algo), func(t *testing.T) {
			p := newPredictor(t, algo)
			metrics, err := p.Train(x, y)
			require.NoError(t, err)
			assert.Greater(t, metrics.TestR2, 0.5)
			assert.LessOrEqual(t, metrics.TestR2, 1.0)
			assert.Greater(t, metrics.TrainR2, metrics.TestR2-0.1)

			importance, err := p.FeatureImportance()
			require.NoError(t, err)
			require.Len(t, importance, x.Cols())
			assert.Equal(t, models.ColAreaSqm, importance[0].Feature)

			var sum float64
			for i, fi := range importance {
				sum += fi.Importance
				if i > 0 {
					assert.GreaterOrEqual(t, importance[i-1].Importance, fi.Importance)
				}
			}
			assert.InDelta(t, 1.0, sum, 1e-9)

			predictions, err := p.Predict(x)
			require.NoError(t, err)
			assert.Len(t, predictions, x.Rows())
		})
	}
}

func TestPredictor_ForestIsDeterministic(t *testing.T) {
	_, x, y := encodedListings(t, 150)

	first, err := newPredictor(t, RandomForest).Train(x, y)
	require.NoError(t, err)
	second, err := newPredictor(t, RandomForest).Train(x, y)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredictor_ImportanceUnsupported(t *testing.T) {
	_, x, y := encodedListings(t, 100)

	for _, algo := range []Algorithm{LinearRegression, MeanBaseline} {
		p := newPredictor(t, algo)
		_, err := p.Train(x, y)
		require.NoError(t, err)
		_, err = p.FeatureImportance()
		assert.ErrorIs(t, err, ErrImportanceUnsupported)
	}
}

func TestPredictor_FeatureMismatch(t *testing.T) {
	_, x, y := encodedListings(t, 100)
	p := newPredictor(t, LinearRegression)
	_, err := p.Train(x, y)
	require.NoError(t, err)

	narrow := &models.PropertyTable{
		Columns: []string{models.ColDistrict, models.ColPropertyType, models.ColAreaSqm, models.ColPriceSAR},
		Records: []models.PropertyRecord{{District: "Olaya", PropertyType: "villa", AreaSqm: models.IntPtr(300), PriceSAR: models.FloatPtr(1)}},
	}
	other, _, err := features.Encode(narrow)
	require.NoError(t, err)

	_, err = p.Predict(other)
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}

func TestPredictor_PredictSingle(t *testing.T) {
	table, x, y := encodedListings(t, 200)
	p := newPredictor(t, LinearRegression)
	_, err := p.Train(x, y)
	require.NoError(t, err)

	// A record and its encoded feature map score the same
	record := table.Records[0]
	values := make(map[string]float64)
	for i, name := range p.Schema().Names() {
		values[name] = x.Row(0)[i]
	}
	values["swimming_pool"] = 1

	fromRecord, err := p.PredictRecord(record)
	require.NoError(t, err)
	fromMap, err := p.PredictSingle(values)
	require.NoError(t, err)
	assert.InDelta(t, fromRecord, fromMap, 1e-6)

	all, err := p.PredictTable(table)
	require.NoError(t, err)
	assert.InDelta(t, fromRecord, all[0], 1e-6)

	// Bigger homes cost more under the fitted hyperplane
	bigger := values
	bigger[models.ColAreaSqm] += 100
	larger, err := p.PredictSingle(bigger)
	require.NoError(t, err)
	assert.Greater(t, larger, fromMap)
}

func TestPredictor_PredictRecordMissingNumbers(t *testing.T) {
	raw, err := dataset.Generate(300, 1)
	require.NoError(t, err)
	cleaned, err := dataset.Clean(raw)
	require.NoError(t, err)
	x, y, err := features.Encode(cleaned)
	require.NoError(t, err)

	p := newPredictor(t, LinearRegression)
	_, err = p.Train(x, y)
	require.NoError(t, err)

	district := cleaned.Records[0].District
	record := models.PropertyRecord{District: district, PropertyType: "villa", AreaSqm: models.IntPtr(300)}

	fromRecord, err := p.PredictRecord(record)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(fromRecord))

	fromMap, err := p.PredictSingle(map[string]float64{
		models.ColAreaSqm: 300,
		features.IndicatorName(models.ColDistrict, district):    1,
		features.IndicatorName(models.ColPropertyType, "villa"): 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, fromMap, fromRecord, 1e-6)

	table := models.NewPropertyTable([]models.PropertyRecord{record})
	all, err := p.PredictTable(table)
	require.NoError(t, err)
	assert.InDelta(t, fromRecord, all[0], 1e-6)
}

func TestPredictor_NonFinitePrediction(t *testing.T) {
	_, x, y := encodedListings(t, 100)
	p := newPredictor(t, LinearRegression)
	_, err := p.Train(x, y)
	require.NoError(t, err)

	_, err = p.PredictSingle(map[string]float64{models.ColAreaSqm: math.Inf(1)})
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = p.PredictRecord(models.PropertyRecord{DistanceKm: models.FloatPtr(math.NaN())})
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestPredictor_MeanPredictsTrainingMean(t *testing.T) {
	x := features.NewMatrix(&features.Schema{Columns: []features.Column{
		{Name: "a", Kind: features.KindNumeric, Field: "a"},
	}}, [][]float64{{1}, {2}, {3}, {4}, {5}})
	y := features.Target{10, 10, 10, 10, 10}

	p := newPredictor(t, MeanBaseline)
	metrics, err := p.Train(x, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, metrics.TestR2)
	assert.Equal(t, 0.0, metrics.TestRMSE)

	v, err := p.PredictSingle(nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)
}

func TestPredictor_SaveLoad(t *testing.T) {
	table, x, y := encodedListings(t, 150)
	dir := t.TempDir()

	for _, algo := range Algorithms {
		t.Run(string(algo), func(t *testing.T) {
			p := newPredictor(t, algo)
			_, err := p.Train(x, y)
			require.NoError(t, err)

			path := filepath.Join(dir, string(algo), "model.json")
			require.NoError(t, p.Save(path))

			loaded, err := LoadPredictor(path, fastOptions(), logging.Discard())
			require.NoError(t, err)
			assert.Equal(t, algo, loaded.Algorithm())
			assert.Equal(t, p.Info(), loaded.Info())

			want, err := p.PredictTable(table)
			require.NoError(t, err)
			got, err := loaded.PredictTable(table)
			require.NoError(t, err)
			assert.InDeltaSlice(t, want, got, 1e-6)
		})
	}
}

func TestPredictor_LoadFailureKeepsState(t *testing.T) {
	_, x, y := encodedListings(t, 100)
	p := newPredictor(t, LinearRegression)
	_, err := p.Train(x, y)
	require.NoError(t, err)
	before := p.Info()

	dir := t.TempDir()
	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"algorithm": "linear", "trained": true, "schema": {"columns": [{"name": "a"}]}, "state": [1, 2]}`), 0644))
	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"algorithm": "svm", "trained": true, "schema": {"columns": [{"name": "a"}]}, "state": {}}`), 0644))

	assert.Error(t, p.Load(filepath.Join(dir, "missing.json")))
	assert.Error(t, p.Load(corrupt))
	assert.ErrorIs(t, p.Load(unknown), ErrUnknownAlgorithm)
	assert.Equal(t, before, p.Info())
}

func TestPredictor_LoadRejectsInconsistentState(t *testing.T) {
	_, x, y := encodedListings(t, 100)
	p := newPredictor(t, LinearRegression)
	_, err := p.Train(x, y)
	require.NoError(t, err)
	before := p.Info()
	want, err := p.PredictSingle(map[string]float64{models.ColAreaSqm: 250})
	require.NoError(t, err)

	const schema = `{"columns": [{"name": "area_sqm", "kind": "numeric", "field": "area_sqm"}]}`
	leaf := `{"feature": 0, "threshold": 0, "left": -1, "right": -1, "value": 5}`

	tests := []struct {
		name      string
		algorithm Algorithm
		state     string
	}{
		{"tree without nodes", RandomForest, `{"trees": [{"nodes": []}]}`},
		{"forest without trees", RandomForest, `{"trees": []}`},
		{"null tree", RandomForest, `{"trees": [null]}`},
		{"child points back", RandomForest, `{"trees": [{"nodes": [{"feature": 0, "threshold": 1, "left": 0, "right": 0, "value": 1}]}]}`},
		{"child out of range", RandomForest, `{"trees": [{"nodes": [{"feature": 0, "threshold": 1, "left": 1, "right": 2, "value": 1}, ` + leaf + `]}]}`},
		{"unknown split column", RandomForest, `{"trees": [{"nodes": [{"feature": 3, "threshold": 1, "left": 1, "right": 2, "value": 1}, ` + leaf + `, ` + leaf + `]}]}`},
		{"importances length", RandomForest, `{"trees": [{"nodes": [` + leaf + `]}], "importances": [0.5, 0.5]}`},
		{"booster without stages", GradientBoosting, `{"init": 1, "stages": []}`},
		{"coefficient count", LinearRegression, `{"intercept": 1, "coefficients": [1, 2]}`},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "model.json")
			content := `{"algorithm": "` + string(tt.algorithm) + `", "trained": true, "schema": ` + schema + `, "state": ` + tt.state + `}`
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			assert.ErrorIs(t, p.Load(path), ErrInvalidModel)
			assert.Equal(t, before, p.Info())
			got, err := p.PredictSingle(map[string]float64{models.ColAreaSqm: 250})
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	// A single-leaf tree over the same schema is consistent
	path := filepath.Join(dir, "leaf.json")
	content := `{"algorithm": "random_forest", "trained": true, "schema": ` + schema + `, "state": {"trees": [{"nodes": [` + leaf + `]}]}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, p.Load(path))
	got, err := p.PredictSingle(map[string]float64{models.ColAreaSqm: 250})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got)
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		mae       float64
		rmse      float64
		r2        float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, 0, 1},
		{"offset", []float64{1, 2, 3}, []float64{2, 3, 4}, 1, 1, -0.5},
		{"constant exact", []float64{5, 5}, []float64{5, 5}, 0, 0, 1},
		{"constant missed", []float64{5, 5}, []float64{4, 6}, 1, 1, 0},
		{"mixed", []float64{0, 0, 0, 4}, []float64{0, 0, 0, 0}, 1, 2, -1.0 / 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.mae, MAE(tt.actual, tt.predicted), 1e-12)
			assert.InDelta(t, tt.rmse, RMSE(tt.actual, tt.predicted), 1e-12)
			assert.InDelta(t, tt.r2, R2(tt.actual, tt.predicted), 1e-12)
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	algo, err := ParseAlgorithm("gradient_boosting")
	require.NoError(t, err)
	assert.Equal(t, GradientBoosting, algo)

	_, err = ParseAlgorithm("Random_Forest")
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}
