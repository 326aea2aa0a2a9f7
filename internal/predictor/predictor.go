package predictor

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"riyadhestate/server/internal/features"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
)

// FeatureImportance is the score of one input column
type FeatureImportance struct {
	Feature    string  `json:"feature" yaml:"feature"`
	Importance float64 `json:"importance" yaml:"importance"`
}

// Info describes the current model
type Info struct {
	ID        string    `json:"id,omitempty" yaml:"id,omitempty"`
	Algorithm Algorithm `json:"algorithm" yaml:"algorithm"`
	Trained   bool      `json:"trained" yaml:"trained"`
	Features  []string  `json:"features,omitempty" yaml:"features,omitempty"`
	Metrics   *Metrics  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// Predictor wraps one regressor together with the schema it was trained on.
// It is not safe for concurrent use.
type Predictor struct {
	algorithm Algorithm
	options   Options
	logger    *logrus.Logger

	model     Regressor
	schema    *features.Schema
	metrics   *Metrics
	id        string
	createdAt time.Time
}

// New creates an untrained predictor
func New(algorithm string, options Options, logger *logrus.Logger) (*Predictor, error) {
	if logger == nil {
		logger = logging.Default()
	}

	algo, err := ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if options.TestSize <= 0 || options.TestSize >= 1 {
		return nil, fmt.Errorf("invalid test size: %v", options.TestSize)
	}

	return &Predictor{
		algorithm: algo,
		options:   options,
		logger:    logger,
	}, nil
}

// Algorithm returns the configured algorithm
func (p *Predictor) Algorithm() Algorithm { return p.algorithm }

// Trained reports whether a model is available
func (p *Predictor) Trained() bool { return p.model != nil }

// Schema returns the schema of the trained model
func (p *Predictor) Schema() *features.Schema { return p.schema }

// Info summarizes the predictor
func (p *Predictor) Info() Info {
	info := Info{
		ID:        p.id,
		Algorithm: p.algorithm,
		Trained:   p.Trained(),
		Metrics:   p.metrics,
		CreatedAt: p.createdAt,
	}
	if p.schema != nil {
		info.Features = p.schema.Names()
	}
	return info
}

// Train holds out a seeded random share of the rows, fits a fresh model on the
// rest and evaluates both parts. The previous model is kept if training fails.
func (p *Predictor) Train(x *features.Matrix, y features.Target) (Metrics, error) {
	n := x.Rows()
	if n != len(y) {
		return Metrics{}, fmt.Errorf("matrix has %d rows but target has %d", n, len(y))
	}
	if x.Cols() == 0 {
		return Metrics{}, fmt.Errorf("%w: no feature columns", ErrInsufficientData)
	}

	nTest := int(math.Ceil(p.options.TestSize * float64(n)))
	if nTest < 1 || n-nTest < 1 {
		return Metrics{}, fmt.Errorf("%w: %d rows", ErrInsufficientData, n)
	}

	start := time.Now()
	perm := rand.New(rand.NewSource(p.options.Seed)).Perm(n)
	testX, testY := subset(x.Data, y, perm[:nTest])
	trainX, trainY := subset(x.Data, y, perm[nTest:])

	model, err := newRegressor(p.algorithm, p.options)
	if err != nil {
		return Metrics{}, err
	}
	if err := model.Fit(trainX, trainY); err != nil {
		return Metrics{}, fmt.Errorf("failed to fit %s: %w", p.algorithm, err)
	}

	metrics := evaluate(trainY, model.Predict(trainX), testY, model.Predict(testX))

	p.model = model
	p.schema = x.Schema
	p.metrics = &metrics
	p.id = uuid.New().String()
	p.createdAt = time.Now().UTC()

	p.logger.WithFields(logrus.Fields{
		"model_id":   p.id,
		"algorithm":  p.algorithm,
		"train_rows": metrics.TrainRows,
		"test_rows":  metrics.TestRows,
		"test_rmse":  metrics.TestRMSE,
		"test_r2":    metrics.TestR2,
		"duration":   time.Since(start).String(),
	}).Info("Trained price model")

	return metrics, nil
}

// Metrics returns the evaluation of the last training run
func (p *Predictor) Metrics() (Metrics, error) {
	if !p.Trained() || p.metrics == nil {
		return Metrics{}, ErrNotTrained
	}
	return *p.metrics, nil
}

// Predict scores every row of a matrix laid out by the trained schema
func (p *Predictor) Predict(x *features.Matrix) ([]float64, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	if err := p.checkSchema(x.Schema); err != nil {
		return nil, err
	}
	if x.Rows() == 0 {
		return []float64{}, nil
	}
	return p.model.Predict(x.Data), nil
}

// PredictSingle scores one row given as column name to value.
// Missing columns count as zero and unknown names are ignored.
func (p *Predictor) PredictSingle(values map[string]float64) (float64, error) {
	if !p.Trained() {
		return 0, ErrNotTrained
	}
	return finite(p.predictRow(p.schema.EncodeFeatures(values)))
}

// PredictRecord scores one property through the trained schema.
// Missing numbers count as zero.
func (p *Predictor) PredictRecord(r models.PropertyRecord) (float64, error) {
	if !p.Trained() {
		return 0, ErrNotTrained
	}
	return finite(p.predictRow(p.schema.EncodeListing(r)))
}

// PredictTable scores every record of a table through the trained schema
func (p *Predictor) PredictTable(table *models.PropertyTable) ([]float64, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	out := make([]float64, table.Len())
	for i, r := range table.Records {
		v, err := finite(p.predictRow(p.schema.EncodeListing(r)))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportance returns the column scores, highest first
func (p *Predictor) FeatureImportance() ([]FeatureImportance, error) {
	if !p.Trained() {
		return nil, ErrNotTrained
	}
	imp, ok := p.model.(importancer)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrImportanceUnsupported, p.algorithm)
	}

	scores := imp.FeatureImportances()
	out := make([]FeatureImportance, 0, len(scores))
	for j, score := range scores {
		if j >= p.schema.Len() {
			break
		}
		out = append(out, FeatureImportance{Feature: p.schema.Columns[j].Name, Importance: score})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	return out, nil
}

func finite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrNonFinite
	}
	return v, nil
}

func (p *Predictor) predictRow(row []float64) float64 {
	return p.model.Predict(mat.NewDense(1, len(row), row))[0]
}

func (p *Predictor) checkSchema(s *features.Schema) error {
	if s.Len() != p.schema.Len() {
		return fmt.Errorf("%w: got %d columns, want %d", ErrFeatureMismatch, s.Len(), p.schema.Len())
	}
	for i, c := range s.Columns {
		if c.Name != p.schema.Columns[i].Name {
			return fmt.Errorf("%w: column %d is %q, want %q", ErrFeatureMismatch, i, c.Name, p.schema.Columns[i].Name)
		}
	}
	return nil
}

func subset(x *mat.Dense, y []float64, rows []int) (*mat.Dense, []float64) {
	_, cols := x.Dims()
	out := mat.NewDense(len(rows), cols, nil)
	target := make([]float64, len(rows))
	for k, i := range rows {
		out.SetRow(k, x.RawRowView(i))
		target[k] = y[i]
	}
	return out, target
}
