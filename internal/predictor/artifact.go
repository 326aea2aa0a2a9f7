package predictor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"riyadhestate/server/internal/features"
)

// artifact is the on-disk form of a trained predictor
type artifact struct {
	ID        string           `json:"id"`
	Algorithm Algorithm        `json:"algorithm"`
	Trained   bool             `json:"trained"`
	Schema    *features.Schema `json:"schema"`
	Metrics   *Metrics         `json:"metrics,omitempty"`
	State     json.RawMessage  `json:"state"`
	CreatedAt time.Time        `json:"created_at"`
}

// Save writes the trained model to path. The file is replaced only once the
// new content has been written completely.
func (p *Predictor) Save(path string) error {
	if !p.Trained() {
		return ErrNotTrained
	}

	state, err := json.Marshal(p.model)
	if err != nil {
		return fmt.Errorf("failed to encode model state: %w", err)
	}
	data, err := json.MarshalIndent(artifact{
		ID:        p.id,
		Algorithm: p.algorithm,
		Trained:   true,
		Schema:    p.schema,
		Metrics:   p.metrics,
		State:     state,
		CreatedAt: p.createdAt,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".model-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	p.logger.WithFields(logrus.Fields{
		"model_id":  p.id,
		"algorithm": p.algorithm,
		"path":      path,
	}).Info("Saved price model")
	return nil
}

// Load replaces the predictor's model with the one stored at path.
// On any error the predictor keeps its previous state.
func (p *Predictor) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("failed to decode model: %w", err)
	}
	if !a.Trained {
		return fmt.Errorf("%s: %w", path, ErrNotTrained)
	}
	if a.Schema == nil || a.Schema.Len() == 0 {
		return fmt.Errorf("%s: model has no feature schema", path)
	}

	model, err := newRegressor(a.Algorithm, p.options)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(a.State, model); err != nil {
		return fmt.Errorf("failed to decode %s state: %w", a.Algorithm, err)
	}
	if v, ok := model.(validator); ok {
		if err := v.validate(a.Schema.Len()); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	p.algorithm = a.Algorithm
	p.model = model
	p.schema = a.Schema
	p.metrics = a.Metrics
	p.id = a.ID
	p.createdAt = a.CreatedAt

	p.logger.WithFields(logrus.Fields{
		"model_id":  a.ID,
		"algorithm": a.Algorithm,
		"path":      path,
	}).Info("Loaded price model")
	return nil
}

// LoadPredictor reads a saved model into a new predictor
func LoadPredictor(path string, options Options, logger *logrus.Logger) (*Predictor, error) {
	p, err := New(string(MeanBaseline), options, logger)
	if err != nil {
		return nil, err
	}
	if err := p.Load(path); err != nil {
		return nil, err
	}
	return p, nil
}
