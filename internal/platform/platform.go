// Package platform holds one analytics session: the loaded table, its cleaned
// and encoded forms and the price model trained on them.
package platform

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/analysis"
	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/features"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
	"riyadhestate/server/internal/predictor"
)

var (
	ErrNoData     = errors.New("no dataset loaded")
	ErrNotCleaned = errors.New("dataset has not been cleaned")
)

// Platform is not safe for concurrent use; callers serialize access
type Platform struct {
	cfg     *config.Config
	logger  *logrus.Logger
	cleaner dataset.Cleaner

	raw       *models.PropertyTable
	cleaned   *models.PropertyTable
	report    *dataset.CleanReport
	matrix    *features.Matrix
	target    features.Target
	predictor *predictor.Predictor
}

// PredictorOptions maps the model configuration onto predictor options
func PredictorOptions(cfg *config.Config) predictor.Options {
	opts := predictor.DefaultOptions()
	opts.TestSize = cfg.Model.TestSize
	opts.Seed = cfg.Model.Seed
	return opts
}

// New creates an empty platform with an untrained predictor
func New(cfg *config.Config, logger *logrus.Logger) (*Platform, error) {
	if logger == nil {
		logger = logging.Default()
	}

	model, err := predictor.New(cfg.Model.Algorithm, PredictorOptions(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create predictor: %w", err)
	}

	return &Platform{
		cfg:    cfg,
		logger: logger,
		cleaner: dataset.Cleaner{
			LowerQuantile: cfg.Cleaning.LowerQuantile,
			UpperQuantile: cfg.Cleaning.UpperQuantile,
		},
		predictor: model,
	}, nil
}

// Generate replaces the current table with n synthetic listings
func (p *Platform) Generate(n int, seed int64) (*models.PropertyTable, error) {
	table, err := dataset.Generate(n, seed)
	if err != nil {
		return nil, err
	}
	p.Load(table)

	p.logger.WithFields(logrus.Fields{
		"rows": n,
		"seed": seed,
	}).Info("Generated synthetic listings")
	return table, nil
}

// Load replaces the current table and drops everything derived from the old one.
// A table that is already cleaned is used as the cleaned table too.
func (p *Platform) Load(table *models.PropertyTable) {
	p.raw = table.Clone()
	p.cleaned = nil
	p.report = nil
	p.matrix = nil
	p.target = nil
	if table.Cleaned {
		p.cleaned = table.Clone()
	}
}

// LoadCSV reads a table from a CSV file
func (p *Platform) LoadCSV(path string) error {
	table, err := dataset.LoadCSV(path)
	if err != nil {
		return err
	}
	p.Load(table)

	p.logger.WithFields(logrus.Fields{
		"path":    path,
		"rows":    table.Len(),
		"columns": table.Columns,
	}).Info("Loaded listings from CSV")
	return nil
}

// Raw returns the table as loaded
func (p *Platform) Raw() (*models.PropertyTable, error) {
	if p.raw == nil {
		return nil, ErrNoData
	}
	return p.raw, nil
}

// Data returns the cleaned table when there is one and the raw table otherwise
func (p *Platform) Data() (*models.PropertyTable, error) {
	if p.cleaned != nil {
		return p.cleaned, nil
	}
	return p.Raw()
}

// Cleaned returns the cleaned table
func (p *Platform) Cleaned() (*models.PropertyTable, error) {
	if p.cleaned == nil {
		return nil, ErrNotCleaned
	}
	return p.cleaned, nil
}

// CleanReport returns the row counts of the last cleaning run
func (p *Platform) CleanReport() (dataset.CleanReport, bool) {
	if p.report == nil {
		return dataset.CleanReport{}, false
	}
	return *p.report, true
}

// Clean cleans the raw table; encoded features are rebuilt on next use
func (p *Platform) Clean() (dataset.CleanReport, error) {
	if p.raw == nil {
		return dataset.CleanReport{}, ErrNoData
	}

	cleaned, report, err := p.cleaner.Clean(p.raw)
	if err != nil {
		return report, err
	}
	p.cleaned = cleaned
	p.report = &report
	p.matrix = nil
	p.target = nil

	p.logger.WithFields(logrus.Fields{
		"input_rows":     report.InputRows,
		"duplicates":     report.Duplicates,
		"incomplete":     report.Incomplete,
		"price_outliers": report.PriceOutliers,
		"area_outliers":  report.AreaOutliers,
		"output_rows":    report.OutputRows,
		"skipped":        report.Skipped,
	}).Info("Cleaned listings")
	return report, nil
}

// Features encodes the cleaned table, reusing the previous encoding when the
// table has not changed
func (p *Platform) Features() (*features.Matrix, features.Target, error) {
	if p.cleaned == nil {
		return nil, nil, ErrNotCleaned
	}
	if p.matrix != nil {
		return p.matrix, p.target, nil
	}

	x, y, err := features.Encode(p.cleaned)
	if err != nil {
		return nil, nil, err
	}
	p.matrix = x
	p.target = y
	return x, y, nil
}

// Train fits the predictor on the encoded cleaned table
func (p *Platform) Train() (predictor.Metrics, error) {
	x, y, err := p.Features()
	if err != nil {
		return predictor.Metrics{}, err
	}
	return p.predictor.Train(x, y)
}

// Predictor returns the price model
func (p *Platform) Predictor() *predictor.Predictor {
	return p.predictor
}

// SetAlgorithm swaps in a new untrained predictor using algorithm
func (p *Platform) SetAlgorithm(algorithm string) error {
	model, err := predictor.New(algorithm, PredictorOptions(p.cfg), p.logger)
	if err != nil {
		return err
	}
	p.predictor = model
	return nil
}

// LoadModel replaces the price model with a saved one
func (p *Platform) LoadModel(path string) error {
	return p.predictor.Load(path)
}

// SaveModel writes the trained price model
func (p *Platform) SaveModel(path string) error {
	return p.predictor.Save(path)
}

// Analyzer returns an analyzer over Data
func (p *Platform) Analyzer() (*analysis.MarketAnalyzer, error) {
	table, err := p.Data()
	if err != nil {
		return nil, err
	}
	return analysis.NewMarketAnalyzer(table), nil
}

// RunPipeline generates, cleans and trains in one go
func (p *Platform) RunPipeline(n int, seed int64) (dataset.CleanReport, predictor.Metrics, error) {
	if _, err := p.Generate(n, seed); err != nil {
		return dataset.CleanReport{}, predictor.Metrics{}, err
	}
	report, err := p.Clean()
	if err != nil {
		return report, predictor.Metrics{}, err
	}
	metrics, err := p.Train()
	return report, metrics, err
}
