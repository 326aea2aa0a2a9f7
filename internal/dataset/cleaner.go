package dataset

import (
	"errors"
	"fmt"
	"sort"

	"riyadhestate/server/internal/models"
	"riyadhestate/server/internal/stats"
)

// ErrEmptyInput is returned when cleaning a table without rows
var ErrEmptyInput = errors.New("empty input")

// Cleaner removes duplicates, incomplete rows and percentile outliers
type Cleaner struct {
	LowerQuantile float64
	UpperQuantile float64
}

// CleanReport counts the rows removed by each cleaning step
type CleanReport struct {
	InputRows     int  `json:"input_rows" yaml:"input_rows"`
	Duplicates    int  `json:"duplicates" yaml:"duplicates"`
	Incomplete    int  `json:"incomplete" yaml:"incomplete"`
	PriceOutliers int  `json:"price_outliers" yaml:"price_outliers"`
	AreaOutliers  int  `json:"area_outliers" yaml:"area_outliers"`
	OutputRows    int  `json:"output_rows" yaml:"output_rows"`
	Skipped       bool `json:"skipped" yaml:"skipped"`
}

// DefaultCleaner trims at the 1st and 99th percentiles
func DefaultCleaner() Cleaner {
	return Cleaner{LowerQuantile: 0.01, UpperQuantile: 0.99}
}

// Clean runs the default cleaner
func Clean(table *models.PropertyTable) (*models.PropertyTable, error) {
	cleaned, _, err := DefaultCleaner().Clean(table)
	return cleaned, err
}

// Clean returns a new table; the input is left untouched.
// Steps run in order and each works on the previous step's output:
// drop duplicates, drop incomplete rows, trim price outliers, trim area outliers.
// A table that is already the output of Clean comes back as an unchanged copy.
func (c Cleaner) Clean(table *models.PropertyTable) (*models.PropertyTable, CleanReport, error) {
	report := CleanReport{InputRows: table.Len()}
	if table.Len() == 0 {
		return nil, report, ErrEmptyInput
	}
	if table.Cleaned {
		report.OutputRows = table.Len()
		report.Skipped = true
		return table.Clone(), report, nil
	}
	if c.LowerQuantile < 0 || c.UpperQuantile > 1 || c.LowerQuantile > c.UpperQuantile {
		return nil, report, fmt.Errorf("invalid quantile bounds %v..%v", c.LowerQuantile, c.UpperQuantile)
	}

	records := dropDuplicates(table.Records, table.Columns)
	report.Duplicates = table.Len() - len(records)

	before := len(records)
	records = dropIncomplete(records, table.Columns)
	report.Incomplete = before - len(records)

	if table.HasColumn(models.ColPriceSAR) {
		before = len(records)
		records = c.trim(records, models.ColPriceSAR)
		report.PriceOutliers = before - len(records)
	}

	if table.HasColumn(models.ColAreaSqm) {
		before = len(records)
		records = c.trim(records, models.ColAreaSqm)
		report.AreaOutliers = before - len(records)
	}

	report.OutputRows = len(records)
	cleaned := table.WithRecords(records)
	cleaned.Cleaned = true
	return cleaned, report, nil
}

func dropDuplicates(records []models.PropertyRecord, columns []string) []models.PropertyRecord {
	seen := make(map[string]struct{}, len(records))
	kept := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		key := r.Key(columns)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, r)
	}
	return kept
}

func dropIncomplete(records []models.PropertyRecord, columns []string) []models.PropertyRecord {
	kept := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		if r.IsComplete(columns) {
			kept = append(kept, r)
		}
	}
	return kept
}

// trim keeps rows whose value lies inside the inclusive quantile range of the given rows
func (c Cleaner) trim(records []models.PropertyRecord, column string) []models.PropertyRecord {
	if len(records) == 0 {
		return records
	}

	values := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Number(column); ok {
			values = append(values, v)
		}
	}
	sort.Float64s(values)
	lower := stats.QuantileSorted(values, c.LowerQuantile)
	upper := stats.QuantileSorted(values, c.UpperQuantile)

	kept := make([]models.PropertyRecord, 0, len(records))
	for _, r := range records {
		v, ok := r.Number(column)
		if ok && v >= lower && v <= upper {
			kept = append(kept, r)
		}
	}
	return kept
}
