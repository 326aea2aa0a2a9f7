// Package features turns property tables into numeric design matrices.
package features

import (
	"math"

	"riyadhestate/server/internal/models"
)

// Kind tells how a column is derived from a record
type Kind string

const (
	KindNumeric   Kind = "numeric"
	KindIndicator Kind = "indicator"
)

// Column describes one column of the design matrix
type Column struct {
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}

// Schema is the ordered column layout recorded when a table is encoded.
// References holds the dropped first level of each categorical field.
type Schema struct {
	Columns    []Column          `json:"columns"`
	References map[string]string `json:"references,omitempty"`
}

// Len returns the number of columns
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Columns)
}

// Names returns the column names in order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of a column, or -1
func (s *Schema) Index(name string) int {
	for i, c := range s.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// EncodeRecord lays out one record the way the schema was derived.
// Categories that were never seen leave every indicator at zero and
// missing numbers become NaN.
func (s *Schema) EncodeRecord(r models.PropertyRecord) []float64 {
	row := make([]float64, len(s.Columns))
	s.encodeInto(row, r, math.NaN())
	return row
}

// EncodeListing lays out a new listing for prediction. It differs from
// EncodeRecord only in that missing numbers are zero, matching EncodeFeatures.
func (s *Schema) EncodeListing(r models.PropertyRecord) []float64 {
	row := make([]float64, len(s.Columns))
	s.encodeInto(row, r, 0)
	return row
}

// EncodeFeatures lays out named values. Columns without a value are zero and
// names the schema does not know are ignored.
func (s *Schema) EncodeFeatures(values map[string]float64) []float64 {
	row := make([]float64, len(s.Columns))
	for i, c := range s.Columns {
		row[i] = values[c.Name]
	}
	return row
}

func (s *Schema) encodeInto(row []float64, r models.PropertyRecord, missing float64) {
	for i, c := range s.Columns {
		switch c.Kind {
		case KindNumeric:
			if v, ok := r.Number(c.Field); ok {
				row[i] = v
			} else {
				row[i] = missing
			}
		case KindIndicator:
			if v, ok := r.Category(c.Field); ok && v == c.Value {
				row[i] = 1
			} else {
				row[i] = 0
			}
		}
	}
}

// IndicatorName is the column name for one level of a categorical field
func IndicatorName(field, value string) string {
	return field + "_" + value
}

// DeriveSchema builds the column layout for a table: numeric columns in table
// order, then one indicator per non-reference level of district and property type.
// Levels are ordered by first appearance and the first one is the reference.
func DeriveSchema(table *models.PropertyTable) *Schema {
	schema := &Schema{References: make(map[string]string)}

	for _, col := range table.Columns {
		if models.IsCategorical(col) || col == models.ColPriceSAR {
			continue
		}
		schema.Columns = append(schema.Columns, Column{Name: col, Kind: KindNumeric, Field: col})
	}

	for _, field := range models.CategoricalColumns {
		if !table.HasColumn(field) {
			continue
		}
		levels := distinctLevels(table.Records, field)
		if len(levels) == 0 {
			continue
		}
		schema.References[field] = levels[0]
		for _, level := range levels[1:] {
			schema.Columns = append(schema.Columns, Column{
				Name:  IndicatorName(field, level),
				Kind:  KindIndicator,
				Field: field,
				Value: level,
			})
		}
	}

	return schema
}

func distinctLevels(records []models.PropertyRecord, field string) []string {
	seen := make(map[string]struct{})
	var levels []string
	for _, r := range records {
		v, ok := r.Category(field)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		levels = append(levels, v)
	}
	return levels
}
