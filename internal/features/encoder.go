package features

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"riyadhestate/server/internal/models"
)

// Target is the price column aligned with the matrix rows
type Target []float64

// Matrix is a design matrix together with the schema that produced it.
// Data is nil when the matrix has no rows or no columns.
type Matrix struct {
	Schema *Schema
	Data   *mat.Dense
	rows   int
}

// NewMatrix wraps rows laid out by schema
func NewMatrix(schema *Schema, rows [][]float64) *Matrix {
	m := &Matrix{Schema: schema, rows: len(rows)}
	cols := schema.Len()
	if len(rows) == 0 || cols == 0 {
		return m
	}
	data := make([]float64, 0, len(rows)*cols)
	for _, row := range rows {
		data = append(data, row...)
	}
	m.Data = mat.NewDense(len(rows), cols, data)
	return m
}

// Rows returns the number of rows
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns
func (m *Matrix) Cols() int { return m.Schema.Len() }

// Row returns a copy of row i
func (m *Matrix) Row(i int) []float64 {
	if m.Data == nil {
		return make([]float64, m.Cols())
	}
	return mat.Row(nil, i, m.Data)
}

// Column returns a copy of the named column, or nil if the schema lacks it
func (m *Matrix) Column(name string) []float64 {
	j := m.Schema.Index(name)
	if j < 0 {
		return nil
	}
	if m.Data == nil {
		return make([]float64, m.rows)
	}
	return mat.Col(nil, j, m.Data)
}

// Encode derives a schema from the table and encodes every row.
// The table must carry district, property_type and price_sar.
func Encode(table *models.PropertyTable) (*Matrix, Target, error) {
	if err := table.Require(models.ColDistrict, models.ColPropertyType, models.ColPriceSAR); err != nil {
		return nil, nil, err
	}

	schema := DeriveSchema(table)
	rows := make([][]float64, table.Len())
	target := make(Target, table.Len())
	for i, r := range table.Records {
		rows[i] = schema.EncodeRecord(r)
		if v, ok := r.Number(models.ColPriceSAR); ok {
			target[i] = v
		} else {
			target[i] = math.NaN()
		}
	}

	return NewMatrix(schema, rows), target, nil
}
