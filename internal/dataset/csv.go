package dataset

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"riyadhestate/server/internal/models"
)

const missingCell = "NaN"

var columnTypes = map[string]series.Type{
	models.ColDistrict:      series.String,
	models.ColPropertyType:  series.String,
	models.ColAreaSqm:       series.Int,
	models.ColRoomCount:     series.Int,
	models.ColBathroomCount: series.Int,
	models.ColAgeYears:      series.Int,
	models.ColDistanceKm:    series.Float,
	models.ColPriceSAR:      series.Float,
}

var missingValues = []string{"", "NA", "NaN", "nan", "<nil>"}

// LoadCSV reads a property table from a CSV file with a header row
func LoadCSV(path string) (*models.PropertyTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer file.Close()

	table, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return table, nil
}

// ReadCSV parses a property table. Unknown columns are ignored and absent ones are
// left out of the table's column set, so later steps can report them.
func ReadCSV(r io.Reader) (*models.PropertyTable, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithTypes(columnTypes),
		dataframe.NaNValues(missingValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", df.Err)
	}

	var columns []string
	for _, name := range df.Names() {
		if _, known := columnTypes[name]; known {
			columns = append(columns, name)
		}
	}

	records := make([]models.PropertyRecord, df.Nrow())
	for _, col := range columns {
		s := df.Col(col)
		for i := range records {
			readCell(&records[i], col, s.Elem(i))
		}
	}

	return &models.PropertyTable{Columns: columns, Records: records}, nil
}

func readCell(r *models.PropertyRecord, column string, e series.Element) {
	if e.IsNA() {
		return
	}
	switch column {
	case models.ColDistrict:
		r.District = e.String()
	case models.ColPropertyType:
		r.PropertyType = e.String()
	case models.ColAreaSqm:
		r.AreaSqm = intCell(e)
	case models.ColRoomCount:
		r.RoomCount = intCell(e)
	case models.ColBathroomCount:
		r.BathroomCount = intCell(e)
	case models.ColAgeYears:
		r.AgeYears = intCell(e)
	case models.ColDistanceKm:
		r.DistanceKm = floatCell(e)
	case models.ColPriceSAR:
		r.PriceSAR = floatCell(e)
	}
}

func intCell(e series.Element) *int {
	v, err := e.Int()
	if err != nil {
		return nil
	}
	return &v
}

func floatCell(e series.Element) *float64 {
	v := e.Float()
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// WriteCSV writes the table's columns with a header row. Numbers use the shortest
// plain decimal form that parses back to the same value.
func WriteCSV(w io.Writer, table *models.PropertyTable) error {
	cols := make([]series.Series, 0, len(table.Columns))
	for _, col := range table.Columns {
		values := make([]string, table.Len())
		for i, r := range table.Records {
			values[i] = formatCell(r, col)
		}
		cols = append(cols, series.New(values, series.String, col))
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return fmt.Errorf("failed to build dataframe: %w", df.Err)
	}
	return df.WriteCSV(w)
}

// SaveCSV writes the table to path, replacing any existing file only once the
// whole table has been written.
func SaveCSV(path string, table *models.PropertyTable) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".csv-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func formatCell(r models.PropertyRecord, column string) string {
	if models.IsCategorical(column) {
		if v, ok := r.Category(column); ok {
			return v
		}
		return missingCell
	}
	v, ok := r.Number(column)
	if !ok {
		return missingCell
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
