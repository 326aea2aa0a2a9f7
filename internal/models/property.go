package models

import (
	"strconv"
	"strings"
)

// Column names of a property table
const (
	ColDistrict      = "district"
	ColPropertyType  = "property_type"
	ColAreaSqm       = "area_sqm"
	ColRoomCount     = "room_count"
	ColBathroomCount = "bathroom_count"
	ColAgeYears      = "age_years"
	ColDistanceKm    = "distance_km"
	ColPriceSAR      = "price_sar"
)

// AllColumns is the canonical column order
var AllColumns = []string{
	ColDistrict,
	ColPropertyType,
	ColAreaSqm,
	ColRoomCount,
	ColBathroomCount,
	ColAgeYears,
	ColDistanceKm,
	ColPriceSAR,
}

// CategoricalColumns are the columns expanded by one-hot encoding
var CategoricalColumns = []string{ColDistrict, ColPropertyType}

// PropertyRecord is one listing. Empty strings and nil pointers mark missing values.
type PropertyRecord struct {
	District      string   `json:"district" yaml:"district"`
	PropertyType  string   `json:"property_type" yaml:"property_type"`
	AreaSqm       *int     `json:"area_sqm" yaml:"area_sqm"`
	RoomCount     *int     `json:"room_count" yaml:"room_count"`
	BathroomCount *int     `json:"bathroom_count" yaml:"bathroom_count"`
	AgeYears      *int     `json:"age_years" yaml:"age_years"`
	DistanceKm    *float64 `json:"distance_km" yaml:"distance_km"`
	PriceSAR      *float64 `json:"price_sar" yaml:"price_sar"`
}

// Category returns the value of a categorical column
func (r PropertyRecord) Category(column string) (string, bool) {
	switch column {
	case ColDistrict:
		return r.District, r.District != ""
	case ColPropertyType:
		return r.PropertyType, r.PropertyType != ""
	}
	return "", false
}

// Number returns the value of a numeric column
func (r PropertyRecord) Number(column string) (float64, bool) {
	switch column {
	case ColAreaSqm:
		return intValue(r.AreaSqm)
	case ColRoomCount:
		return intValue(r.RoomCount)
	case ColBathroomCount:
		return intValue(r.BathroomCount)
	case ColAgeYears:
		return intValue(r.AgeYears)
	case ColDistanceKm:
		return floatValue(r.DistanceKm)
	case ColPriceSAR:
		return floatValue(r.PriceSAR)
	}
	return 0, false
}

// IsComplete reports whether every given column has a value
func (r PropertyRecord) IsComplete(columns []string) bool {
	for _, col := range columns {
		if IsCategorical(col) {
			if _, ok := r.Category(col); !ok {
				return false
			}
			continue
		}
		if _, ok := r.Number(col); !ok {
			return false
		}
	}
	return true
}

// Key renders the given columns into a string that is equal for identical rows.
// Missing values render identically so they compare equal.
func (r PropertyRecord) Key(columns []string) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if IsCategorical(col) {
			v, ok := r.Category(col)
			if !ok {
				b.WriteString("\x00")
				continue
			}
			b.WriteString(strconv.Quote(v))
			continue
		}
		v, ok := r.Number(col)
		if !ok {
			b.WriteString("\x00")
			continue
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// IsCategorical reports whether a column holds category labels
func IsCategorical(column string) bool {
	return column == ColDistrict || column == ColPropertyType
}

// PropertyTable is an ordered collection of records together with the columns it carries.
// Cleaned marks tables produced by the cleaner.
type PropertyTable struct {
	Columns []string         `json:"columns" yaml:"columns"`
	Records []PropertyRecord `json:"records" yaml:"records"`
	Cleaned bool             `json:"cleaned" yaml:"cleaned"`
}

// NewPropertyTable creates a table carrying every column
func NewPropertyTable(records []PropertyRecord) *PropertyTable {
	return &PropertyTable{
		Columns: append([]string(nil), AllColumns...),
		Records: records,
	}
}

// Len returns the number of rows
func (t *PropertyTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// HasColumn reports whether the table carries a column
func (t *PropertyTable) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Require returns a ColumnError for the first absent column
func (t *PropertyTable) Require(columns ...string) error {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return &ColumnError{Column: col}
		}
	}
	return nil
}

// WithRecords returns a new, uncleaned table with the same columns and the given rows
func (t *PropertyTable) WithRecords(records []PropertyRecord) *PropertyTable {
	return &PropertyTable{
		Columns: append([]string(nil), t.Columns...),
		Records: records,
	}
}

// Clone returns a copy that shares no slices with t
func (t *PropertyTable) Clone() *PropertyTable {
	clone := t.WithRecords(append([]PropertyRecord(nil), t.Records...))
	clone.Cleaned = t.Cleaned
	return clone
}

func intValue(v *int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

func floatValue(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}

// FloatPtr returns a pointer to v
func FloatPtr(v float64) *float64 {
	return &v
}
