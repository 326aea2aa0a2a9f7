package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riyadhestate/server/internal/models"
)

func record(district string, area int, price float64) models.PropertyRecord {
	return models.PropertyRecord{
		District:      district,
		PropertyType:  "apartment",
		AreaSqm:       models.IntPtr(area),
		RoomCount:     models.IntPtr(3),
		BathroomCount: models.IntPtr(2),
		AgeYears:      models.IntPtr(5),
		DistanceKm:    models.FloatPtr(10),
		PriceSAR:      models.FloatPtr(price),
	}
}

// keepAll has bounds at the minimum and maximum, so trimming removes nothing
var keepAll = Cleaner{LowerQuantile: 0, UpperQuantile: 1}

func TestClean_EmptyInput(t *testing.T) {
	_, _, err := DefaultCleaner().Clean(models.NewPropertyTable(nil))
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Clean(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClean_InvalidBounds(t *testing.T) {
	table := models.NewPropertyTable([]models.PropertyRecord{record("Olaya", 100, 1000)})
	_, _, err := Cleaner{LowerQuantile: 0.9, UpperQuantile: 0.1}.Clean(table)
	assert.Error(t, err)
}

func TestClean_DropsDuplicates(t *testing.T) {
	table := models.NewPropertyTable([]models.PropertyRecord{
		record("Olaya", 100, 1000),
		record("Malqa", 200, 2000),
		record("Olaya", 100, 1000),
	})

	cleaned, report, err := keepAll.Clean(table)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 1, report.Duplicates)
	assert.Equal(t, "Olaya", cleaned.Records[0].District)
	assert.Equal(t, "Malqa", cleaned.Records[1].District)
}

func TestClean_DropsIncomplete(t *testing.T) {
	noPrice := record("Yasmin", 300, 0)
	noPrice.PriceSAR = nil
	noDistrict := record("", 400, 4000)

	table := models.NewPropertyTable([]models.PropertyRecord{
		record("Olaya", 100, 1000),
		noPrice,
		noDistrict,
		record("Malqa", 200, 2000),
	})

	cleaned, report, err := keepAll.Clean(table)
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
	assert.Equal(t, 2, report.Incomplete)
	for _, r := range cleaned.Records {
		assert.True(t, r.IsComplete(models.AllColumns))
	}
}

func TestClean_TrimsPriceOutliers(t *testing.T) {
	var records []models.PropertyRecord
	for _, price := range []float64{10, 20, 30, 40, 50} {
		records = append(records, record("Olaya", 100, price))
	}

	cleaned, report, err := DefaultCleaner().Clean(models.NewPropertyTable(records))
	require.NoError(t, err)

	// bounds are 10.4 and 49.6
	require.Equal(t, 3, cleaned.Len())
	assert.Equal(t, 2, report.PriceOutliers)
	assert.Equal(t, 0, report.AreaOutliers)
	for i, want := range []float64{20, 30, 40} {
		assert.Equal(t, want, *cleaned.Records[i].PriceSAR)
	}
}

func TestClean_TrimsSequentially(t *testing.T) {
	// Area bounds come from the rows left after price trimming. Computed on the
	// original rows they would keep area 400 as well.
	table := models.NewPropertyTable([]models.PropertyRecord{
		record("Olaya", 1000, 10),
		record("Malqa", 200, 20),
		record("Narjis", 300, 30),
		record("Yasmin", 400, 40),
		record("Rabwa", 500, 50),
	})

	cleaned, report, err := DefaultCleaner().Clean(table)
	require.NoError(t, err)
	require.Equal(t, 1, cleaned.Len())
	assert.Equal(t, "Narjis", cleaned.Records[0].District)
	assert.Equal(t, CleanReport{
		InputRows:     5,
		PriceOutliers: 2,
		AreaOutliers:  2,
		OutputRows:    1,
	}, report)
}

func TestClean_SkipsTrimForAbsentColumn(t *testing.T) {
	var records []models.PropertyRecord
	for _, price := range []float64{10, 20, 30, 40, 50} {
		records = append(records, record("Olaya", 100, price))
	}
	table := &models.PropertyTable{
		Columns: []string{models.ColDistrict, models.ColAreaSqm},
		Records: records,
	}

	cleaned, report, err := DefaultCleaner().Clean(table)
	require.NoError(t, err)
	assert.Equal(t, 0, report.PriceOutliers)
	// all rows have equal area and the same district, so they collapse to one
	assert.Equal(t, 4, report.Duplicates)
	assert.Equal(t, 1, cleaned.Len())
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	table, err := Generate(100, 42)
	require.NoError(t, err)
	table.Records = append(table.Records, table.Records[0])
	snapshot := table.Clone()

	_, err = Clean(table)
	require.NoError(t, err)

	if diff := cmp.Diff(snapshot, table); diff != "" {
		t.Errorf("input changed (-before +after):\n%s", diff)
	}
}

func TestClean_Idempotent(t *testing.T) {
	table, err := Generate(300, 42)
	require.NoError(t, err)

	once, err := Clean(table)
	require.NoError(t, err)
	assert.True(t, once.Cleaned)
	assert.Less(t, once.Len(), table.Len())

	twice, report, err := DefaultCleaner().Clean(once)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("second clean changed the table (-once +twice):\n%s", diff)
	}
}

func TestClean_SmallInput(t *testing.T) {
	table, err := Generate(5, 42)
	require.NoError(t, err)

	cleaned, report, err := DefaultCleaner().Clean(table)
	require.NoError(t, err)
	assert.Equal(t, 5, report.InputRows)
	assert.Equal(t, report.OutputRows, cleaned.Len())
	assert.LessOrEqual(t, cleaned.Len(), 5)
}
