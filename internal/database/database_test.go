package database

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riyadhestate/server/internal/dataset"
	"riyadhestate/server/internal/logging"
	"riyadhestate/server/internal/models"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "data", "estate.db"), 7, logging.Discard())
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_InvalidBatchSize(t *testing.T) {
	_, err := NewDatabase(filepath.Join(t.TempDir(), "estate.db"), 0, nil)
	assert.Error(t, err)
}

func TestSaveAndLoadTable(t *testing.T) {
	db := setupTestDB(t)

	table, err := dataset.Generate(30, 42)
	require.NoError(t, err)
	table.Records[3].District = ""
	table.Records[4].PriceSAR = nil

	saved, err := db.SaveTable("riyadh-2024", table)
	require.NoError(t, err)
	assert.Equal(t, 30, saved.RowCount)
	assert.NotEmpty(t, saved.ID)

	loaded, err := db.LoadTable("riyadh-2024")
	require.NoError(t, err)
	if diff := cmp.Diff(table, loaded); diff != "" {
		t.Errorf("stored table differs (-want +got):\n%s", diff)
	}
}

func TestSaveTable_Replaces(t *testing.T) {
	db := setupTestDB(t)

	first, err := dataset.Generate(10, 1)
	require.NoError(t, err)
	_, err = db.SaveTable("listings", first)
	require.NoError(t, err)

	second, err := dataset.Generate(40, 2)
	require.NoError(t, err)
	cleaned, err := dataset.Clean(second)
	require.NoError(t, err)
	_, err = db.SaveTable("listings", cleaned)
	require.NoError(t, err)

	loaded, err := db.LoadTable("listings")
	require.NoError(t, err)
	assert.Equal(t, cleaned.Len(), loaded.Len())
	assert.True(t, loaded.Cleaned)

	var rows int64
	require.NoError(t, db.db.Model(&PropertyRow{}).Count(&rows).Error)
	assert.Equal(t, int64(cleaned.Len()), rows)
}

func TestSaveTable_PartialColumns(t *testing.T) {
	db := setupTestDB(t)

	table := &models.PropertyTable{
		Columns: []string{models.ColDistrict, models.ColAreaSqm},
		Records: []models.PropertyRecord{{District: "Olaya", AreaSqm: models.IntPtr(120)}},
	}
	_, err := db.SaveTable("partial", table)
	require.NoError(t, err)

	loaded, err := db.LoadTable("partial")
	require.NoError(t, err)
	assert.Equal(t, table.Columns, loaded.Columns)
	assert.ErrorIs(t, loaded.Require(models.ColPriceSAR), models.ErrMissingColumn)
}

func TestSaveTable_EmptyName(t *testing.T) {
	db := setupTestDB(t)
	_, err := db.SaveTable("  ", models.NewPropertyTable(nil))
	assert.Error(t, err)
}

func TestListAndDeleteDatasets(t *testing.T) {
	db := setupTestDB(t)

	for _, name := range []string{"north", "east", "west"} {
		table, err := dataset.Generate(3, 5)
		require.NoError(t, err)
		_, err = db.SaveTable(name, table)
		require.NoError(t, err)
	}

	datasets, err := db.ListDatasets()
	require.NoError(t, err)
	require.Len(t, datasets, 3)
	assert.Equal(t, "east", datasets[0].Name)
	assert.Equal(t, "west", datasets[2].Name)

	require.NoError(t, db.DeleteDataset("east"))
	assert.ErrorIs(t, db.DeleteDataset("east"), ErrDatasetNotFound)

	_, err = db.LoadTable("east")
	assert.ErrorIs(t, err, ErrDatasetNotFound)

	datasets, err = db.ListDatasets()
	require.NoError(t, err)
	assert.Len(t, datasets, 2)
}
