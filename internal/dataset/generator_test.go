package dataset

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/models"
)

func TestGenerate(t *testing.T) {
	table, err := Generate(200, 42)
	require.NoError(t, err)
	require.Equal(t, 200, table.Len())
	assert.Equal(t, models.AllColumns, table.Columns)
	assert.False(t, table.Cleaned)

	for i, r := range table.Records {
		assert.NotNil(t, config.GetDistrictByName(r.District), "row %d district %q", i, r.District)
		assert.Contains(t, config.PropertyTypes, r.PropertyType)
		assert.True(t, r.IsComplete(models.AllColumns), "row %d incomplete", i)

		assert.GreaterOrEqual(t, *r.AreaSqm, MinArea)
		assert.Less(t, *r.AreaSqm, MaxArea)
		assert.GreaterOrEqual(t, *r.RoomCount, MinRooms)
		assert.Less(t, *r.RoomCount, MaxRooms)
		assert.GreaterOrEqual(t, *r.BathroomCount, MinBathrooms)
		assert.Less(t, *r.BathroomCount, MaxBathrooms)
		assert.GreaterOrEqual(t, *r.AgeYears, MinAge)
		assert.Less(t, *r.AgeYears, MaxAge)
		assert.GreaterOrEqual(t, *r.DistanceKm, MinDistance)
		assert.Less(t, *r.DistanceKm, MaxDistanceKm)
		assert.GreaterOrEqual(t, *r.PriceSAR, PriceFloor)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	first, err := Generate(50, 7)
	require.NoError(t, err)
	second, err := Generate(50, 7)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same seed produced different tables (-first +second):\n%s", diff)
	}

	other, err := Generate(50, 8)
	require.NoError(t, err)
	assert.NotEqual(t, first.Records, other.Records)
}

func TestGenerate_EdgeCases(t *testing.T) {
	empty, err := Generate(0, 42)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
	assert.Equal(t, models.AllColumns, empty.Columns)

	_, err = Generate(-1, 42)
	assert.Error(t, err)
}

func TestSyntheticPrice(t *testing.T) {
	tests := []struct {
		name         string
		propertyType string
		area         int
		rooms        int
		age          int
		distance     float64
		want         float64
	}{
		{"apartment", config.PropertyTypeApartment, 100, 2, 5, 10, 500000 + 150000 + 100000 - 50000 + 200000},
		{"villa", config.PropertyTypeVilla, 100, 2, 5, 10, 500000 + 225000 + 100000 - 50000 + 200000},
		{"land", config.PropertyTypeLand, 100, 2, 5, 10, 500000 + 120000 + 100000 - 50000 + 200000},
		{"far away", config.PropertyTypeApartment, 100, 1, 0, 50, 500000 + 150000 + 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SyntheticPrice(tt.propertyType, tt.area, tt.rooms, tt.age, tt.distance)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}
