// Package dataset generates, cleans and serializes property tables.
package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/models"
)

// Pricing formula constants
const (
	BasePrice      = 500000.0
	PricePerSqm    = 1500.0
	PricePerRoom   = 50000.0
	AgePenalty     = 10000.0
	LocationFactor = 5000.0
	MaxDistanceKm  = 50.0
	NoiseStdDev    = 100000.0
	PriceFloor     = 100000.0
)

// Attribute ranges, half-open [min, max)
const (
	MinArea      = 100
	MaxArea      = 1000
	MinRooms     = 1
	MaxRooms     = 8
	MinBathrooms = 1
	MaxBathrooms = 6
	MinAge       = 0
	MaxAge       = 30
	MinDistance  = 1.0
)

// Generate produces n synthetic properties. The same seed always yields the same table.
func Generate(n int, seed int64) (*models.PropertyTable, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid sample count: %d", n)
	}

	rng := rand.New(rand.NewSource(seed))
	districts := config.GetDistrictNames()

	// Draw column by column from the one source
	district := make([]string, n)
	for i := range district {
		district[i] = districts[rng.Intn(len(districts))]
	}
	propertyType := make([]string, n)
	for i := range propertyType {
		propertyType[i] = config.PropertyTypes[rng.Intn(len(config.PropertyTypes))]
	}
	area := uniformInts(rng, n, MinArea, MaxArea)
	rooms := uniformInts(rng, n, MinRooms, MaxRooms)
	bathrooms := uniformInts(rng, n, MinBathrooms, MaxBathrooms)
	age := uniformInts(rng, n, MinAge, MaxAge)
	distance := make([]float64, n)
	for i := range distance {
		distance[i] = MinDistance + rng.Float64()*(MaxDistanceKm-MinDistance)
	}
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = rng.NormFloat64() * NoiseStdDev
	}

	records := make([]models.PropertyRecord, n)
	for i := range records {
		price := SyntheticPrice(propertyType[i], area[i], rooms[i], age[i], distance[i]) + noise[i]
		records[i] = models.PropertyRecord{
			District:      district[i],
			PropertyType:  propertyType[i],
			AreaSqm:       models.IntPtr(area[i]),
			RoomCount:     models.IntPtr(rooms[i]),
			BathroomCount: models.IntPtr(bathrooms[i]),
			AgeYears:      models.IntPtr(age[i]),
			DistanceKm:    models.FloatPtr(distance[i]),
			PriceSAR:      models.FloatPtr(math.Max(price, PriceFloor)),
		}
	}

	return models.NewPropertyTable(records), nil
}

// SyntheticPrice is the noise-free part of the pricing formula
func SyntheticPrice(propertyType string, area, rooms, age int, distanceKm float64) float64 {
	return BasePrice +
		float64(area)*PricePerSqm*config.TypeMultipliers[propertyType] +
		float64(rooms)*PricePerRoom -
		float64(age)*AgePenalty +
		(MaxDistanceKm-distanceKm)*LocationFactor
}

func uniformInts(rng *rand.Rand, n, lo, hi int) []int {
	values := make([]int, n)
	for i := range values {
		values[i] = lo + rng.Intn(hi-lo)
	}
	return values
}
