// Package analysis computes market summaries over property tables.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/models"
	"riyadhestate/server/internal/stats"
)

// TopDistricts is how many districts MarketTrends reports as most active
const TopDistricts = 3

// MarketAnalyzer answers aggregate questions about one table.
// Every view reads the table without changing it.
type MarketAnalyzer struct {
	table *models.PropertyTable
}

// NewMarketAnalyzer creates an analyzer over table
func NewMarketAnalyzer(table *models.PropertyTable) *MarketAnalyzer {
	if table == nil {
		table = models.NewPropertyTable(nil)
	}
	return &MarketAnalyzer{table: table}
}

// group collects the values of the rows sharing one category label
type group struct {
	key    string
	prices []float64
	areas  []float64
	rooms  []float64
}

// Statistics summarizes prices and areas over the whole table. Unlike the
// grouped views its values are not rounded.
func (a *MarketAnalyzer) Statistics() (models.PropertyStats, error) {
	if err := a.table.Require(models.ColPriceSAR, models.ColAreaSqm); err != nil {
		return models.PropertyStats{}, err
	}

	prices := a.values(models.ColPriceSAR)
	result := models.PropertyStats{
		TotalProperties: a.table.Len(),
		AveragePrice:    mean(prices),
		AverageArea:     mean(a.values(models.ColAreaSqm)),
	}
	if len(prices) > 0 {
		result.MinPrice = floats.Min(prices)
		result.MaxPrice = floats.Max(prices)
	}
	return result, nil
}

// ByDistrict reports price statistics per district, most expensive first.
// The standard deviation is left out for districts with a single listing.
func (a *MarketAnalyzer) ByDistrict() ([]models.DistrictStats, error) {
	if err := a.table.Require(models.ColDistrict, models.ColPriceSAR, models.ColAreaSqm); err != nil {
		return nil, err
	}

	groups := a.groupBy(models.ColDistrict)
	result := make([]models.DistrictStats, 0, len(groups))
	for _, g := range groups {
		row := models.DistrictStats{
			District:      g.key,
			PropertyCount: len(g.prices),
			AveragePrice:  round2(stat.Mean(g.prices, nil)),
			MedianPrice:   round2(stats.Median(g.prices)),
			MinPrice:      round2(floats.Min(g.prices)),
			MaxPrice:      round2(floats.Max(g.prices)),
			AverageArea:   round2(mean(g.areas)),
		}
		if len(g.prices) > 1 {
			std := round2(stat.StdDev(g.prices, nil))
			row.StdDevPrice = &std
		}
		result = append(result, row)
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].AveragePrice > result[j].AveragePrice })
	return result, nil
}

// ByPropertyType reports price statistics per property type, most expensive first
func (a *MarketAnalyzer) ByPropertyType() ([]models.PropertyTypeStats, error) {
	if err := a.table.Require(models.ColPropertyType, models.ColPriceSAR, models.ColAreaSqm, models.ColRoomCount); err != nil {
		return nil, err
	}

	groups := a.groupBy(models.ColPropertyType)
	result := make([]models.PropertyTypeStats, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.PropertyTypeStats{
			PropertyType:  g.key,
			PropertyCount: len(g.prices),
			AveragePrice:  round2(stat.Mean(g.prices, nil)),
			MedianPrice:   round2(stats.Median(g.prices)),
			MinPrice:      round2(floats.Min(g.prices)),
			MaxPrice:      round2(floats.Max(g.prices)),
			AverageArea:   round2(mean(g.areas)),
			AverageRooms:  round2(mean(g.rooms)),
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].AveragePrice > result[j].AveragePrice })
	return result, nil
}

// PricePerSqm annotates every row that has a finite price per square meter
func (a *MarketAnalyzer) PricePerSqm() ([]models.PricedProperty, error) {
	if err := a.table.Require(models.ColPriceSAR, models.ColAreaSqm); err != nil {
		return nil, err
	}

	result := make([]models.PricedProperty, 0, a.table.Len())
	for i, r := range a.table.Records {
		ratio, ok := pricePerSqm(r)
		if !ok {
			continue
		}
		result = append(result, models.PricedProperty{Row: i, Property: r, PricePerSqm: ratio})
	}
	return result, nil
}

// BestValue returns the n rows with the lowest price per square meter,
// cheapest first. Equal ratios keep table order.
func (a *MarketAnalyzer) BestValue(n int) ([]models.PricedProperty, error) {
	priced, err := a.PricePerSqm()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return []models.PricedProperty{}, nil
	}

	sort.SliceStable(priced, func(i, j int) bool { return priced[i].PricePerSqm < priced[j].PricePerSqm })
	if n < len(priced) {
		priced = priced[:n]
	}
	return priced, nil
}

// MarketTrends gives the headline numbers, the busiest districts and the mix of property types
func (a *MarketAnalyzer) MarketTrends() (models.MarketTrends, error) {
	if err := a.table.Require(models.ColDistrict, models.ColPropertyType, models.ColPriceSAR, models.ColAreaSqm); err != nil {
		return models.MarketTrends{}, err
	}

	priced, err := a.PricePerSqm()
	if err != nil {
		return models.MarketTrends{}, err
	}
	ratios := make([]float64, len(priced))
	for i, p := range priced {
		ratios[i] = p.PricePerSqm
	}

	districts := a.counts(models.ColDistrict)
	if len(districts) > TopDistricts {
		districts = districts[:TopDistricts]
	}

	return models.MarketTrends{
		TotalProperties:          a.table.Len(),
		AveragePrice:             round2(mean(a.values(models.ColPriceSAR))),
		AverageArea:              round2(mean(a.values(models.ColAreaSqm))),
		MostActiveDistricts:      districts,
		PropertyTypeDistribution: a.counts(models.ColPropertyType),
		AveragePricePerSqm:       round2(mean(ratios)),
	}, nil
}

// CompareDistricts puts the named districts side by side, ordered by name.
// Names match regardless of case or an "al-" prefix; unknown names are skipped.
func (a *MarketAnalyzer) CompareDistricts(names []string) ([]models.DistrictComparison, error) {
	if err := a.table.Require(models.ColDistrict, models.ColPriceSAR, models.ColAreaSqm, models.ColRoomCount); err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if slug := config.NormalizeDistrict(name); slug != "" {
			wanted[slug] = true
		}
	}

	result := make([]models.DistrictComparison, 0, len(names))
	for _, g := range a.groupBy(models.ColDistrict) {
		if !wanted[config.NormalizeDistrict(g.key)] {
			continue
		}
		result = append(result, models.DistrictComparison{
			District:      g.key,
			AveragePrice:  round2(stat.Mean(g.prices, nil)),
			MedianPrice:   round2(stats.Median(g.prices)),
			PropertyCount: len(g.prices),
			AverageArea:   round2(mean(g.areas)),
			AverageRooms:  round2(mean(g.rooms)),
		})
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].District < result[j].District })
	return result, nil
}

// groupBy groups priced rows by a categorical column in first-appearance order.
// Rows without a label or a price are left out.
func (a *MarketAnalyzer) groupBy(column string) []*group {
	index := make(map[string]*group)
	var groups []*group
	for _, r := range a.table.Records {
		key, ok := r.Category(column)
		if !ok {
			continue
		}
		price, ok := r.Number(models.ColPriceSAR)
		if !ok || math.IsNaN(price) {
			continue
		}

		g, exists := index[key]
		if !exists {
			g = &group{key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.prices = append(g.prices, price)
		if area, ok := r.Number(models.ColAreaSqm); ok {
			g.areas = append(g.areas, area)
		}
		if rooms, ok := r.Number(models.ColRoomCount); ok {
			g.rooms = append(g.rooms, rooms)
		}
	}
	return groups
}

// counts tallies a categorical column, most frequent first with ties in first-appearance order
func (a *MarketAnalyzer) counts(column string) []models.CategoryCount {
	index := make(map[string]int)
	var result []models.CategoryCount
	for _, r := range a.table.Records {
		key, ok := r.Category(column)
		if !ok {
			continue
		}
		i, exists := index[key]
		if !exists {
			i = len(result)
			index[key] = i
			result = append(result, models.CategoryCount{Value: key})
		}
		result[i].Count++
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	if result == nil {
		result = []models.CategoryCount{}
	}
	return result
}

func (a *MarketAnalyzer) values(column string) []float64 {
	values := make([]float64, 0, a.table.Len())
	for _, r := range a.table.Records {
		if v, ok := r.Number(column); ok && !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	return values
}

func pricePerSqm(r models.PropertyRecord) (float64, bool) {
	price, ok := r.Number(models.ColPriceSAR)
	if !ok {
		return 0, false
	}
	area, ok := r.Number(models.ColAreaSqm)
	if !ok {
		return 0, false
	}
	ratio := price / area
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0, false
	}
	return ratio, true
}

// mean is stat.Mean with zero for no values, so reports stay JSON encodable
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
