package models

// PropertyStats summarizes a whole table
type PropertyStats struct {
	TotalProperties int     `json:"total_properties" yaml:"total_properties"`
	AveragePrice    float64 `json:"average_price" yaml:"average_price"`
	MinPrice        float64 `json:"min_price" yaml:"min_price"`
	MaxPrice        float64 `json:"max_price" yaml:"max_price"`
	AverageArea     float64 `json:"average_area" yaml:"average_area"`
}

// DistrictStats is one row of the per-district view
type DistrictStats struct {
	District      string   `json:"district" yaml:"district"`
	PropertyCount int      `json:"property_count" yaml:"property_count"`
	AveragePrice  float64  `json:"average_price" yaml:"average_price"`
	MedianPrice   float64  `json:"median_price" yaml:"median_price"`
	MinPrice      float64  `json:"min_price" yaml:"min_price"`
	MaxPrice      float64  `json:"max_price" yaml:"max_price"`
	StdDevPrice   *float64 `json:"std_dev_price" yaml:"std_dev_price"`
	AverageArea   float64  `json:"average_area" yaml:"average_area"`
}

// PropertyTypeStats is one row of the per-type view
type PropertyTypeStats struct {
	PropertyType  string  `json:"property_type" yaml:"property_type"`
	PropertyCount int     `json:"property_count" yaml:"property_count"`
	AveragePrice  float64 `json:"average_price" yaml:"average_price"`
	MedianPrice   float64 `json:"median_price" yaml:"median_price"`
	MinPrice      float64 `json:"min_price" yaml:"min_price"`
	MaxPrice      float64 `json:"max_price" yaml:"max_price"`
	AverageArea   float64 `json:"average_area" yaml:"average_area"`
	AverageRooms  float64 `json:"average_rooms" yaml:"average_rooms"`
}

// DistrictComparison is one row of a side-by-side district comparison
type DistrictComparison struct {
	District      string  `json:"district" yaml:"district"`
	AveragePrice  float64 `json:"average_price" yaml:"average_price"`
	MedianPrice   float64 `json:"median_price" yaml:"median_price"`
	PropertyCount int     `json:"property_count" yaml:"property_count"`
	AverageArea   float64 `json:"average_area" yaml:"average_area"`
	AverageRooms  float64 `json:"average_rooms" yaml:"average_rooms"`
}

// CategoryCount pairs a category label with its frequency
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// MarketTrends is the headline summary of the market
type MarketTrends struct {
	TotalProperties          int             `json:"total_properties" yaml:"total_properties"`
	AveragePrice             float64         `json:"average_price" yaml:"average_price"`
	AverageArea              float64         `json:"average_area" yaml:"average_area"`
	MostActiveDistricts      []CategoryCount `json:"most_active_districts" yaml:"most_active_districts"`
	PropertyTypeDistribution []CategoryCount `json:"property_type_distribution" yaml:"property_type_distribution"`
	AveragePricePerSqm       float64         `json:"average_price_per_sqm" yaml:"average_price_per_sqm"`
}

// PricedProperty is a record annotated with its price per square meter
type PricedProperty struct {
	Row         int            `json:"row" yaml:"row"`
	Property    PropertyRecord `json:"property" yaml:"property"`
	PricePerSqm float64        `json:"price_per_sqm" yaml:"price_per_sqm"`
}
