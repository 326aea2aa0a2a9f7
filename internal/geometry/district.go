// Package geometry places district statistics on the map.
package geometry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"riyadhestate/server/config"
	"riyadhestate/server/internal/models"
)

// DistanceFromCenter returns the distance in km from the city center to a
// catalog district's center
func DistanceFromCenter(district string) (float64, bool) {
	d := config.GetDistrictByName(district)
	if d == nil {
		return 0, false
	}
	return geo.Distance(config.CityCenter, d.Center) / 1000, true
}

// DistrictMap turns per-district statistics into a GeoJSON collection with one
// point per catalog district. When three or more districts are placed, the
// collection also carries their convex hull as a coverage polygon.
func DistrictMap(stats []models.DistrictStats) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var points []orb.Point
	var unplaced []string
	for _, s := range stats {
		d := config.GetDistrictByName(s.District)
		if d == nil {
			unplaced = append(unplaced, s.District)
			continue
		}

		feature := geojson.NewFeature(d.Center)
		feature.Properties = geojson.Properties{
			"district":       s.District,
			"property_count": s.PropertyCount,
			"average_price":  s.AveragePrice,
			"median_price":   s.MedianPrice,
			"min_price":      s.MinPrice,
			"max_price":      s.MaxPrice,
			"average_area":   s.AverageArea,
			"geometry_type":  "centroid",
		}
		if s.StdDevPrice != nil {
			feature.Properties["std_dev_price"] = *s.StdDevPrice
		}
		if km, ok := DistanceFromCenter(s.District); ok {
			feature.Properties["distance_km"] = km
		}
		fc.Append(feature)
		points = append(points, d.Center)
	}

	if hull := convexHull(points); hull != nil {
		coverage := geojson.NewFeature(orb.Polygon{hull})
		coverage.Properties = geojson.Properties{
			"geometry_type": "hull",
			"hull_type":     "convex",
			"point_count":   len(points),
		}
		fc.Append(coverage)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(orb.MultiPoint(points).Bound())
	}
	fc.ExtraMembers = geojson.Properties{
		"metadata": map[string]interface{}{
			"generated": time.Now().UTC().Format(time.RFC3339),
			"districts": len(points),
			"unplaced":  unplaced,
		},
	}
	return fc
}

// SaveDistrictMap writes the collection as indented GeoJSON
func SaveDistrictMap(path string, fc *geojson.FeatureCollection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create map directory: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(fc); err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %v", err)
	}
	return nil
}

// convexHull returns the closed counter-clockwise hull ring, or nil for fewer
// than three distinct points or collinear input
func convexHull(points []orb.Point) orb.Ring {
	pts := append([]orb.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	var unique []orb.Point
	for _, p := range pts {
		if len(unique) == 0 || !p.Equal(unique[len(unique)-1]) {
			unique = append(unique, p)
		}
	}
	if len(unique) < 3 {
		return nil
	}

	hull := make([]orb.Point, 0, 2*len(unique))
	for _, p := range unique {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(unique) - 2; i >= 0; i-- {
		p := unique[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// the last point repeats the first, closing the ring
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}
