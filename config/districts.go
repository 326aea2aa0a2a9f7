package config

import (
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

// District represents a Riyadh neighborhood known to the generator
type District struct {
	Name   string    `json:"name"`
	Center orb.Point `json:"center"`
}

// CityCenter is the reference point distances are measured from (King Fahd Rd / Olaya St)
var CityCenter = orb.Point{46.6753, 24.7136}

// SupportedDistricts is the fixed enumeration districts are drawn from
var SupportedDistricts = []District{
	{Name: "Olaya", Center: orb.Point{46.6850, 24.6900}},
	{Name: "Malqa", Center: orb.Point{46.6100, 24.8000}},
	{Name: "Narjis", Center: orb.Point{46.6600, 24.8600}},
	{Name: "Yasmin", Center: orb.Point{46.6400, 24.8250}},
	{Name: "Rabwa", Center: orb.Point{46.7600, 24.6900}},
	{Name: "Muruj", Center: orb.Point{46.6550, 24.7550}},
	{Name: "Malaz", Center: orb.Point{46.7300, 24.6650}},
	{Name: "Sulaimaniyah", Center: orb.Point{46.7000, 24.7000}},
	{Name: "Wurud", Center: orb.Point{46.6800, 24.7250}},
	{Name: "Ghadir", Center: orb.Point{46.6600, 24.7750}},
}

// Property types and their price multipliers
const (
	PropertyTypeApartment = "apartment"
	PropertyTypeVilla     = "villa"
	PropertyTypeLand      = "land"
)

// PropertyTypes lists the property types in generation order
var PropertyTypes = []string{PropertyTypeApartment, PropertyTypeVilla, PropertyTypeLand}

// TypeMultipliers scales the area component of the synthetic price
var TypeMultipliers = map[string]float64{
	PropertyTypeApartment: 1.0,
	PropertyTypeVilla:     1.5,
	PropertyTypeLand:      0.8,
}

// GetDistrictNames returns the names of the supported districts in catalog order
func GetDistrictNames() []string {
	names := make([]string, len(SupportedDistricts))
	for i, district := range SupportedDistricts {
		names[i] = district.Name
	}
	return names
}

// GetDistrictByName returns a district by name, ignoring case, spacing and an "al-" prefix
func GetDistrictByName(name string) *District {
	wanted := NormalizeDistrict(name)
	for _, district := range SupportedDistricts {
		if NormalizeDistrict(district.Name) == wanted {
			d := district
			return &d
		}
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// NormalizeDistrict converts a district name into a lookup slug
func NormalizeDistrict(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlug.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	slug = strings.TrimPrefix(slug, "al-")
	return slug
}
