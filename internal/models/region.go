package models

import "strings"

// Region is one of the fixed Michigan geographic clusters a band can belong to.
type Region string

const (
	RegionDetroitMetro   Region = "Detroit Metro"
	RegionAnnArbor       Region = "Ann Arbor"
	RegionWestMI         Region = "West MI"
	RegionLansingJackson Region = "Lansing/Jackson"
	RegionFlintSaginaw   Region = "Flint/Saginaw"
	RegionNorthernMI     Region = "Northern MI"
	RegionUP             Region = "UP"
)

// AllRegions is the listing filter value that matches every region. It is never stored.
const AllRegions = "All Regions"

// DefaultRegion is preselected on the submit form.
const DefaultRegion = RegionDetroitMetro

// Regions lists every region in display order.
var Regions = []Region{
	RegionDetroitMetro,
	RegionAnnArbor,
	RegionWestMI,
	RegionLansingJackson,
	RegionFlintSaginaw,
	RegionNorthernMI,
	RegionUP,
}

// Valid reports whether r is one of [Regions].
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

func (r Region) String() string {
	return string(r)
}

// ParseRegion matches s case-insensitively against the known regions.
func ParseRegion(s string) (Region, bool) {
	s = strings.TrimSpace(s)
	for _, known := range Regions {
		if strings.EqualFold(s, string(known)) {
			return known, true
		}
	}
	return "", false
}

// RegionNames returns the region values as strings, for forms and messages.
func RegionNames() []string {
	names := make([]string, len(Regions))
	for i, r := range Regions {
		names[i] = string(r)
	}
	return names
}
