// Package mapview places bands on a map of Michigan and hands the markers to a [Renderer].
package mapview

import (
	"errors"
	"hash/fnv"

	"github.com/desertthunder/mibands/internal/models"
)

// jitterSpan is the full width, in degrees, of the offset applied around a region center.
const jitterSpan = 0.12

var (
	ErrNotInitialized = errors.New("map view not initialized")
	ErrClosed         = errors.New("map view closed")
)

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Marker is a single band pin.
type Marker struct {
	LatLng
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
	Link   string `json:"link"`
}

// View is the initial viewport.
type View struct {
	Center LatLng
	Zoom   int
}

// DefaultView frames the lower peninsula and the UP.
var DefaultView = View{Center: LatLng{Lat: 44.2, Lng: -84.5}, Zoom: 6}

var regionCenters = map[models.Region]LatLng{
	models.RegionDetroitMetro:   {42.3314, -83.0458},
	models.RegionAnnArbor:       {42.2808, -83.7430},
	models.RegionWestMI:         {42.9634, -85.6681}, // Grand Rapids
	models.RegionLansingJackson: {42.7325, -84.5555},
	models.RegionFlintSaginaw:   {43.0125, -83.6875},
	models.RegionNorthernMI:     {44.7631, -85.6206}, // Traverse City
	models.RegionUP:             {46.5436, -87.3956}, // Marquette
}

// RegionCenter returns the anchor point for a region. Unknown or empty regions fall back to Detroit Metro.
func RegionCenter(region string) LatLng {
	if r, ok := models.ParseRegion(region); ok {
		return regionCenters[r]
	}
	return regionCenters[models.RegionDetroitMetro]
}

// Renderer draws markers onto some surface. Init is called once per view,
// Render with the full marker set, and Close when the view is torn down.
type Renderer interface {
	Init(View) error
	Render([]Marker) error
	Close() error
}

// MarkerFor places b near its region center. The offset is derived from the band id,
// so the same band always lands on the same spot.
func MarkerFor(b models.Band) Marker {
	center := RegionCenter(string(b.Region))
	detail := b.City
	if detail == "" {
		detail = string(b.Region)
	}
	return Marker{
		LatLng: LatLng{
			Lat: center.Lat + jitter(b.ID, "lat"),
			Lng: center.Lng + jitter(b.ID, "lng"),
		},
		Label:  b.Name,
		Detail: detail,
		Link:   b.Path(),
	}
}

// Markers maps bands to markers, preserving order.
func Markers(bands []models.Band) []Marker {
	out := make([]Marker, 0, len(bands))
	for _, b := range bands {
		out = append(out, MarkerFor(b))
	}
	return out
}

// Draw runs a full Init, Render, Close cycle. Close always runs once Init succeeded.
func Draw(r Renderer, v View, markers []Marker) (err error) {
	if err := r.Init(v); err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); err == nil {
			err = cerr
		}
	}()
	return r.Render(markers)
}

// jitter returns an offset in [-jitterSpan/2, jitterSpan/2).
func jitter(id, axis string) float64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write([]byte(axis))
	frac := float64(h.Sum64()>>11) / float64(1<<53)
	return (frac - 0.5) * jitterSpan
}
