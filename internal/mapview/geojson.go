package mapview

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
)

type geoJSONGeometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string          `json:"type"`
	Geometry   geoJSONGeometry `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type geoJSONCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
	BBox     []float64        `json:"bbox,omitempty"`
}

// GeoJSON writes markers as a FeatureCollection of points. Coordinates follow RFC 7946 order (lng, lat).
type GeoJSON struct {
	w      io.Writer
	inited bool
	closed bool
}

func NewGeoJSON(w io.Writer) *GeoJSON {
	return &GeoJSON{w: w}
}

func (g *GeoJSON) Init(View) error {
	if g.closed {
		return ErrClosed
	}
	g.inited = true
	return nil
}

func (g *GeoJSON) Render(markers []Marker) error {
	if g.closed {
		return ErrClosed
	}
	if !g.inited {
		return ErrNotInitialized
	}

	fc := geoJSONCollection{Type: "FeatureCollection", Features: make([]geoJSONFeature, 0, len(markers))}
	for _, m := range markers {
		fc.Features = append(fc.Features, geoJSONFeature{
			Type:     "Feature",
			Geometry: geoJSONGeometry{Type: "Point", Coordinates: [2]float64{m.Lng, m.Lat}},
			Properties: map[string]any{
				"label":  m.Label,
				"detail": m.Detail,
				"link":   m.Link,
			},
		})
	}
	fc.BBox = bbox(markers)

	enc := json.NewEncoder(g.w)
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("failed to encode geojson: %w", err)
	}
	return nil
}

func (g *GeoJSON) Close() error {
	g.closed = true
	return nil
}

// bbox returns [minLng, minLat, maxLng, maxLat], or nil for no markers.
func bbox(markers []Marker) []float64 {
	if len(markers) == 0 {
		return nil
	}
	minLng, minLat := markers[0].Lng, markers[0].Lat
	maxLng, maxLat := minLng, minLat
	for _, m := range markers[1:] {
		minLng, maxLng = min(minLng, m.Lng), max(maxLng, m.Lng)
		minLat, maxLat = min(minLat, m.Lat), max(maxLat, m.Lat)
	}
	return []float64{minLng, minLat, maxLng, maxLat}
}
