package mapview

import (
	"fmt"
	"html/template"
	"io"

	"github.com/goccy/go-json"
)

const leafletVersion = "1.9.4"

var leafletHead = template.Must(template.New("leaflet-head").Parse(`<link rel="stylesheet" href="https://unpkg.com/leaflet@{{.Version}}/dist/leaflet.css">
<div id="{{.ID}}" class="band-map" style="height:520px;width:100%;border-radius:16px;overflow:hidden"></div>
<script src="https://unpkg.com/leaflet@{{.Version}}/dist/leaflet.js"></script>
`))

var leafletScript = template.Must(template.New("leaflet-script").Parse(`<script>
(function () {
  if (!window.L) { return; }
  var map = L.map({{.ID}}).setView([{{.Lat}}, {{.Lng}}], {{.Zoom}});
  L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
    maxZoom: 18,
    attribution: '&copy; OpenStreetMap contributors'
  }).addTo(map);
  var points = {{.Points}};
  var markers = points.map(function (p) {
    var m = L.circleMarker([p.lat, p.lng], {radius: 6, color: '#8b5cf6', weight: 2, opacity: 0.9, fillColor: '#a78bfa', fillOpacity: 0.7}).addTo(map);
    var box = document.createElement('div');
    box.style.minWidth = '180px';
    var name = document.createElement('strong');
    name.textContent = p.label;
    var link = document.createElement('a');
    link.href = p.link;
    link.textContent = 'View';
    box.append(name, document.createElement('br'), p.detail || '', document.createElement('br'), link);
    m.bindPopup(box, {closeButton: true});
    return m;
  });
  if (markers.length) {
    try { map.fitBounds(L.featureGroup(markers).getBounds().pad(0.2)); } catch (e) {}
  }
})();
</script>
`))

// Leaflet renders markers as an embeddable HTML fragment that loads Leaflet and OpenStreetMap tiles in the browser.
type Leaflet struct {
	w      io.Writer
	id     string
	view   View
	inited bool
	closed bool
}

// NewLeaflet writes into w. id is the DOM id of the map container.
func NewLeaflet(w io.Writer, id string) *Leaflet {
	if id == "" {
		id = "band-map"
	}
	return &Leaflet{w: w, id: id}
}

// Init writes the stylesheet, the map container, and the Leaflet script tag.
func (l *Leaflet) Init(v View) error {
	if l.closed {
		return ErrClosed
	}
	if l.inited {
		return nil
	}
	err := leafletHead.Execute(l.w, map[string]any{"Version": leafletVersion, "ID": l.id})
	if err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	l.view = v
	l.inited = true
	return nil
}

// Render writes the inline script that creates the map and adds one circle marker per band.
func (l *Leaflet) Render(markers []Marker) error {
	if l.closed {
		return ErrClosed
	}
	if !l.inited {
		return ErrNotInitialized
	}
	if markers == nil {
		markers = []Marker{}
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}
	err = leafletScript.Execute(l.w, map[string]any{
		"ID":     l.id,
		"Lat":    l.view.Center.Lat,
		"Lng":    l.view.Center.Lng,
		"Zoom":   l.view.Zoom,
		"Points": template.JS(data),
	})
	if err != nil {
		return fmt.Errorf("failed to render markers: %w", err)
	}
	return nil
}

// Close marks the view finished. Further calls fail with [ErrClosed].
func (l *Leaflet) Close() error {
	l.closed = true
	return nil
}
