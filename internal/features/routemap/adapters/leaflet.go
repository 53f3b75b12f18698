package adapter

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"cargo-tracker/internal/features/routemap/domain"
)

// leafletTemplate is a standalone interactive map: two markers and the route
// line between them, Leaflet from CDN.
var leafletTemplate = template.Must(template.New("routemap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Shipping Route: {{.Origin.Name}} to {{.Destination.Name}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLon}}], 3);
L.tileLayer('https://tile.openstreetmap.org/{z}/{x}/{y}.png', {
    attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
L.marker([{{.Origin.Lat}}, {{.Origin.Lon}}]).addTo(map)
    .bindPopup('Origin: {{.Origin.Name}}');
L.marker([{{.Destination.Lat}}, {{.Destination.Lon}}]).addTo(map)
    .bindPopup('Destination: {{.Destination.Name}}');
L.polyline([
    [{{.Origin.Lat}}, {{.Origin.Lon}}],
    [{{.Destination.Lat}}, {{.Destination.Lon}}]
], {color: 'blue', weight: 2}).addTo(map);
</script>
</body>
</html>
`))

// leafletData is the template input.
type leafletData struct {
	Origin      domain.Point
	Destination domain.Point
	CenterLat   float64
	CenterLon   float64
}

// LeafletRenderer implements ports.Renderer by writing a standalone Leaflet
// HTML file into the results directory.
type LeafletRenderer struct {
	resultsDir string
	// now is swappable in tests to pin file names.
	now func() time.Time
}

// NewLeafletRenderer creates a renderer writing into resultsDir.
func NewLeafletRenderer(resultsDir string) *LeafletRenderer {
	return &LeafletRenderer{
		resultsDir: resultsDir,
		now:        time.Now,
	}
}

// Render writes the map artifact and returns its path.
func (r *LeafletRenderer) Render(origin, destination domain.Point) (string, error) {
	if err := os.MkdirAll(r.resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create results directory %s: %w", r.resultsDir, err)
	}

	path := filepath.Join(r.resultsDir, fmt.Sprintf("route_%s.html", r.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create map file %s: %w", path, err)
	}
	defer f.Close()

	data := leafletData{
		Origin:      origin,
		Destination: destination,
		CenterLat:   (origin.Lat + destination.Lat) / 2,
		CenterLon:   (origin.Lon + destination.Lon) / 2,
	}
	if err := leafletTemplate.Execute(f, data); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to render map template: %w", err)
	}
	return path, nil
}
