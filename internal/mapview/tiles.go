package mapview

import "fmt"

// BaseLayer selects the tile imagery behind the map.
type BaseLayer string

const (
	LayerMap       BaseLayer = "map"
	LayerSatellite BaseLayer = "satellite"
)

// ParseBaseLayer accepts "map" or "satellite".
func ParseBaseLayer(s string) (BaseLayer, error) {
	switch BaseLayer(s) {
	case LayerMap, LayerSatellite:
		return BaseLayer(s), nil
	}
	return "", fmt.Errorf("unknown base layer %q", s)
}

// Toggle returns the other layer.
func (l BaseLayer) Toggle() BaseLayer {
	if l == LayerSatellite {
		return LayerMap
	}
	return LayerSatellite
}

// TileProvider describes an XYZ raster tile source.
type TileProvider struct {
	Name        string `json:"name" yaml:"name" validate:"required"`
	URL         string `json:"url" yaml:"url" validate:"required"`
	Attribution string `json:"attribution" yaml:"attribution" validate:"required"`
	Subdomains  string `json:"subdomains,omitempty" yaml:"subdomains"`
	MaxZoom     int    `json:"maxZoom" yaml:"maxZoom" validate:"gte=1,lte=30"`
}

// TileSet holds one provider per base layer.
type TileSet struct {
	Map       TileProvider `json:"map" yaml:"map"`
	Satellite TileProvider `json:"satellite" yaml:"satellite"`
}

// DefaultTiles are OpenStreetMap for the street map and Esri World Imagery
// for satellite.
var DefaultTiles = TileSet{
	Map: TileProvider{
		Name:        "OpenStreetMap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		Subdomains:  "abc",
		MaxZoom:     19,
	},
	Satellite: TileProvider{
		Name:        "Esri World Imagery",
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles © Esri",
		MaxZoom:     19,
	},
}

// For returns the provider backing a layer.
func (t TileSet) For(l BaseLayer) TileProvider {
	if l == LayerSatellite {
		return t.Satellite
	}
	return t.Map
}
