package service

import "github.com/joeblew999/plat-door/internal/mapview"

// TileService lists the configured base-layer providers.
type TileService struct {
	tiles mapview.TileSet
}

// NewTileService creates a new tile service.
func NewTileService(tiles mapview.TileSet) *TileService {
	return &TileService{tiles: tiles}
}

// List returns every base layer, street map first.
func (s *TileService) List() []TileLayer {
	out := make([]TileLayer, 0, 2)
	for _, l := range []mapview.BaseLayer{mapview.LayerMap, mapview.LayerSatellite} {
		p := s.tiles.For(l)
		out = append(out, TileLayer{
			Layer:       string(l),
			Name:        p.Name,
			URL:         p.URL,
			Attribution: p.Attribution,
			MaxZoom:     p.MaxZoom,
		})
	}
	return out
}

// Set returns the underlying tile set.
func (s *TileService) Set() mapview.TileSet {
	return s.tiles
}
