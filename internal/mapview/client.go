package mapview

import "github.com/joeblew999/plat-door/internal/geo"

// ClientConfig is the snapshot sent to the browser glue script.
type ClientConfig struct {
	ID              string          `json:"id"`
	Center          geo.Coordinate  `json:"center"`
	Zoom            int             `json:"zoom"`
	Layer           BaseLayer       `json:"layer"`
	Tile            TileProvider    `json:"tile"`
	Marker          *geo.Coordinate `json:"marker,omitempty"`
	DraggablePin    bool            `json:"draggablePin"`
	DoubleClickMove bool            `json:"doubleClickMove"`
	DoubleClickZoom bool            `json:"doubleClickZoom"`
	Pins            []Pin           `json:"pins"`
	Height          string          `json:"height"`
	Instruction     string          `json:"instruction,omitempty"`
	Status          string          `json:"status"`
}

// ClientConfig returns the current state for rendering.
func (v *View) ClientConfig() ClientConfig {
	v.mu.Lock()
	defer v.mu.Unlock()

	cfg := ClientConfig{
		ID:              v.id,
		Center:          v.center,
		Zoom:            v.zoom,
		Layer:           v.layer,
		Tile:            v.tiles.For(v.layer),
		DraggablePin:    v.opts.ShowDraggablePin,
		DoubleClickMove: v.opts.Draggable,
		DoubleClickZoom: !v.opts.Draggable,
		Pins:            v.opts.Pins,
		Height:          v.opts.Height,
		Instruction:     v.opts.InstructionText,
		Status:          v.status.String(),
	}
	if cfg.Pins == nil {
		cfg.Pins = []Pin{}
	}
	if v.marker != nil {
		m := *v.marker
		cfg.Marker = &m
	}
	return cfg
}
