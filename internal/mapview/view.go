// Package mapview models one interactive map instance on a picker page.
//
// The browser renders the tiles; the View owns everything else: centre,
// zoom, base layer, marker position and the listeners that react to user
// gestures. A View is created once per page and updated in place.
package mapview

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/joeblew999/plat-door/internal/geo"
)

var ErrDisposed = errors.New("map view disposed")

// Status is the load state of the browser mapping library.
type Status int

const (
	StatusLoading Status = iota
	StatusReady
)

func (s Status) String() string {
	if s == StatusReady {
		return "ready"
	}
	return "loading"
}

// Pin is a static, non-interactive marker with a popup title.
type Pin struct {
	ID       int64          `json:"id"`
	Position geo.Coordinate `json:"position"`
	Title    string         `json:"title"`
}

// Options configure a View at construction.
type Options struct {
	Center           geo.Coordinate
	Zoom             int
	ShowMarker       bool
	ShowDraggablePin bool
	// Draggable enables double-click repositioning and turns off
	// double-click zoom.
	Draggable       bool
	MarkerPosition  *geo.Coordinate
	Layer           BaseLayer
	Pins            []Pin
	Height          string
	InstructionText string
}

// View is an owned map instance. All methods are safe for concurrent use.
type View struct {
	mu sync.Mutex

	id    string
	opts  Options
	tiles TileSet

	center  geo.Coordinate
	zoom    int
	layer   BaseLayer
	marker  *geo.Coordinate
	status  Status
	loadErr error

	disposed bool
	nextID   int
	onMove   map[int]func(geo.Coordinate)
	onDouble map[int]func(geo.Coordinate)
}

// New creates a view. A zero Layer means the street map.
func New(opts Options, tiles TileSet) *View {
	if opts.Layer == "" {
		opts.Layer = LayerMap
	}
	if opts.Height == "" {
		opts.Height = "100%"
	}
	v := &View{
		id:       uuid.NewString(),
		opts:     opts,
		tiles:    tiles,
		center:   opts.Center,
		layer:    opts.Layer,
		onMove:   map[int]func(geo.Coordinate){},
		onDouble: map[int]func(geo.Coordinate){},
	}
	v.zoom = v.clampZoom(opts.Zoom)

	if opts.ShowMarker || opts.ShowDraggablePin {
		pos := opts.Center
		if opts.ShowMarker && opts.MarkerPosition != nil {
			pos = *opts.MarkerPosition
		}
		v.marker = &pos
	}
	return v
}

// ID identifies the underlying instance. It never changes over the life of
// the view.
func (v *View) ID() string {
	return v.id
}

func (v *View) clampZoom(z int) int {
	max := v.tiles.For(v.layer).MaxZoom
	if max > 0 && z > max {
		return max
	}
	if z < 0 {
		return 0
	}
	return z
}

// Recenter moves the existing instance to a new centre and zoom.
func (v *View) Recenter(center geo.Coordinate, zoom int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return ErrDisposed
	}
	v.center = center
	v.zoom = v.clampZoom(zoom)
	return nil
}

// SetMarker moves the marker, creating it when the view shows one.
func (v *View) SetMarker(c geo.Coordinate) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return ErrDisposed
	}
	if !v.opts.ShowMarker && !v.opts.ShowDraggablePin {
		return nil
	}
	v.marker = &c
	return nil
}

// SetBaseLayer swaps the tile provider. Marker and centre are untouched.
func (v *View) SetBaseLayer(l BaseLayer) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return ErrDisposed
	}
	v.layer = l
	v.zoom = v.clampZoom(v.zoom)
	return nil
}

// OnPositionChange registers fn for drag-end and double-click moves.
func (v *View) OnPositionChange(fn func(geo.Coordinate)) (unsubscribe func()) {
	return v.listen(v.onMove, fn)
}

// OnDoubleClick registers fn for double-clicks on the map.
func (v *View) OnDoubleClick(fn func(geo.Coordinate)) (unsubscribe func()) {
	return v.listen(v.onDouble, fn)
}

func (v *View) listen(set map[int]func(geo.Coordinate), fn func(geo.Coordinate)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return func() {}
	}
	id := v.nextID
	v.nextID++
	set[id] = fn
	return func() {
		v.mu.Lock()
		delete(set, id)
		v.mu.Unlock()
	}
}

// DragEnd handles the end of a pin drag. Only a draggable pin emits.
func (v *View) DragEnd(c geo.Coordinate) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	if !v.opts.ShowDraggablePin {
		v.mu.Unlock()
		return nil
	}
	v.marker = &c
	move := collect(v.onMove)
	v.mu.Unlock()

	for _, fn := range move {
		fn(c)
	}
	return nil
}

// DoubleClick handles a double-click at c. In draggable mode it emits a
// double-click event, then a position change, and moves the marker.
func (v *View) DoubleClick(c geo.Coordinate) error {
	v.mu.Lock()
	if v.disposed {
		v.mu.Unlock()
		return ErrDisposed
	}
	if !v.opts.Draggable || (len(v.onMove) == 0 && len(v.onDouble) == 0) {
		v.mu.Unlock()
		return nil
	}
	if v.marker != nil {
		v.marker = &c
	}
	double := collect(v.onDouble)
	move := collect(v.onMove)
	v.mu.Unlock()

	for _, fn := range double {
		fn(c)
	}
	for _, fn := range move {
		fn(c)
	}
	return nil
}

func collect(set map[int]func(geo.Coordinate)) []func(geo.Coordinate) {
	out := make([]func(geo.Coordinate), 0, len(set))
	for i := 0; len(out) < len(set); i++ {
		if fn, ok := set[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// MarkLoaded records that the browser mapping library initialised.
func (v *View) MarkLoaded() {
	v.mu.Lock()
	v.status = StatusReady
	v.loadErr = nil
	v.mu.Unlock()
}

// MarkFailed records a library load failure. The view stays in the loading
// state; there is no error screen.
func (v *View) MarkFailed(err error) {
	v.mu.Lock()
	v.status = StatusLoading
	v.loadErr = err
	v.mu.Unlock()
}

// Status returns the load state and the last load error, if any.
func (v *View) Status() (Status, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status, v.loadErr
}

// Marker returns the marker position, or nil when none is shown.
func (v *View) Marker() *geo.Coordinate {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.marker == nil {
		return nil
	}
	m := *v.marker
	return &m
}

// Center returns the current centre and zoom.
func (v *View) Center() (geo.Coordinate, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center, v.zoom
}

// Layer returns the active base layer.
func (v *View) Layer() BaseLayer {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.layer
}

// SetPins replaces the static pins.
func (v *View) SetPins(pins []Pin) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.disposed {
		return ErrDisposed
	}
	v.opts.Pins = pins
	return nil
}

// Dispose releases all listeners. It is safe to call more than once.
func (v *View) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.disposed = true
	v.onMove = map[int]func(geo.Coordinate){}
	v.onDouble = map[int]func(geo.Coordinate){}
}

// Disposed reports whether Dispose was called.
func (v *View) Disposed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.disposed
}
