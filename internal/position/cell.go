// Package position resolves the device location and holds the pin
// coordinate shared by the map, the GPS text field and geolocation.
package position

import (
	"sync"

	"github.com/joeblew999/plat-door/internal/geo"
)

// Channel names who wrote the pin.
type Channel string

const (
	ChannelGeolocation Channel = "geolocation"
	ChannelMap         Channel = "map"
	ChannelText        Channel = "text"
)

// Change is broadcast after every accepted write.
type Change struct {
	Channel    Channel
	Coordinate geo.Coordinate
	Text       string
}

// Cell is the single source of truth for the pin. Writers race; the last
// accepted write wins.
type Cell struct {
	mu    sync.RWMutex
	coord geo.Coordinate
	set   bool
	text  string
	subs  map[chan Change]struct{}
}

// NewCell returns a cell seeded with c.
func NewCell(c geo.Coordinate) *Cell {
	return &Cell{
		coord: c,
		set:   true,
		text:  c.String(),
		subs:  make(map[chan Change]struct{}),
	}
}

// NewEmptyCell returns a cell with no coordinate yet.
func NewEmptyCell() *Cell {
	return &Cell{subs: make(map[chan Change]struct{})}
}

// Get returns the coordinate and whether one has been set.
func (c *Cell) Get() (geo.Coordinate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coord, c.set
}

// Text returns what the GPS field should show. After a rejected text write
// this is the raw input, not the stored coordinate.
func (c *Cell) Text() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.text
}

// Set stores a coordinate from geolocation or the map and reformats the
// text to display precision. Out-of-range coordinates are rejected.
func (c *Cell) Set(ch Channel, coord geo.Coordinate) bool {
	if !coord.Valid() {
		return false
	}
	c.mu.Lock()
	c.coord = coord
	c.set = true
	c.text = coord.String()
	change := Change{Channel: ch, Coordinate: coord, Text: c.text}
	c.mu.Unlock()

	c.publish(change)
	return true
}

// SetText parses a typed "lat, lng". Malformed input keeps the previous
// coordinate but remembers the raw text. Reports whether it was accepted.
func (c *Cell) SetText(raw string) bool {
	coord, err := geo.Parse(raw)

	c.mu.Lock()
	c.text = raw
	if err != nil {
		c.mu.Unlock()
		return false
	}
	c.coord = coord
	c.set = true
	change := Change{Channel: ChannelText, Coordinate: coord, Text: raw}
	c.mu.Unlock()

	c.publish(change)
	return true
}

func (c *Cell) publish(change Change) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for ch := range c.subs {
		select {
		case ch <- change:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel of accepted changes.
func (c *Cell) Subscribe() chan Change {
	ch := make(chan Change, 16)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (c *Cell) Unsubscribe(ch chan Change) {
	c.mu.Lock()
	if _, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(ch)
	}
	c.mu.Unlock()
}

// Close drops every subscriber.
func (c *Cell) Close() {
	c.mu.Lock()
	for ch := range c.subs {
		delete(c.subs, ch)
		close(ch)
	}
	c.mu.Unlock()
}
