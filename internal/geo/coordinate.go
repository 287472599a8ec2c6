// Package geo defines the WGS84 coordinate value shared by the map, the pin
// state and the building store.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Display precisions used by the picker screens.
const (
	DisplayPrecision = 6
	ConfirmPrecision = 14
)

var (
	ErrMalformed  = errors.New("coordinate must be \"lat, lng\"")
	ErrOutOfRange = errors.New("coordinate out of range")
)

// DefaultLocation is used whenever the device cannot report a position.
var DefaultLocation = Coordinate{Lat: 13.0827, Lng: 80.2707}

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat" doc:"Latitude" minimum:"-90" maximum:"90"`
	Lng float64 `json:"lng" yaml:"lng" doc:"Longitude" minimum:"-180" maximum:"180"`
}

// New returns a validated coordinate.
func New(lat, lng float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lng: lng}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: %v, %v", ErrOutOfRange, lat, lng)
	}
	return c, nil
}

// Valid reports whether both components are finite and within range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// IsZero reports whether the coordinate was never set. Null Island is not a
// place anyone drops a door pin.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// Point converts to an orb point (x = lng, y = lat).
func (c Coordinate) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// FromPoint converts an orb point back to a coordinate.
func FromPoint(p orb.Point) Coordinate {
	return Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}

// DistanceTo returns the great-circle distance in meters.
func (c Coordinate) DistanceTo(o Coordinate) float64 {
	return orbgeo.DistanceHaversine(c.Point(), o.Point())
}

// Format renders "lat, lng" with a fixed number of decimals.
func (c Coordinate) Format(precision int) string {
	return strconv.FormatFloat(c.Lat, 'f', precision, 64) + ", " +
		strconv.FormatFloat(c.Lng, 'f', precision, 64)
}

// String renders the coordinate at display precision.
func (c Coordinate) String() string {
	return c.Format(DisplayPrecision)
}

// Parse reads the "lat, lng" text form. Anything other than exactly two
// numeric parts within range is rejected.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, ErrMalformed
	}
	return ParsePair(parts[0], parts[1])
}

// ParsePair reads latitude and longitude from separate strings, as carried
// in navigation parameters.
func ParsePair(lat, lng string) (Coordinate, error) {
	la, err := parseDegrees(lat)
	if err != nil {
		return Coordinate{}, err
	}
	lo, err := parseDegrees(lng)
	if err != nil {
		return Coordinate{}, err
	}
	return New(la, lo)
}

func parseDegrees(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMalformed
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrMalformed
	}
	return v, nil
}
