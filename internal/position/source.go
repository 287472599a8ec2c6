package position

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/geo"
)

var (
	ErrDenied      = errors.New("geolocation permission denied")
	ErrUnsupported = errors.New("geolocation unsupported")
)

// Source yields the device position.
type Source interface {
	Locate(ctx context.Context) (geo.Coordinate, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (geo.Coordinate, error)

func (f SourceFunc) Locate(ctx context.Context) (geo.Coordinate, error) { return f(ctx) }

// Static always reports the same coordinate.
type Static geo.Coordinate

func (s Static) Locate(context.Context) (geo.Coordinate, error) {
	return geo.Coordinate(s), nil
}

// Report is what the browser sends back from navigator.geolocation.
type Report struct {
	Coordinate geo.Coordinate
	// Code is the GeolocationPositionError code, 0 on success.
	Code    int
	Message string
	// Unsupported is set when the browser has no geolocation API.
	Unsupported bool
}

// Reported turns one browser report into a Source.
type Reported Report

func (r Reported) Locate(context.Context) (geo.Coordinate, error) {
	switch {
	case r.Unsupported:
		return geo.Coordinate{}, ErrUnsupported
	case r.Code == 1:
		return geo.Coordinate{}, ErrDenied
	case r.Code != 0:
		return geo.Coordinate{}, fmt.Errorf("geolocation error %d: %s", r.Code, r.Message)
	}
	if !r.Coordinate.Valid() {
		return geo.Coordinate{}, fmt.Errorf("geolocation: %w", geo.ErrOutOfRange)
	}
	return r.Coordinate, nil
}

// Manual parses a typed "lat, lng".
type Manual string

func (m Manual) Locate(context.Context) (geo.Coordinate, error) {
	return geo.Parse(string(m))
}

// Fallback wraps a Source so Locate never fails: errors, denials and
// timeouts are logged and the default location is returned instead.
type Fallback struct {
	Source  Source
	Default geo.Coordinate
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// Resolve returns the source position and true, or Default and false.
func (f Fallback) Resolve(ctx context.Context) (geo.Coordinate, bool) {
	if f.Source == nil {
		return f.Default, false
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	type result struct {
		c   geo.Coordinate
		err error
	}
	done := make(chan result, 1)
	go func() {
		c, err := f.Source.Locate(ctx)
		done <- result{c, err}
	}()

	var err error
	select {
	case r := <-done:
		if r.err == nil {
			return r.c, true
		}
		err = r.err
	case <-ctx.Done():
		err = ctx.Err()
	}

	if f.Log != nil {
		f.Log.WithError(err).WithField("fallback", f.Default.String()).Warn("Could not locate device")
	}
	return f.Default, false
}

// Locate implements Source.
func (f Fallback) Locate(ctx context.Context) (geo.Coordinate, error) {
	c, _ := f.Resolve(ctx)
	return c, nil
}
