package picker

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/mapview"
	"github.com/joeblew999/plat-door/internal/position"
	"github.com/joeblew999/plat-door/internal/service"
)

// mapUpdate pushes the view's state to the browser glue script.
func mapUpdate(sse humastar.SSE, snap service.Snapshot) {
	sse.Emit("map-update", snap.Map)
}

// Locate resolves the browser's geolocation report, falling back to the
// default location on denial, error or timeout.
func (h *Handler) Locate(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}

	report := position.Reported{
		Coordinate:  geo.Coordinate{Lat: signals.Float("geoLat"), Lng: signals.Float("geoLng")},
		Code:        signals.Int("geoCode"),
		Message:     signals.String("geoMessage"),
		Unsupported: signals.Bool("geoUnsupported"),
	}
	src := position.Fallback{
		Source:  report,
		Default: h.Settings.DefaultLocation,
		Timeout: h.Settings.LocateTimeout,
		Log:     h.Log.WithField("session", sess.ID),
	}

	return h.Stream(func(sse humastar.SSE) {
		snap := sess.Locate(ctx, src)
		mapUpdate(sse, snap)
		sse.Signals(pinSignals(snap))
	}), nil
}

// MapReady records that the mapping library loaded.
func (h *Handler) MapReady(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, _, err := h.session(input)
	if err != nil {
		return nil, err
	}
	return h.Stream(func(sse humastar.SSE) {
		sess.MapLoaded(nil)
		sse.Signals(map[string]any{"mapStatus": sess.Snapshot().Map.Status})
	}), nil
}

// MapFailed records a load failure. The map stays in its loading state.
func (h *Handler) MapFailed(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	msg := signals.String("mapError")
	if msg == "" {
		msg = "map library did not load"
	}
	return h.Stream(func(sse humastar.SSE) {
		sess.MapLoaded(errors.New(msg))
		h.Log.WithField("session", sess.ID).Warn("Map failed to load: " + msg)
		sse.Signals(map[string]any{"mapStatus": sess.Snapshot().Map.Status})
	}), nil
}

func (h *Handler) gesture(input *humastar.SignalsInput, apply func(*service.Session, geo.Coordinate) (service.Snapshot, error)) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	c, err := geo.New(signals.Float("lat"), signals.Float("lng"))
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid map position: " + err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		snap, err := apply(sess, c)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		mapUpdate(sse, snap)
		sse.Signals(pinSignals(snap))
	}), nil
}

// DragEnd handles the end of a pin drag.
func (h *Handler) DragEnd(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.gesture(input, (*service.Session).DragEnd)
}

// DoubleClick moves the pin to a double-clicked point.
func (h *Handler) DoubleClick(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	return h.gesture(input, (*service.Session).DoubleClick)
}

// Layer switches between the street map and satellite imagery.
func (h *Handler) Layer(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	layer, err := mapview.ParseBaseLayer(signals.String("layer"))
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}
	return h.Stream(func(sse humastar.SSE) {
		snap, err := sess.SetLayer(layer)
		if err != nil {
			sse.Error(err.Error())
			return
		}
		mapUpdate(sse, snap)
		sse.Signals(map[string]any{"layer": string(snap.Map.Layer)})
	}), nil
}

// GPS handles edits of the "lat, lng" text field. Malformed text leaves the
// pin where it is.
func (h *Handler) GPS(ctx context.Context, input *humastar.SignalsInput) (*huma.StreamResponse, error) {
	sess, signals, err := h.session(input)
	if err != nil {
		return nil, err
	}
	raw := signals.String("gps")
	return h.Stream(func(sse humastar.SSE) {
		snap, ok := sess.TypeGPS(raw)
		if !ok {
			sse.Signals(map[string]any{"gpsError": "Enter as: latitude, longitude"})
			return
		}
		mapUpdate(sse, snap)
		sse.Signals(map[string]any{"gpsError": ""})
	}), nil
}
