package picker

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/service"
)

// EventsInput names the tab's session.
type EventsInput struct {
	SID string `query:"sid" required:"true" doc:"Picker session ID"`
}

// Events streams pin changes and newly saved buildings to one tab until the
// client goes away or the session expires.
func (h *Handler) Events(ctx context.Context, input *EventsInput) (*huma.StreamResponse, error) {
	sess, ok := h.Sessions.Get(input.SID)
	if !ok {
		return nil, huma.Error404NotFound("Picker session expired, reload the page")
	}

	return &huma.StreamResponse{
		Body: func(humaCtx huma.Context) {
			sse := humastar.NewSSE(humaCtx)

			pin := sess.Pin().Subscribe()
			defer sess.Pin().Unsubscribe(pin)

			var bus chan service.Event
			if h.Bus != nil {
				ch := h.Bus.Subscribe()
				defer h.Bus.Unsubscribe(ch)
				bus = ch
			}

			for {
				select {
				case <-ctx.Done():
					return
				case change, ok := <-pin:
					if !ok {
						return
					}
					sse.Signals(map[string]any{
						"gps": change.Text,
						"lat": change.Coordinate.Lat,
						"lng": change.Coordinate.Lng,
					})
				case ev, ok := <-bus:
					if !ok {
						return
					}
					if ev.Resource == service.ResourceBuildings {
						h.refreshPins(ctx, sse)
					}
					sse.Emit("resource-changed", map[string]any{
						"resource": ev.Resource,
						"action":   ev.Action,
						"id":       ev.ID,
					})
				}
			}
		},
	}, nil
}

func (h *Handler) refreshPins(ctx context.Context, sse humastar.SSE) {
	pins, err := h.Buildings.Pins(ctx, h.Settings.Pins.Limit)
	if err != nil {
		h.Log.WithError(err).Warn("Failed to refresh pins")
		return
	}
	sse.Emit("pins-update", pins)
	sse.Patch(h.renderRecent(pins), "#recent")
}
