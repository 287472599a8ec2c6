// Package picker contains the pages and Datastar SSE handlers of the
// pin-a-building wizard.
package picker

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/config"
	"github.com/joeblew999/plat-door/internal/flow"
	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/service"
	"github.com/joeblew999/plat-door/internal/templates"
	"github.com/joeblew999/plat-door/pkg/doorclient"
)

// Submitter saves a finished draft. *doorclient.Client implements it.
type Submitter interface {
	Create(ctx context.Context, req doorclient.CreateRequest) (*doorclient.CreateResponse, error)
}

// Deps are the collaborators shared by pages and SSE handlers.
type Deps struct {
	Sessions  *service.SessionService
	Buildings *service.DoorService
	Bus       *service.EventBus
	Submit    Submitter
	Settings  config.Settings
	Renderer  *templates.Renderer
	Log       logrus.FieldLogger
}

// Handler serves the picker SSE endpoints.
type Handler struct {
	humastar.Handler
	Deps
	// redirectDelay is how long the success banner shows before going home.
	redirectDelay time.Duration
}

// NewHandler creates a new picker handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		Handler:       humastar.Handler{Renderer: d.Renderer},
		Deps:          d,
		redirectDelay: flow.RedirectDelay,
	}
}

// RegisterRoutes registers picker SSE routes with Huma.
func (h *Handler) RegisterRoutes(api huma.API) {
	tags := huma.OperationTags("picker")

	huma.Post(api, "/api/v1/picker/locate", h.Locate, tags)
	huma.Post(api, "/api/v1/picker/map/ready", h.MapReady, tags)
	huma.Post(api, "/api/v1/picker/map/failed", h.MapFailed, tags)
	huma.Post(api, "/api/v1/picker/map/dragend", h.DragEnd, tags)
	huma.Post(api, "/api/v1/picker/map/dblclick", h.DoubleClick, tags)
	huma.Post(api, "/api/v1/picker/layer", h.Layer, tags)
	huma.Post(api, "/api/v1/picker/gps", h.GPS, tags)

	huma.Post(api, "/api/v1/picker/doors", h.Doors, tags)
	huma.Post(api, "/api/v1/picker/address", h.Address, tags)
	huma.Post(api, "/api/v1/picker/language", h.Language, tags)
	huma.Post(api, "/api/v1/picker/confirm", h.Confirm, tags)
	huma.Post(api, "/api/v1/picker/accept", h.Accept, tags)
	huma.Post(api, "/api/v1/picker/save", h.Save, tags)
	huma.Post(api, "/api/v1/picker/cancel", h.Cancel, tags)

	huma.Get(api, "/api/v1/picker/events", h.Events, tags)
}

// session parses the signals and finds the tab's session. Parsing must
// happen before streaming.
func (h *Handler) session(input *humastar.SignalsInput) (*service.Session, humastar.Signals, error) {
	signals, err := input.MustParse()
	if err != nil {
		return nil, nil, err
	}
	sess, ok := h.Sessions.Get(signals.String("sid"))
	if !ok {
		return nil, nil, huma.Error404NotFound("Picker session expired, reload the page")
	}
	return sess, signals, nil
}

// location is the page URL for snap's state, carrying the draft and the
// session id.
func location(path string, snap service.Snapshot) string {
	q := snap.Draft.Params()
	q.Set("sid", snap.ID)
	return path + "?" + q.Encode()
}

// addrKey is the signal bound to door i's address input (1-based).
func addrKey(i int) string {
	return "addr" + strconv.Itoa(i)
}

// signalsFor is the full signal set of a page.
func signalsFor(snap service.Snapshot) map[string]any {
	d := snap.Draft
	m := map[string]any{
		"sid":       snap.ID,
		"gps":       snap.GPS,
		"gpsError":  "",
		"layer":     string(snap.Map.Layer),
		"mapStatus": snap.Map.Status,
		"language":  d.Language,
		"doors":     d.Doors,
		"address":   d.Info,
		"lat":       0.0,
		"lng":       0.0,
		"error":     "",
		"success":   "",
		"saving":    false,
		"mapError":  "",

		// filled in by the geolocation report before posting to locate
		"geoLat":         0.0,
		"geoLng":         0.0,
		"geoCode":        0,
		"geoMessage":     "",
		"geoUnsupported": false,
	}
	if d.Position != nil {
		m["lat"] = d.Position.Lat
		m["lng"] = d.Position.Lng
	}
	for i, a := range d.Addresses {
		m[addrKey(i+1)] = a
	}
	return m
}

// pinSignals are the signals that follow the pin.
func pinSignals(snap service.Snapshot) map[string]any {
	m := map[string]any{"gps": snap.GPS, "gpsError": ""}
	if p := snap.Draft.Position; p != nil {
		m["lat"] = p.Lat
		m["lng"] = p.Lng
	}
	return m
}

// stepActions are the buttons of each state.
var stepActions = map[flow.State][]humastar.ActionDef{
	flow.PickingPin: {
		{Rel: "prev", Pattern: "/api/v1/picker/cancel", Method: "POST", Title: "Cancel"},
		{Rel: "next", Pattern: "/api/v1/picker/confirm", Method: "POST", Title: "Confirm location"},
	},
	flow.ConfirmingPin: {
		{Rel: "prev", Pattern: "/api/v1/picker/cancel", Method: "POST", Title: "Back"},
		{Rel: "next", Pattern: "/api/v1/picker/accept", Method: "POST", Title: "Looks right"},
	},
	flow.EditingDetails: {
		{Rel: "prev", Pattern: "/api/v1/picker/cancel", Method: "POST", Title: "Back"},
		{Rel: "next", Pattern: "/api/v1/picker/save", Method: "POST", Title: "Save"},
	},
}

// homeActions are offered on the home map.
var homeActions = []humastar.ActionDef{
	{Rel: "create-form", Pattern: "/map/add?sid=%s", Title: "Add building"},
}

// homeURL keeps the session so the home map reuses its pin.
func homeURL(sid string) string {
	return "/?" + url.Values{"sid": {sid}}.Encode()
}
