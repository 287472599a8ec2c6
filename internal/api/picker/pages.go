package picker

import (
	"html/template"
	"net/http"

	"github.com/joeblew999/plat-door/internal/flow"
	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/mapview"
	"github.com/joeblew999/plat-door/internal/service"
)

// PageData is what every page template receives.
type PageData struct {
	Title      string
	Step       int
	TotalSteps int
	Session    service.Snapshot
	Signals    map[string]any
	Actions    []humastar.Action
	Languages  template.HTML
	MaxDoors   int
	// Locate asks the browser for its position on load.
	Locate bool
	// Coordinates is the pin at confirmation precision.
	Coordinates string
	Recent      template.HTML
}

// RegisterPages registers the HTML page routes on the mux.
func (h *Handler) RegisterPages(mux *http.ServeMux) {
	mux.HandleFunc("/map/add", h.handleAdd)
	mux.HandleFunc("/map/confirm", h.handleConfirm)
	mux.HandleFunc("/building/new", h.handleNew)
	mux.HandleFunc("/", h.handleHome)
}

// open binds the request to a session. A live session already at state
// keeps its draft; anything else starts from the query parameters. While
// picking, a draft with no position gets the default one and seeded is
// true so the page can geolocate over it.
func (h *Handler) open(r *http.Request, state flow.State, opts func(center geo.Coordinate) mapview.Options) (sess *service.Session, seeded bool) {
	q := r.URL.Query()
	sid := q.Get("sid")

	draft := flow.ParseParams(q)
	if live, ok := h.Sessions.Get(sid); ok {
		if snap := live.Snapshot(); snap.State == state {
			draft = snap.Draft
		}
	}
	if draft.Position == nil && state == flow.PickingPin {
		draft = draft.WithPosition(h.Settings.DefaultLocation)
		seeded = true
	}

	center := h.Settings.DefaultLocation
	if draft.Position != nil {
		center = *draft.Position
	}
	view := mapview.New(opts(center), h.Settings.Tiles)
	return h.Sessions.Open(sid, state, draft, view), seeded
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	pins, err := h.Buildings.Pins(r.Context(), h.Settings.Pins.Limit)
	if err != nil {
		h.Log.WithError(err).Warn("Failed to load pins for home map")
	}

	sess, _ := h.open(r, flow.PickingPin, func(center geo.Coordinate) mapview.Options {
		return mapview.Options{
			Center:     center,
			Zoom:       h.Settings.Zoom.Home,
			ShowMarker: true,
			Pins:       pins,
		}
	})
	snap := sess.Snapshot()

	h.render(w, "page-home", PageData{
		Title:   "Buildings",
		Step:    1,
		Session: snap,
		Actions: humastar.ActionsFor(snap.ID, homeActions),
		Recent:  template.HTML(h.renderRecent(pins)),
	})
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, seeded := h.open(r, flow.PickingPin, func(center geo.Coordinate) mapview.Options {
		return mapview.Options{
			Center:           center,
			Zoom:             h.Settings.Zoom.PickPin,
			ShowDraggablePin: true,
			Draggable:        true,
			InstructionText:  "Drag the pin or double-click the map to mark the building",
		}
	})
	h.renderStep(w, "page-add", "Mark the building", sess.Snapshot(), seeded)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.open(r, flow.ConfirmingPin, func(center geo.Coordinate) mapview.Options {
		return mapview.Options{
			Center:         center,
			Zoom:           h.Settings.Zoom.Confirm,
			ShowMarker:     true,
			MarkerPosition: &center,
		}
	})
	h.renderStep(w, "page-confirm", "Confirm the location", sess.Snapshot(), false)
}

func (h *Handler) handleNew(w http.ResponseWriter, r *http.Request) {
	sess, _ := h.open(r, flow.EditingDetails, func(center geo.Coordinate) mapview.Options {
		return mapview.Options{
			Center:     center,
			Zoom:       h.Settings.Zoom.Details,
			ShowMarker: true,
			Height:     "220px",
		}
	})
	h.renderStep(w, "page-new", "Building details", sess.Snapshot(), false)
}

func (h *Handler) renderStep(w http.ResponseWriter, page, title string, snap service.Snapshot, locate bool) {
	data := PageData{
		Title:     title,
		Step:      snap.State.Step(),
		Session:   snap,
		Actions:   humastar.ActionsFor(snap.ID, stepActions[snap.State]),
		Languages: template.HTML(h.languageOptions(snap.Draft.Language)),
		Locate:    locate,
	}
	if p := snap.Draft.Position; p != nil {
		data.Coordinates = p.Format(geo.ConfirmPrecision)
	}
	h.render(w, page, data)
}

func (h *Handler) render(w http.ResponseWriter, page string, data PageData) {
	data.TotalSteps = flow.TotalSteps
	data.MaxDoors = flow.MaxDoors
	data.Signals = signalsFor(data.Session)

	html, err := h.Handler.Renderer.Render(page, data)
	if err != nil {
		h.Log.WithError(err).WithField("page", page).Error("Failed to render page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(html)); err != nil {
		h.Log.WithError(err).WithField("page", page).Debug("Failed to write page")
	}
}

func (h *Handler) languageOptions(selected string) string {
	opts := make([]humastar.SelectOptionData, 0, len(h.Settings.Languages))
	for _, l := range h.Settings.Languages {
		opts = append(opts, humastar.SelectOptionData{Value: l, Label: l, Selected: l == selected})
	}
	return h.RenderSelect("", opts)
}

func (h *Handler) renderRecent(pins []mapview.Pin) string {
	items := make([]any, 0, len(pins))
	for _, p := range pins {
		items = append(items, p)
	}
	return h.RenderList("pin-item", items, humastar.Empty{Title: "No buildings yet", Message: "Tap Add building to pin the first one."})
}
