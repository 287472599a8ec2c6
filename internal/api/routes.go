// Package api defines the Huma API routes and handlers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/humastar"
	"github.com/joeblew999/plat-door/internal/service"
	"github.com/joeblew999/plat-door/internal/store"
)

// Wire messages of the door endpoint.
const (
	MsgSaved          = "Saved successfully"
	MsgCoordsRequired = "Latitude and Longitude required"
	MsgNoBuildings    = "No buildings found"
	MsgInternal       = "Internal Server Error"
)

// Version is reported by /health and /api/v1/info.
const Version = "1.0.0"

// Services holds the service dependencies for API handlers.
type Services struct {
	Door *service.DoorService
	Tile *service.TileService
}

// NewConfig returns the Huma config shared by the server and tests.
func NewConfig(serverURL string) huma.Config {
	cfg := huma.DefaultConfig("plat-door API", Version)
	cfg.Info.Description = "Pin buildings on a map and record how many doors each one has."
	if serverURL != "" {
		cfg.Servers = []*huma.Server{{URL: serverURL, Description: "Local server"}}
	}
	// Disable $schema property in responses (cleaner JSON)
	cfg.CreateHooks = []func(huma.Config) huma.Config{}
	cfg.Transformers = append(cfg.Transformers, humastar.LinkTransformer(Links()))
	return cfg
}

// CORS sets the door API's CORS headers on every response.
func CORS(ctx huma.Context, next func(huma.Context)) {
	ctx.SetHeader("Access-Control-Allow-Origin", "*")
	ctx.SetHeader("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	ctx.SetHeader("Access-Control-Allow-Headers", "Content-Type")
	next(ctx)
}

// RequestLogger logs one line per handled request.
func RequestLogger(log logrus.FieldLogger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)
		log.WithFields(logrus.Fields{
			"method":   ctx.Method(),
			"path":     ctx.URL().Path,
			"status":   ctx.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Handled request")
	}
}

// Types

// CreateDoorBody is the submission payload. Coordinates are pointers so a
// missing value can be told apart from the JSON number 0; both are
// rejected.
type CreateDoorBody struct {
	_             struct{} `json:"-" additionalProperties:"true"`
	Lat           *float64 `json:"lat,omitempty" doc:"Latitude" example:"13.0827"`
	Long          *float64 `json:"long,omitempty" doc:"Longitude" example:"80.2707"`
	Info          string   `json:"info,omitempty" doc:"Building address line" example:"Near temple"`
	Language      string   `json:"language,omitempty" doc:"Language spoken at the doors" example:"Tamil"`
	NumberOfDoors int      `json:"numberOfDoors,omitempty" doc:"Doors to create; values below 1 create one" example:"3"`
	Addresses     []string `json:"addresses,omitempty" doc:"Optional per-door address lines"`
}

type CreateDoorInput struct {
	Body CreateDoorBody
}

// BuildingBody is the latest-building projection.
type BuildingBody struct {
	ID          int64   `json:"id" doc:"Building ID" example:"42"`
	Lat         float64 `json:"lat" doc:"Latitude" example:"13.0827"`
	Long        float64 `json:"long" doc:"Longitude" example:"80.2707"`
	Information string  `json:"information" doc:"Building address line"`
	DoorCount   int     `json:"doorCount" doc:"Number of doors" example:"3"`
	Language    string  `json:"language" doc:"Language of the first door, or Unknown" example:"Tamil"`
}

// DoorBody carries exactly one of message, error or building.
type DoorBody struct {
	Message  string        `json:"message,omitempty" doc:"Result message"`
	Error    string        `json:"error,omitempty" doc:"Error message"`
	Building *BuildingBody `json:"building,omitempty" doc:"Most recent building"`
}

// Actions implements humastar.Actor.
func (b DoorBody) Actions() []humastar.Action {
	if b.Building == nil {
		return nil
	}
	return humastar.ActionsFor(formatID(b.Building.ID), buildingActions)
}

// DoorOutput sets its status per outcome, keeping the door endpoint's fixed
// JSON bodies instead of Huma's problem details.
type DoorOutput struct {
	Status int
	Body   DoorBody
}

type HealthBody struct {
	Status  string `json:"status" doc:"Health status" example:"ok"`
	Version string `json:"version" doc:"API version" example:"1.0.0"`
}

type PinsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Most recent buildings to return"`
}

type PinsOutput struct {
	Body *geojson.FeatureCollection
}

// APIHandler holds all REST API handlers. Methods named Register* are
// auto-discovered by huma.AutoRegister.
type APIHandler struct {
	svc *Services
}

func NewAPIHandler(svc *Services) *APIHandler {
	return &APIHandler{svc: svc}
}

// RegisterHealth registers health check routes.
func (h *APIHandler) RegisterHealth(api huma.API) {
	huma.Get(api, "/health", h.GetHealth, huma.OperationTags("health"))
}

// RegisterDoor registers the building/door submission routes.
func (h *APIHandler) RegisterDoor(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "create-door",
		Method:      http.MethodPost,
		Path:        "/door",
		Summary:     "Save a building with its doors",
		Tags:        []string{"door"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.CreateDoor)
	huma.Register(api, huma.Operation{
		OperationID: "get-latest-building",
		Method:      http.MethodGet,
		Path:        "/door",
		Summary:     "Get the most recently saved building",
		Tags:        []string{"door"},
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, h.GetLatest)
	huma.Register(api, huma.Operation{
		OperationID:   "options-door",
		Method:        http.MethodOptions,
		Path:          "/door",
		Summary:       "CORS preflight",
		Tags:          []string{"door"},
		DefaultStatus: http.StatusNoContent,
	}, h.OptionsDoor)
}

// RegisterTiles registers tile provider routes.
func (h *APIHandler) RegisterTiles(api huma.API) {
	huma.Get(api, "/api/v1/tiles", h.GetTiles, huma.OperationTags("tiles"))
}

// RegisterPins registers the GeoJSON pins route. The listing itself is
// registered by BuildingsHandler.
func (h *APIHandler) RegisterPins(api huma.API) {
	huma.Get(api, "/api/v1/buildings/pins", h.GetPins, huma.OperationTags("buildings"))
}

// Handlers

func (h *APIHandler) GetHealth(ctx context.Context, input *struct{}) (*struct{ Body HealthBody }, error) {
	return &struct{ Body HealthBody }{Body: HealthBody{Status: "ok", Version: Version}}, nil
}

func (h *APIHandler) CreateDoor(ctx context.Context, input *CreateDoorInput) (*DoorOutput, error) {
	b := input.Body
	req := service.CreateRequest{
		Info:          b.Info,
		Language:      b.Language,
		NumberOfDoors: b.NumberOfDoors,
		Addresses:     b.Addresses,
	}
	if b.Lat != nil {
		req.Lat = *b.Lat
	}
	if b.Long != nil {
		req.Long = *b.Long
	}

	_, err := h.svc.Door.Create(ctx, req)
	switch {
	case errors.Is(err, service.ErrCoordinatesRequired):
		return &DoorOutput{Status: http.StatusBadRequest, Body: DoorBody{Error: MsgCoordsRequired}}, nil
	case err != nil:
		return &DoorOutput{Status: http.StatusInternalServerError, Body: DoorBody{Error: MsgInternal}}, nil
	}
	return &DoorOutput{Status: http.StatusOK, Body: DoorBody{Message: MsgSaved}}, nil
}

func (h *APIHandler) GetLatest(ctx context.Context, input *struct{}) (*DoorOutput, error) {
	b, err := h.svc.Door.Latest(ctx)
	switch {
	case errors.Is(err, service.ErrNoBuildings):
		return &DoorOutput{Status: http.StatusNotFound, Body: DoorBody{Message: MsgNoBuildings}}, nil
	case err != nil:
		return &DoorOutput{Status: http.StatusInternalServerError, Body: DoorBody{Error: MsgInternal}}, nil
	}
	return &DoorOutput{Status: http.StatusOK, Body: DoorBody{Building: toBuildingBody(*b)}}, nil
}

func (h *APIHandler) OptionsDoor(ctx context.Context, input *struct{}) (*struct{}, error) {
	return &struct{}{}, nil
}

func (h *APIHandler) GetTiles(ctx context.Context, input *struct{}) (*struct{ Body []service.TileLayer }, error) {
	if h.svc == nil || h.svc.Tile == nil {
		return &struct{ Body []service.TileLayer }{Body: []service.TileLayer{}}, nil
	}
	return &struct{ Body []service.TileLayer }{Body: h.svc.Tile.List()}, nil
}

func (h *APIHandler) GetPins(ctx context.Context, input *PinsInput) (*PinsOutput, error) {
	fc, err := h.svc.Door.PinsGeoJSON(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load pins", err)
	}
	return &PinsOutput{Body: fc}, nil
}

func toBuildingBody(b store.BuildingSummary) *BuildingBody {
	return &BuildingBody{
		ID:          b.ID,
		Lat:         b.Lat,
		Long:        b.Long,
		Information: b.Information,
		DoorCount:   b.DoorCount,
		Language:    b.Language,
	}
}
