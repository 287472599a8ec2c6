package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-door/internal/service"
)

// BuildingsHandler serves read-only listings of saved buildings and doors.
type BuildingsHandler struct {
	doors *service.DoorService
}

// NewBuildingsHandler creates a new buildings handler.
func NewBuildingsHandler(doors *service.DoorService) *BuildingsHandler {
	return &BuildingsHandler{doors: doors}
}

// RegisterRoutes registers building routes with Huma.
func (h *BuildingsHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/buildings", h.ListBuildings, huma.OperationTags("buildings"))
	huma.Get(api, "/api/v1/buildings/{id}/doors", h.ListDoors, huma.OperationTags("buildings"))
}

// BuildingsInput bounds the listing.
type BuildingsInput struct {
	Limit int `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Most recent buildings to return"`
}

// BuildingsOutput is the response for listing buildings.
type BuildingsOutput struct {
	Body struct {
		Buildings []BuildingBody `json:"buildings" doc:"Buildings, newest first"`
		Count     int            `json:"count" doc:"Number of buildings returned"`
	}
}

// ListBuildings returns the most recent buildings.
func (h *BuildingsHandler) ListBuildings(ctx context.Context, input *BuildingsInput) (*BuildingsOutput, error) {
	recent, err := h.doors.Recent(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list buildings", err)
	}

	out := &BuildingsOutput{}
	out.Body.Buildings = make([]BuildingBody, 0, len(recent))
	for _, b := range recent {
		out.Body.Buildings = append(out.Body.Buildings, *toBuildingBody(b))
	}
	out.Body.Count = len(out.Body.Buildings)
	return out, nil
}

// DoorsInput selects a building.
type DoorsInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Building ID" example:"42"`
}

// DoorBodyItem is one door of a building.
type DoorBodyItem struct {
	ID                 int64  `json:"id" doc:"Door ID"`
	Language           string `json:"language" doc:"Language spoken"`
	Information        string `json:"information" doc:"Door address line"`
	CongregationAppID  int64  `json:"congregationAppId" doc:"Congregation application ID"`
	CongregationLangID int64  `json:"congregationLangId" doc:"Congregation language ID"`
}

// DoorsOutput is the response for listing a building's doors.
type DoorsOutput struct {
	Body struct {
		BuildingID int64          `json:"buildingId" doc:"Building ID"`
		Doors      []DoorBodyItem `json:"doors" doc:"Doors in insertion order"`
	}
}

// ListDoors returns the doors of one building. A building without doors,
// or an unknown one, is 404.
func (h *BuildingsHandler) ListDoors(ctx context.Context, input *DoorsInput) (*DoorsOutput, error) {
	doors, err := h.doors.Doors(ctx, input.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list doors", err)
	}
	if len(doors) == 0 {
		return nil, huma.Error404NotFound("building not found")
	}

	out := &DoorsOutput{}
	out.Body.BuildingID = input.ID
	out.Body.Doors = make([]DoorBodyItem, 0, len(doors))
	for _, d := range doors {
		out.Body.Doors = append(out.Body.Doors, DoorBodyItem{
			ID:                 d.ID,
			Language:           d.Language,
			Information:        d.Information,
			CongregationAppID:  d.CongregationAppID,
			CongregationLangID: d.CongregationLangID,
		})
	}
	return out, nil
}
