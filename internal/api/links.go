package api

import (
	"strconv"

	"github.com/joeblew999/plat-door/internal/humastar"
)

// Links returns the RFC 8288 Link headers per operation path.
// Enables restish hypermedia navigation via `restish links <url>`.
func Links() humastar.Links {
	l := humastar.Links{}

	l.Add("/health", "/api/v1/info", "info")
	l.Add("/health", "/door", "door")
	l.Add("/health", "/api/v1/buildings", "buildings")
	l.Add("/health", "/api/v1/buildings/pins", "pins")
	l.Add("/health", "/api/v1/tiles", "tiles")
	l.DiscoveryLinks("/health")

	l.Add("/api/v1/info", "/health", "up")
	l.Add("/door", "/health", "up")
	l.Add("/door", "/api/v1/buildings", "collection")

	l.Add("/api/v1/buildings", "/health", "up")
	l.Add("/api/v1/buildings", "/api/v1/buildings/pins", "alternate")
	l.Add("/api/v1/buildings", "/door", "create-form")
	l.Add("/api/v1/buildings/pins", "/api/v1/buildings", "collection")
	l.Add("/api/v1/buildings/{id}/doors", "/api/v1/buildings", "collection")

	l.Add("/api/v1/tiles", "/health", "up")
	return l
}

// buildingActions are offered alongside a building.
var buildingActions = []humastar.ActionDef{
	{Rel: "create-form", Pattern: "/door", Method: "POST", Title: "Pin another building"},
	{Rel: "item", Pattern: "/api/v1/buildings/%s/doors", Title: "Doors"},
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
