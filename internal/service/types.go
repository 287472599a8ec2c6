// Package service contains business logic for the door registry.
package service

// CreateRequest is one submission: a building and how many doors it has.
type CreateRequest struct {
	Lat           float64
	Long          float64
	Info          string
	Language      string
	NumberOfDoors int
	// Addresses optionally names each door; blank entries fall back to Info.
	Addresses []string
}

// Settings are the deployment constants written with every record.
type Settings struct {
	TerritoryID        int64
	CongregationAppID  int64
	CongregationLangID int64
}

// TileLayer describes one base layer offered to the map.
type TileLayer struct {
	Layer       string `json:"layer" doc:"Base layer key" enum:"map,satellite" example:"satellite"`
	Name        string `json:"name" doc:"Provider name" example:"Esri World Imagery"`
	URL         string `json:"url" doc:"XYZ tile URL template"`
	Attribution string `json:"attribution" doc:"Attribution HTML" example:"Tiles © Esri"`
	MaxZoom     int    `json:"maxZoom" doc:"Highest zoom the provider serves" example:"19"`
}
