package store

import "time"

// UnknownLanguage is reported for a building without doors.
const UnknownLanguage = "Unknown"

// Building is one pinned structure.
type Building struct {
	ID          int64
	Lat         float64
	Long        float64
	Information string
	TerritoryID int64
	CreatedAt   time.Time
}

// Door is one dwelling unit inside a building.
type Door struct {
	ID                 int64
	Language           string
	Information        string
	BuildingID         int64
	CongregationAppID  int64
	CongregationLangID int64
}

// NewBuilding is the insert shape for a building.
type NewBuilding struct {
	Lat         float64
	Long        float64
	Information string
	TerritoryID int64
}

// NewDoor is the insert shape for a door; BuildingID is filled in by the
// store.
type NewDoor struct {
	Language           string
	Information        string
	CongregationAppID  int64
	CongregationLangID int64
}

// BuildingSummary is a building with its door count and first-door
// language.
type BuildingSummary struct {
	ID          int64
	Lat         float64
	Long        float64
	Information string
	DoorCount   int
	Language    string
}
