package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb/geojson"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/plat-door/internal/geo"
	"github.com/joeblew999/plat-door/internal/mapview"
	"github.com/joeblew999/plat-door/internal/store"
)

var (
	ErrCoordinatesRequired = errors.New("latitude and longitude required")
	ErrNoBuildings         = errors.New("no buildings found")
)

// DoorService creates buildings with their doors and reads them back.
type DoorService struct {
	store    store.BuildingStore
	settings Settings
	bus      *EventBus
	log      logrus.FieldLogger
}

// NewDoorService creates a new door service. bus may be nil.
func NewDoorService(s store.BuildingStore, settings Settings, bus *EventBus, log logrus.FieldLogger) *DoorService {
	return &DoorService{store: s, settings: settings, bus: bus, log: log}
}

// DoorCount is the number of doors created for a request: at least one.
func DoorCount(requested int) int {
	return max(requested, 1)
}

// Create validates req and stores one building and DoorCount doors in a
// single transaction.
func (s *DoorService) Create(ctx context.Context, req CreateRequest) (*store.Building, error) {
	// zero counts as missing
	if req.Lat == 0 || req.Long == 0 {
		return nil, ErrCoordinatesRequired
	}

	n := DoorCount(req.NumberOfDoors)
	doors := make([]store.NewDoor, n)
	for i := range doors {
		info := req.Info
		if i < len(req.Addresses) && req.Addresses[i] != "" {
			info = req.Addresses[i]
		}
		doors[i] = store.NewDoor{
			Language:           req.Language,
			Information:        info,
			CongregationAppID:  s.settings.CongregationAppID,
			CongregationLangID: s.settings.CongregationLangID,
		}
	}

	b, err := s.store.CreateWithDoors(ctx, store.NewBuilding{
		Lat:         req.Lat,
		Long:        req.Long,
		Information: req.Info,
		TerritoryID: s.settings.TerritoryID,
	}, doors)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"lat":   req.Lat,
			"long":  req.Long,
			"doors": n,
		}).Error("Failed to save building")
		return nil, fmt.Errorf("create building: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"building_id": b.ID,
		"doors":       n,
		"language":    req.Language,
	}).Info("Saved building")

	if s.bus != nil {
		s.bus.Publish(BuildingCreated(b.ID))
	}
	return b, nil
}

// Latest returns the most recent building, or ErrNoBuildings.
func (s *DoorService) Latest(ctx context.Context) (*store.BuildingSummary, error) {
	b, err := s.store.Latest(ctx)
	if err != nil {
		s.log.WithError(err).Error("Failed to load latest building")
		return nil, err
	}
	if b == nil {
		return nil, ErrNoBuildings
	}
	return b, nil
}

// Pins returns recent buildings as static map pins.
func (s *DoorService) Pins(ctx context.Context, limit int) ([]mapview.Pin, error) {
	recent, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	pins := make([]mapview.Pin, 0, len(recent))
	for _, b := range recent {
		pins = append(pins, mapview.Pin{
			ID:       b.ID,
			Position: geo.Coordinate{Lat: b.Lat, Lng: b.Long},
			Title:    pinTitle(b),
		})
	}
	return pins, nil
}

func pinTitle(b store.BuildingSummary) string {
	title := b.Information
	if title == "" {
		title = "Building " + strconv.FormatInt(b.ID, 10)
	}
	return fmt.Sprintf("%s (%d doors, %s)", title, b.DoorCount, b.Language)
}

// PinsGeoJSON returns recent buildings as a FeatureCollection of points.
func (s *DoorService) PinsGeoJSON(ctx context.Context, limit int) (*geojson.FeatureCollection, error) {
	recent, err := s.store.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	for _, b := range recent {
		f := geojson.NewFeature(geo.Coordinate{Lat: b.Lat, Lng: b.Long}.Point())
		f.ID = b.ID
		f.Properties["information"] = b.Information
		f.Properties["doorCount"] = b.DoorCount
		f.Properties["language"] = b.Language
		fc.Append(f)
	}
	return fc, nil
}

// Recent returns up to limit buildings, newest first.
func (s *DoorService) Recent(ctx context.Context, limit int) ([]store.BuildingSummary, error) {
	return s.store.Recent(ctx, limit)
}

// Doors lists the doors of one building in insertion order.
func (s *DoorService) Doors(ctx context.Context, buildingID int64) ([]store.Door, error) {
	return s.store.Doors(ctx, buildingID)
}
