// Package store persists buildings and their doors.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joeblew999/plat-door/internal/db"
)

// BuildingStore is the persistence boundary used by the door service.
type BuildingStore interface {
	// CreateWithDoors inserts b and every door in one transaction.
	CreateWithDoors(ctx context.Context, b NewBuilding, doors []NewDoor) (*Building, error)
	// Latest returns the building with the highest id, or nil, nil.
	Latest(ctx context.Context) (*BuildingSummary, error)
	// Recent returns up to limit buildings, newest first.
	Recent(ctx context.Context, limit int) ([]BuildingSummary, error)
	// Doors lists the doors of one building in id order.
	Doors(ctx context.Context, buildingID int64) ([]Door, error)
}

type buildingStore struct {
	db *db.DB
}

// NewBuildingStore returns a BuildingStore over d.
func NewBuildingStore(d *db.DB) BuildingStore {
	return &buildingStore{db: d}
}

func (s *buildingStore) CreateWithDoors(ctx context.Context, b NewBuilding, doors []NewDoor) (*Building, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	created := &Building{
		Lat:         b.Lat,
		Long:        b.Long,
		Information: b.Information,
		TerritoryID: b.TerritoryID,
	}
	err = tx.QueryRowContext(ctx, s.db.Rebind(`
		INSERT INTO building (lat, "long", information, territory_id)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), b.Lat, b.Long, b.Information, b.TerritoryID).Scan(&created.ID)
	if err != nil {
		return nil, fmt.Errorf("insert building: %w", err)
	}

	insertDoor := s.db.Rebind(`
		INSERT INTO door (language, information, building_id, id_cong_app, id_cong_lang)
		VALUES (?, ?, ?, ?, ?)
	`)
	for i, d := range doors {
		if _, err := tx.ExecContext(ctx, insertDoor,
			d.Language, d.Information, created.ID, d.CongregationAppID, d.CongregationLangID,
		); err != nil {
			return nil, fmt.Errorf("insert door %d of %d: %w", i+1, len(doors), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return created, nil
}

// summarySelect picks each building's door count and the language of its
// lowest-id door.
const summarySelect = `
	SELECT
		b.id,
		b.lat,
		b."long",
		b.information,
		(SELECT COUNT(*) FROM door d WHERE d.building_id = b.id) AS door_count,
		COALESCE(
			(SELECT d.language FROM door d WHERE d.building_id = b.id ORDER BY d.id LIMIT 1),
			'` + UnknownLanguage + `'
		) AS language
	FROM building b
`

func scanSummary(row interface{ Scan(...any) error }) (*BuildingSummary, error) {
	var s BuildingSummary
	if err := row.Scan(&s.ID, &s.Lat, &s.Long, &s.Information, &s.DoorCount, &s.Language); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *buildingStore) Latest(ctx context.Context) (*BuildingSummary, error) {
	row := s.db.QueryRowContext(ctx, summarySelect+` ORDER BY b.id DESC LIMIT 1`)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest building: %w", err)
	}
	return summary, nil
}

func (s *buildingStore) Recent(ctx context.Context, limit int) ([]BuildingSummary, error) {
	if limit <= 0 {
		return []BuildingSummary{}, nil
	}
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(summarySelect+` ORDER BY b.id DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("recent buildings: %w", err)
	}
	defer rows.Close()

	out := []BuildingSummary{}
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan building: %w", err)
		}
		out = append(out, *summary)
	}
	return out, rows.Err()
}

func (s *buildingStore) Doors(ctx context.Context, buildingID int64) ([]Door, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
		SELECT id, language, information, building_id, id_cong_app, id_cong_lang
		FROM door
		WHERE building_id = ?
		ORDER BY id
	`), buildingID)
	if err != nil {
		return nil, fmt.Errorf("list doors: %w", err)
	}
	defer rows.Close()

	out := []Door{}
	for rows.Next() {
		var d Door
		if err := rows.Scan(&d.ID, &d.Language, &d.Information, &d.BuildingID,
			&d.CongregationAppID, &d.CongregationLangID); err != nil {
			return nil, fmt.Errorf("scan door: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
