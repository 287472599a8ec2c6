package db

import (
	"context"
	"fmt"
)

// Migrate creates the schema. Safe to call multiple times.
func (d *DB) Migrate(ctx context.Context) error {
	stmts, ok := schemas[d.Driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", d.Driver)
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var schemas = map[Driver][]string{
	DuckDB: {
		`CREATE SEQUENCE IF NOT EXISTS building_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS building (
			id BIGINT PRIMARY KEY DEFAULT nextval('building_id_seq'),
			lat DOUBLE NOT NULL,
			"long" DOUBLE NOT NULL,
			information VARCHAR NOT NULL DEFAULT '',
			territory_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE SEQUENCE IF NOT EXISTS door_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS door (
			id BIGINT PRIMARY KEY DEFAULT nextval('door_id_seq'),
			language VARCHAR NOT NULL,
			information VARCHAR NOT NULL DEFAULT '',
			building_id BIGINT NOT NULL REFERENCES building(id),
			id_cong_app BIGINT NOT NULL,
			id_cong_lang BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_door_building_id ON door(building_id)`,
	},
	SQLite: {
		`CREATE TABLE IF NOT EXISTS building (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			lat REAL NOT NULL,
			"long" REAL NOT NULL,
			information TEXT NOT NULL DEFAULT '',
			territory_id INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS door (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			language TEXT NOT NULL,
			information TEXT NOT NULL DEFAULT '',
			building_id INTEGER NOT NULL REFERENCES building(id),
			id_cong_app INTEGER NOT NULL,
			id_cong_lang INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_door_building_id ON door(building_id)`,
	},
	Postgres: {
		`CREATE TABLE IF NOT EXISTS building (
			id BIGSERIAL PRIMARY KEY,
			lat DOUBLE PRECISION NOT NULL,
			"long" DOUBLE PRECISION NOT NULL,
			information TEXT NOT NULL DEFAULT '',
			territory_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS door (
			id BIGSERIAL PRIMARY KEY,
			language TEXT NOT NULL,
			information TEXT NOT NULL DEFAULT '',
			building_id BIGINT NOT NULL REFERENCES building(id) ON DELETE CASCADE,
			id_cong_app BIGINT NOT NULL,
			id_cong_lang BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_door_building_id ON door(building_id)`,
	},
}
