package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createLocationsQuery := `
	CREATE TABLE IF NOT EXISTS locations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT ''
	);
	`

	createRoadsQuery := `
	CREATE TABLE IF NOT EXISTS roads (
		id BIGSERIAL PRIMARY KEY,
		from_id TEXT NOT NULL REFERENCES locations(id),
		to_id TEXT NOT NULL REFERENCES locations(id),
		distance_km DOUBLE PRECISION NOT NULL CHECK (distance_km >= 0),
		UNIQUE (from_id, to_id)
	);
	`

	createVehiclesQuery := `
	CREATE TABLE IF NOT EXISTS vehicles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		capacity_kg DOUBLE PRECISION NOT NULL CHECK (capacity_kg > 0),
		location_id TEXT REFERENCES locations(id),
		status TEXT NOT NULL DEFAULT 'available'
	);
	`

	createShipmentsQuery := `
	CREATE TABLE IF NOT EXISTS shipments (
		id TEXT PRIMARY KEY,
		weight_kg DOUBLE PRECISION NOT NULL CHECK (weight_kg > 0),
		priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
		origin_id TEXT NOT NULL DEFAULT '',
		destination_id TEXT NOT NULL REFERENCES locations(id),
		status TEXT NOT NULL DEFAULT 'pending',
		assigned_vehicle_id TEXT REFERENCES vehicles(id),
		planned_route TEXT
	);
	`

	createPlansQuery := `
	CREATE TABLE IF NOT EXISTS dispatch_plans (
		id TEXT PRIMARY KEY,
		vehicle_id TEXT NOT NULL REFERENCES vehicles(id),
		shipment_ids TEXT NOT NULL,
		route TEXT NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		estimated_duration_minutes DOUBLE PRECISION NOT NULL,
		efficiency DOUBLE PRECISION NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_shipments_status_vehicle
	ON shipments(status, assigned_vehicle_id);
	`

	statements := []string{
		createLocationsQuery,
		createRoadsQuery,
		createVehiclesQuery,
		createShipmentsQuery,
		createPlansQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// Populate the database from a JSON seed file. Existing rows with the same
// ids are overwritten.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	seed, err := LoadSeed(jsonPath)
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed database: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, l := range seed.Locations {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO locations (id, name, city, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, city = EXCLUDED.city, state = EXCLUDED.state;
		`, l.ID, l.Name, l.City, l.State); err != nil {
			return fmt.Errorf("seed database: insert location %s: %w", l.ID, err)
		}
	}

	for i, r := range seed.Roads {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO roads (from_id, to_id, distance_km)
		VALUES ($1, $2, $3)
		ON CONFLICT (from_id, to_id) DO UPDATE
		SET distance_km = EXCLUDED.distance_km;
		`, r.From, r.To, r.DistanceKm); err != nil {
			return fmt.Errorf("seed database: insert road #%d: %w", i+1, err)
		}
	}

	for _, sv := range seed.Vehicles {
		v := sv.toDomain()
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO vehicles (id, name, capacity_kg, location_id, status)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, capacity_kg = EXCLUDED.capacity_kg,
			location_id = EXCLUDED.location_id, status = EXCLUDED.status;
		`, v.ID, v.Name, v.CapacityKg, v.LocationID, v.Status); err != nil {
			return fmt.Errorf("seed database: insert vehicle %s: %w", v.ID, err)
		}
	}

	for _, ss := range seed.Shipments {
		s := ss.toDomain()
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO shipments (id, weight_kg, priority, origin_id, destination_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET weight_kg = EXCLUDED.weight_kg, priority = EXCLUDED.priority,
			origin_id = EXCLUDED.origin_id, destination_id = EXCLUDED.destination_id,
			status = EXCLUDED.status, assigned_vehicle_id = NULL, planned_route = NULL;
		`, s.ID, s.WeightKg, s.Priority, s.OriginID, s.DestinationID, s.Status); err != nil {
			return fmt.Errorf("seed database: insert shipment %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed database: commit tx: %w", err)
	}

	return nil
}
