package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/platform/obs"
	"cargo-dispatch-service/internal/ports"
)

// Postgres-backed implementation of the PlanningRepository and RoadNetwork
// ports. Queries go through database/sql with the pgx driver.
type PostgresRepository struct{ DB *sql.DB }

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{DB: db}
}

var errNilDB = errors.New("postgres repository: DB is nil")

// Shipments in these states keep their vehicle assigned.
var activeShipmentStatuses = []string{domain.ShipmentPlanned, domain.ShipmentInTransit}

const releaseIdleVehiclesSQL = `
UPDATE vehicles v SET status = $1
WHERE v.id = ANY($2::text[])
	AND NOT EXISTS (
		SELECT 1 FROM shipments s
		WHERE s.assigned_vehicle_id = v.id AND s.status = ANY($3::text[])
	)
RETURNING v.id;`

func (p *PostgresRepository) ListLocations(ctx context.Context) (_ []domain.Location, err error) {
	defer obs.Time(ctx, "repo.ListLocations")(&err)
	if p.DB == nil {
		return nil, errNilDB
	}

	rows, err := p.DB.QueryContext(ctx, `SELECT id, name, city, state FROM locations ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list locations: query locations table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Location, 0, 64)
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.City, &l.State); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) ListRoads(ctx context.Context) (_ []domain.Road, err error) {
	defer obs.Time(ctx, "repo.ListRoads")(&err)
	if p.DB == nil {
		return nil, errNilDB
	}

	rows, err := p.DB.QueryContext(ctx, `SELECT from_id, to_id, distance_km FROM roads ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list roads: query roads table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Road, 0, 128)
	for rows.Next() {
		var r domain.Road
		if err := rows.Scan(&r.FromID, &r.ToID, &r.DistanceKm); err != nil {
			return nil, fmt.Errorf("list roads: scan row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roads: row iteration: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) ListPendingShipments(ctx context.Context) (_ []domain.Shipment, err error) {
	defer obs.Time(ctx, "repo.ListPendingShipments")(&err)
	if p.DB == nil {
		return nil, errNilDB
	}

	rows, err := p.DB.QueryContext(ctx, `
	SELECT id, weight_kg, priority, origin_id, destination_id, status,
		COALESCE(assigned_vehicle_id, ''), COALESCE(planned_route, '')
	FROM shipments
	WHERE status = $1
	ORDER BY id;
	`, domain.ShipmentPending)
	if err != nil {
		return nil, fmt.Errorf("list pending shipments: query shipments table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Shipment, 0, 64)
	for rows.Next() {
		s, err := scanShipment(rows)
		if err != nil {
			return nil, fmt.Errorf("list pending shipments: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending shipments: row iteration: %w", err)
	}
	return out, nil
}

func (p *PostgresRepository) ListAvailableVehicles(ctx context.Context) (_ []domain.Vehicle, err error) {
	defer obs.Time(ctx, "repo.ListAvailableVehicles")(&err)
	if p.DB == nil {
		return nil, errNilDB
	}

	rows, err := p.DB.QueryContext(ctx, `
	SELECT id, name, capacity_kg, COALESCE(location_id, ''), status
	FROM vehicles
	WHERE status = $1
	ORDER BY id;
	`, domain.VehicleAvailable)
	if err != nil {
		return nil, fmt.Errorf("list available vehicles: query vehicles table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vehicle, 0, 16)
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.CapacityKg, &v.LocationID, &v.Status); err != nil {
			return nil, fmt.Errorf("list available vehicles: scan row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list available vehicles: row iteration: %w", err)
	}
	return out, nil
}

// CommitPlan applies the plan in one transaction. The status guards in the
// UPDATE statements turn a concurrent change into ErrConflict.
func (p *PostgresRepository) CommitPlan(ctx context.Context, plan domain.DispatchPlan) (err error) {
	defer obs.Time(ctx, "repo.CommitPlan")(&err)
	if p.DB == nil {
		return errNilDB
	}

	route, err := json.Marshal(plan.Route)
	if err != nil {
		return fmt.Errorf("commit plan: encode route: %w", err)
	}
	ids, err := json.Marshal(plan.ShipmentIDs)
	if err != nil {
		return fmt.Errorf("commit plan: encode shipment ids: %w", err)
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit plan: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
	UPDATE vehicles SET status = $1
	WHERE id = $2 AND status = $3;
	`, domain.VehicleAssigned, plan.VehicleID, domain.VehicleAvailable)
	if err != nil {
		return fmt.Errorf("commit plan: update vehicle: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("commit plan: vehicle %s is not available: %w", plan.VehicleID, ports.ErrConflict)
	}

	res, err = tx.ExecContext(ctx, `
	UPDATE shipments
	SET status = $1, assigned_vehicle_id = $2, planned_route = $3
	WHERE id = ANY($4::text[]) AND status = $5;
	`, domain.ShipmentPlanned, plan.VehicleID, string(route), plan.ShipmentIDs, domain.ShipmentPending)
	if err != nil {
		return fmt.Errorf("commit plan: update shipments: %w", err)
	}
	if n, _ := res.RowsAffected(); n != int64(len(plan.ShipmentIDs)) {
		return fmt.Errorf("commit plan: %d of %d shipments still pending: %w", n, len(plan.ShipmentIDs), ports.ErrConflict)
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO dispatch_plans (
		id, vehicle_id, shipment_ids, route,
		total_distance_km, estimated_duration_minutes, efficiency, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, plan.ID, plan.VehicleID, string(ids), string(route),
		plan.TotalDistanceKm, plan.EstimatedDurationMinutes, plan.Efficiency, plan.CreatedAt); err != nil {
		return fmt.Errorf("commit plan: insert plan %s: %w", plan.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit plan: commit tx: %w", err)
	}
	return nil
}

func (p *PostgresRepository) CancelPlanning(ctx context.Context, shipmentIDs []string) (_ []string, err error) {
	defer obs.Time(ctx, "repo.CancelPlanning")(&err)
	if p.DB == nil {
		return nil, errNilDB
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("cancel planning: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
	WITH planned AS (
		SELECT id, assigned_vehicle_id FROM shipments
		WHERE id = ANY($2::text[]) AND status = $3
		FOR UPDATE
	)
	UPDATE shipments s
	SET status = $1, assigned_vehicle_id = NULL, planned_route = NULL
	FROM planned
	WHERE s.id = planned.id
	RETURNING planned.assigned_vehicle_id;
	`, domain.ShipmentPending, shipmentIDs, domain.ShipmentPlanned)
	if err != nil {
		return nil, fmt.Errorf("cancel planning: update shipments: %w", err)
	}

	seen := map[string]struct{}{}
	var candidates []string
	for rows.Next() {
		var vid sql.NullString
		if err := rows.Scan(&vid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("cancel planning: scan row: %w", err)
		}
		if !vid.Valid || vid.String == "" {
			continue
		}
		if _, ok := seen[vid.String]; ok {
			continue
		}
		seen[vid.String] = struct{}{}
		candidates = append(candidates, vid.String)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("cancel planning: row iteration: %w", err)
	}
	rows.Close()

	var released []string
	if len(candidates) > 0 {
		vrows, err := tx.QueryContext(ctx, releaseIdleVehiclesSQL,
			domain.VehicleAvailable, candidates, activeShipmentStatuses)
		if err != nil {
			return nil, fmt.Errorf("cancel planning: release vehicles: %w", err)
		}
		for vrows.Next() {
			var vid string
			if err := vrows.Scan(&vid); err != nil {
				vrows.Close()
				return nil, fmt.Errorf("cancel planning: scan vehicle: %w", err)
			}
			released = append(released, vid)
		}
		if err := vrows.Err(); err != nil {
			vrows.Close()
			return nil, fmt.Errorf("cancel planning: vehicle iteration: %w", err)
		}
		vrows.Close()
		sort.Strings(released)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("cancel planning: commit tx: %w", err)
	}
	return released, nil
}

func (p *PostgresRepository) CompleteShipment(ctx context.Context, shipmentID string) (_ domain.Shipment, err error) {
	defer obs.Time(ctx, "repo.CompleteShipment")(&err)
	if p.DB == nil {
		return domain.Shipment{}, errNilDB
	}

	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("complete shipment: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
	UPDATE shipments SET status = $1
	WHERE id = $2 AND status = ANY($3::text[])
	RETURNING id, weight_kg, priority, origin_id, destination_id, status,
		COALESCE(assigned_vehicle_id, ''), COALESCE(planned_route, '');
	`, domain.ShipmentCompleted, shipmentID, activeShipmentStatuses)
	s, err := scanShipment(row)
	if errors.Is(err, sql.ErrNoRows) {
		var status string
		serr := tx.QueryRowContext(ctx, `SELECT status FROM shipments WHERE id = $1;`, shipmentID).Scan(&status)
		if errors.Is(serr, sql.ErrNoRows) {
			return domain.Shipment{}, fmt.Errorf("shipment %q: %w", shipmentID, ports.ErrNotFound)
		}
		if serr != nil {
			return domain.Shipment{}, fmt.Errorf("complete shipment: lookup status: %w", serr)
		}
		return domain.Shipment{}, fmt.Errorf("complete shipment: shipment %s is %s: %w", shipmentID, status, ports.ErrConflict)
	}
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("complete shipment: %w", err)
	}

	if s.AssignedVehicleID != "" {
		if _, err := tx.ExecContext(ctx, releaseIdleVehiclesSQL,
			domain.VehicleAvailable, []string{s.AssignedVehicleID}, activeShipmentStatuses); err != nil {
			return domain.Shipment{}, fmt.Errorf("complete shipment: release vehicle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Shipment{}, fmt.Errorf("complete shipment: commit tx: %w", err)
	}
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanShipment(r rowScanner) (domain.Shipment, error) {
	var s domain.Shipment
	var route string
	if err := r.Scan(&s.ID, &s.WeightKg, &s.Priority, &s.OriginID, &s.DestinationID, &s.Status, &s.AssignedVehicleID, &route); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Shipment{}, err
		}
		return domain.Shipment{}, fmt.Errorf("scan shipment: %w", err)
	}
	if route != "" {
		if err := json.Unmarshal([]byte(route), &s.PlannedRoute); err != nil {
			return domain.Shipment{}, fmt.Errorf("scan shipment %s: decode route: %w", s.ID, err)
		}
	}
	return s, nil
}
