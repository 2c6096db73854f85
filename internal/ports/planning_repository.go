package ports

import (
	"context"

	"cargo-dispatch-service/internal/domain"
)

// Port: the persistent store of shipments, vehicles and committed plans.
type PlanningRepository interface {
	// Shipments in pending status, ordered by id.
	ListPendingShipments(ctx context.Context) ([]domain.Shipment, error)
	// Vehicles in available status, ordered by id.
	ListAvailableVehicles(ctx context.Context) ([]domain.Vehicle, error)

	// CommitPlan atomically marks the plan's shipments as planned and its
	// vehicle as assigned. Returns ErrConflict when any of them changed state.
	CommitPlan(ctx context.Context, plan domain.DispatchPlan) error
	// CancelPlanning returns planned shipments to pending and releases their
	// vehicles. The ids of the released vehicles are returned.
	CancelPlanning(ctx context.Context, shipmentIDs []string) ([]string, error)
	// CompleteShipment marks a shipment completed. The vehicle is released
	// when no planned or in-transit shipment remains on it.
	CompleteShipment(ctx context.Context, shipmentID string) (domain.Shipment, error)
}
