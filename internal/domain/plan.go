package domain

import "time"

// DefaultAverageSpeedKmh is the cruising speed used for duration estimates.
const DefaultAverageSpeedKmh = 60.0

// Plan event types.
const (
	EventPlanCommitted     = "plan.committed"
	EventPlanCancelled     = "plan.cancelled"
	EventShipmentCompleted = "shipment.completed"
)

// DispatchPlan is the committed outcome of one planning cycle: one vehicle,
// one batch of shipments, one route.
type DispatchPlan struct {
	ID                       string
	VehicleID                string
	ShipmentIDs              []string
	Route                    []string
	TotalDistanceKm          float64
	EstimatedDurationMinutes float64
	Efficiency               float64
	CreatedAt                time.Time
}

// RouteStop is a delivery location on a planned route and the shipments
// dropped there.
type RouteStop struct {
	LocationID  string    `json:"location_id"`
	ArriveAt    time.Time `json:"arrive_at"`
	DistanceKm  float64   `json:"distance_km"`
	ShipmentIDs []string  `json:"shipment_ids"`
}

// RoutePlan is a computed route for one vehicle. Path lists every location
// passed, Stops only the ones where shipments are delivered.
type RoutePlan struct {
	VehicleID                string
	DepartAt                 time.Time
	Path                     []string
	Stops                    []RouteStop
	TotalDistanceKm          float64
	EstimatedDurationMinutes float64
}

// PlanningResult is returned by a planning cycle. Expected failures (no
// vehicles, no feasible batch, unreachable destination) are reported with
// Success=false and a message rather than as errors.
type PlanningResult struct {
	Success                  bool
	Message                  string
	PlanID                   string
	Batch                    []Shipment
	Vehicle                  *Vehicle
	Route                    []string
	Stops                    []RouteStop
	TotalDistanceKm          float64
	EstimatedDurationMinutes float64
	Efficiency               float64
}

// PlanEvent is published whenever a plan changes state.
type PlanEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	PlanID      string    `json:"plan_id,omitempty"`
	VehicleID   string    `json:"vehicle_id,omitempty"`
	ShipmentIDs []string  `json:"shipment_ids,omitempty"`
	At          time.Time `json:"at"`
}

// EstimateDurationMinutes converts a distance in km to minutes at the
// given average speed. A non-positive speed falls back to the default.
func EstimateDurationMinutes(distanceKm, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = DefaultAverageSpeedKmh
	}
	return (distanceKm / speedKmh) * 60
}
