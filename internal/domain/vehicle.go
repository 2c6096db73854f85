package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Vehicle availability states.
const (
	VehicleAvailable   = "available"
	VehicleAssigned    = "assigned"
	VehicleMaintenance = "maintenance"
)

var ErrInvalidVehicle = errors.New("invalid vehicle")

// Delivery vehicle. The planner only looks at ID and CapacityKg; the
// location is where the route of a dispatched batch starts.
type Vehicle struct {
	ID         string
	Name       string
	CapacityKg float64
	LocationID string
	Status     string
}

func (v Vehicle) Validate() error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidVehicle)
	}
	if v.CapacityKg <= 0 {
		return fmt.Errorf("%w: vehicle %s capacity must be > 0 (got %g)", ErrInvalidVehicle, v.ID, v.CapacityKg)
	}
	return nil
}

// Utilization is the share of capacity used by the given weight.
func (v Vehicle) Utilization(weightKg float64) float64 {
	if v.CapacityKg <= 0 {
		return 0
	}
	return weightKg / v.CapacityKg
}
