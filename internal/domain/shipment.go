package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Shipment lifecycle states.
const (
	ShipmentPending   = "pending"
	ShipmentPlanned   = "planned"
	ShipmentInTransit = "in_transit"
	ShipmentCompleted = "completed"
)

// Priority bounds accepted at the ingestion boundary. 1 is the most urgent.
const (
	MinPriority = 1
	MaxPriority = 5
)

var ErrInvalidShipment = errors.New("invalid shipment")

// Represents a single cargo shipment waiting to be (or already) dispatched.
// Planning works on immutable snapshots of these values.
type Shipment struct {
	ID                string
	WeightKg          float64
	Priority          int
	OriginID          string
	DestinationID     string
	Status            string
	AssignedVehicleID string
	PlannedRoute      []string
}

// Validate checks the invariants the planner relies on.
func (s Shipment) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidShipment)
	}
	if s.WeightKg <= 0 {
		return fmt.Errorf("%w: shipment %s weight must be > 0 (got %g)", ErrInvalidShipment, s.ID, s.WeightKg)
	}
	if s.Priority < MinPriority || s.Priority > MaxPriority {
		return fmt.Errorf(
			"%w: shipment %s priority must be between %d and %d (got %d)",
			ErrInvalidShipment, s.ID, MinPriority, MaxPriority, s.Priority,
		)
	}
	if strings.TrimSpace(s.DestinationID) == "" {
		return fmt.Errorf("%w: shipment %s destination must not be empty", ErrInvalidShipment, s.ID)
	}
	return nil
}

// DistinctDestinations returns destination ids in first-seen order.
func DistinctDestinations(shipments []Shipment) []string {
	seen := make(map[string]struct{}, len(shipments))
	out := make([]string, 0, len(shipments))
	for _, s := range shipments {
		if _, ok := seen[s.DestinationID]; ok {
			continue
		}
		seen[s.DestinationID] = struct{}{}
		out = append(out, s.DestinationID)
	}
	return out
}

// ShipmentIDs returns the ids of the given shipments in order.
func ShipmentIDs(shipments []Shipment) []string {
	ids := make([]string, 0, len(shipments))
	for _, s := range shipments {
		ids = append(ids, s.ID)
	}
	return ids
}
