package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"cargo-dispatch-service/internal/domain"
)

// Seed is the JSON document used to populate a store for local runs.
type Seed struct {
	Locations []LocationSeed `json:"locations"`
	Roads     []RoadSeed     `json:"roads"`
	Vehicles  []VehicleSeed  `json:"vehicles"`
	Shipments []ShipmentSeed `json:"shipments"`
}

type LocationSeed struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city"`
	State string `json:"state"`
}

type RoadSeed struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

type VehicleSeed struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	CapacityKg float64 `json:"capacity_kg"`
	LocationID string  `json:"location_id"`
	Status     string  `json:"status"`
}

type ShipmentSeed struct {
	ID            string  `json:"id"`
	WeightKg      float64 `json:"weight_kg"`
	Priority      int     `json:"priority"`
	OriginID      string  `json:"origin_id"`
	DestinationID string  `json:"destination_id"`
	Status        string  `json:"status"`
}

// Read and validate a seed file.
func LoadSeed(jsonPath string) (Seed, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return Seed{}, fmt.Errorf("load seed: read %q: %w", jsonPath, err)
	}

	var s Seed
	if err := json.Unmarshal(bytes, &s); err != nil {
		return Seed{}, fmt.Errorf("load seed: parse json: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Seed{}, fmt.Errorf("load seed: %w", err)
	}
	return s, nil
}

// Validate checks every record and that roads, vehicles and shipments only
// reference known locations.
func (s Seed) Validate() error {
	known := make(map[string]struct{}, len(s.Locations))
	for i, l := range s.Locations {
		if strings.TrimSpace(l.ID) == "" {
			return fmt.Errorf("location at index %d: id cannot be empty", i+1)
		}
		known[l.ID] = struct{}{}
	}
	ref := func(kind, owner, id string) error {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%s %s: unknown location %q", kind, owner, id)
		}
		return nil
	}

	for i, r := range s.Roads {
		if r.DistanceKm < 0 {
			return fmt.Errorf("road at index %d: distance must be >= 0", i+1)
		}
		if err := ref("road", fmt.Sprintf("#%d", i+1), r.From); err != nil {
			return err
		}
		if err := ref("road", fmt.Sprintf("#%d", i+1), r.To); err != nil {
			return err
		}
	}

	for _, v := range s.Vehicles {
		if err := v.toDomain().Validate(); err != nil {
			return err
		}
		if v.LocationID != "" {
			if err := ref("vehicle", v.ID, v.LocationID); err != nil {
				return err
			}
		}
	}

	for _, sh := range s.Shipments {
		if err := sh.toDomain().Validate(); err != nil {
			return err
		}
		if err := ref("shipment", sh.ID, sh.DestinationID); err != nil {
			return err
		}
	}
	return nil
}

func (l LocationSeed) toDomain() domain.Location {
	return domain.Location{ID: l.ID, Name: l.Name, City: l.City, State: l.State}
}

func (r RoadSeed) toDomain() domain.Road {
	return domain.Road{FromID: r.From, ToID: r.To, DistanceKm: r.DistanceKm}
}

func (v VehicleSeed) toDomain() domain.Vehicle {
	status := v.Status
	if status == "" {
		status = domain.VehicleAvailable
	}
	return domain.Vehicle{ID: v.ID, Name: v.Name, CapacityKg: v.CapacityKg, LocationID: v.LocationID, Status: status}
}

func (s ShipmentSeed) toDomain() domain.Shipment {
	status := s.Status
	if status == "" {
		status = domain.ShipmentPending
	}
	return domain.Shipment{
		ID:            s.ID,
		WeightKg:      s.WeightKg,
		Priority:      s.Priority,
		OriginID:      s.OriginID,
		DestinationID: s.DestinationID,
		Status:        status,
	}
}

// RoadNetwork returns the seed's locations and roads as domain values.
func (s Seed) RoadNetwork() ([]domain.Location, []domain.Road) {
	locations := make([]domain.Location, 0, len(s.Locations))
	for _, l := range s.Locations {
		locations = append(locations, l.toDomain())
	}
	roads := make([]domain.Road, 0, len(s.Roads))
	for _, r := range s.Roads {
		roads = append(roads, r.toDomain())
	}
	return locations, roads
}
