package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/ports"
)

// MemoryRepository is an in-memory store used when no DATABASE_URL is set.
// It implements both ports.PlanningRepository and ports.RoadNetwork.
type MemoryRepository struct {
	mu        sync.Mutex
	locations []domain.Location
	roads     []domain.Road
	vehicles  map[string]domain.Vehicle
	shipments map[string]domain.Shipment
	plans     map[string]domain.DispatchPlan
}

func NewMemoryRepository(seed Seed) *MemoryRepository {
	m := &MemoryRepository{
		vehicles:  make(map[string]domain.Vehicle, len(seed.Vehicles)),
		shipments: make(map[string]domain.Shipment, len(seed.Shipments)),
		plans:     map[string]domain.DispatchPlan{},
	}
	m.locations, m.roads = seed.RoadNetwork()
	for _, v := range seed.Vehicles {
		m.vehicles[v.ID] = v.toDomain()
	}
	for _, s := range seed.Shipments {
		m.shipments[s.ID] = s.toDomain()
	}
	return m
}

func (m *MemoryRepository) ListLocations(ctx context.Context) ([]domain.Location, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Location(nil), m.locations...), nil
}

func (m *MemoryRepository) ListRoads(ctx context.Context) ([]domain.Road, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Road(nil), m.roads...), nil
}

func (m *MemoryRepository) ListPendingShipments(ctx context.Context) ([]domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Shipment, 0, len(m.shipments))
	for _, s := range m.shipments {
		if s.Status == domain.ShipmentPending {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) ListAvailableVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		if v.Status == domain.VehicleAvailable {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Shipment returns one shipment regardless of status.
func (m *MemoryRepository) Shipment(ctx context.Context, id string) (domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shipments[id]
	if !ok {
		return domain.Shipment{}, fmt.Errorf("shipment %q: %w", id, ports.ErrNotFound)
	}
	return s, nil
}

func (m *MemoryRepository) Vehicle(ctx context.Context, id string) (domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vehicles[id]
	if !ok {
		return domain.Vehicle{}, fmt.Errorf("vehicle %q: %w", id, ports.ErrNotFound)
	}
	return v, nil
}

func (m *MemoryRepository) CommitPlan(ctx context.Context, plan domain.DispatchPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.vehicles[plan.VehicleID]
	if !ok {
		return fmt.Errorf("commit plan: vehicle %q: %w", plan.VehicleID, ports.ErrNotFound)
	}
	if v.Status != domain.VehicleAvailable {
		return fmt.Errorf("commit plan: vehicle %s is %s: %w", v.ID, v.Status, ports.ErrConflict)
	}
	for _, id := range plan.ShipmentIDs {
		s, ok := m.shipments[id]
		if !ok {
			return fmt.Errorf("commit plan: shipment %q: %w", id, ports.ErrNotFound)
		}
		if s.Status != domain.ShipmentPending {
			return fmt.Errorf("commit plan: shipment %s is %s: %w", id, s.Status, ports.ErrConflict)
		}
	}

	// All checks passed; apply.
	v.Status = domain.VehicleAssigned
	m.vehicles[v.ID] = v
	for _, id := range plan.ShipmentIDs {
		s := m.shipments[id]
		s.Status = domain.ShipmentPlanned
		s.AssignedVehicleID = plan.VehicleID
		s.PlannedRoute = append([]string(nil), plan.Route...)
		m.shipments[id] = s
	}
	m.plans[plan.ID] = plan
	return nil
}

func (m *MemoryRepository) CancelPlanning(ctx context.Context, shipmentIDs []string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]struct{}{}
	var candidates []string
	for _, id := range shipmentIDs {
		s, ok := m.shipments[id]
		if !ok || s.Status != domain.ShipmentPlanned {
			continue
		}
		if s.AssignedVehicleID != "" {
			if _, dup := seen[s.AssignedVehicleID]; !dup {
				seen[s.AssignedVehicleID] = struct{}{}
				candidates = append(candidates, s.AssignedVehicleID)
			}
		}
		s.Status = domain.ShipmentPending
		s.AssignedVehicleID = ""
		s.PlannedRoute = nil
		m.shipments[id] = s
	}

	var released []string
	for _, vid := range candidates {
		if m.releaseIfIdle(vid) {
			released = append(released, vid)
		}
	}
	return released, nil
}

func (m *MemoryRepository) CompleteShipment(ctx context.Context, shipmentID string) (domain.Shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shipments[shipmentID]
	if !ok {
		return domain.Shipment{}, fmt.Errorf("shipment %q: %w", shipmentID, ports.ErrNotFound)
	}
	if s.Status != domain.ShipmentPlanned && s.Status != domain.ShipmentInTransit {
		return domain.Shipment{}, fmt.Errorf("complete shipment: shipment %s is %s: %w", s.ID, s.Status, ports.ErrConflict)
	}
	s.Status = domain.ShipmentCompleted
	m.shipments[shipmentID] = s

	if s.AssignedVehicleID != "" {
		m.releaseIfIdle(s.AssignedVehicleID)
	}
	return s, nil
}

// releaseIfIdle marks the vehicle available once no planned or in-transit
// shipment is assigned to it. Callers hold m.mu.
func (m *MemoryRepository) releaseIfIdle(vehicleID string) bool {
	for _, other := range m.shipments {
		if other.AssignedVehicleID != vehicleID {
			continue
		}
		if other.Status == domain.ShipmentPlanned || other.Status == domain.ShipmentInTransit {
			return false
		}
	}
	v, ok := m.vehicles[vehicleID]
	if !ok {
		return false
	}
	v.Status = domain.VehicleAvailable
	m.vehicles[vehicleID] = v
	return true
}
