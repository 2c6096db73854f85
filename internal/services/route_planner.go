package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/graph"
	"cargo-dispatch-service/internal/platform/obs"
	"cargo-dispatch-service/internal/ports"
)

// ErrNoRoute means some destination cannot be reached over the road network.
var ErrNoRoute = errors.New("no viable route")

// RoutePlanner turns a batch of shipments into a route over the current road
// network.
type RoutePlanner struct {
	Network  ports.RoadNetwork
	Strategy graph.RouteStrategy
	SpeedKmh float64
}

// Load the road network and build a fresh graph from it.
func (r RoutePlanner) Graph(ctx context.Context) (_ *graph.Graph, err error) {
	defer obs.Time(ctx, "route.graph")(&err)

	if r.Network == nil {
		return nil, errors.New("load graph: road network is nil")
	}

	locations, err := r.Network.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: list locations: %w", err)
	}
	roads, err := r.Network.ListRoads(ctx)
	if err != nil {
		return nil, fmt.Errorf("load graph: list roads: %w", err)
	}

	g, err := graph.Build(locations, roads)
	if err != nil {
		return nil, fmt.Errorf("load graph: %w", err)
	}
	return g, nil
}

// Plan a delivery route for a vehicle carrying the given shipments.
//
// The route starts at the vehicle's location and visits every distinct
// destination of the batch, in first-seen order as input to the configured
// route strategy. It is open: the return leg is not included.
func (r RoutePlanner) PlanRoute(
	ctx context.Context,
	g *graph.Graph,
	vehicle domain.Vehicle,
	departAt time.Time,
	shipments []domain.Shipment,
) (*domain.RoutePlan, error) {
	start := vehicle.LocationID
	if start == "" {
		return nil, fmt.Errorf("plan route: vehicle %s has no location", vehicle.ID)
	}

	if len(shipments) == 0 {
		return &domain.RoutePlan{
			VehicleID: vehicle.ID,
			DepartAt:  departAt,
			Path:      []string{start},
			Stops:     []domain.RouteStop{},
		}, nil
	}

	byDestination := make(map[string][]string)
	for _, s := range shipments {
		byDestination[s.DestinationID] = append(byDestination[s.DestinationID], s.ID)
	}
	destinations := domain.DistinctDestinations(shipments)

	path, ok := g.CalculateRoute(r.Strategy, start, destinations)
	if !ok {
		return nil, fmt.Errorf("plan route: from %q through %v: %w", start, destinations, ErrNoRoute)
	}

	// Walk the path once, accumulating distance, and open a stop the first
	// time each destination is passed.
	stops := make([]domain.RouteStop, 0, len(destinations))
	travelled := 0.0
	for i, id := range path.Nodes {
		if i > 0 {
			w, ok := g.EdgeWeight(path.Nodes[i-1], id)
			if !ok {
				return nil, fmt.Errorf("plan route: no road between %q and %q", path.Nodes[i-1], id)
			}
			travelled += w
		}

		ids, wanted := byDestination[id]
		if !wanted {
			continue
		}
		delete(byDestination, id)

		minutes := domain.EstimateDurationMinutes(travelled, r.SpeedKmh)
		stops = append(stops, domain.RouteStop{
			LocationID:  id,
			ArriveAt:    departAt.Add(time.Duration(minutes * float64(time.Minute))),
			DistanceKm:  travelled,
			ShipmentIDs: ids,
		})
	}

	return &domain.RoutePlan{
		VehicleID:                vehicle.ID,
		DepartAt:                 departAt,
		Path:                     path.Nodes,
		Stops:                    stops,
		TotalDistanceKm:          path.Distance,
		EstimatedDurationMinutes: domain.EstimateDurationMinutes(path.Distance, r.SpeedKmh),
	}, nil
}
