package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/graph"
)

type staticNetwork struct {
	locations []domain.Location
	roads     []domain.Road
}

func (n staticNetwork) ListLocations(context.Context) ([]domain.Location, error) { return n.locations, nil }
func (n staticNetwork) ListRoads(context.Context) ([]domain.Road, error)         { return n.roads, nil }

func lineNetwork() staticNetwork {
	return staticNetwork{
		locations: []domain.Location{{ID: "HUB"}, {ID: "X"}, {ID: "Y"}, {ID: "Z"}},
		roads: []domain.Road{
			{FromID: "HUB", ToID: "X", DistanceKm: 10},
			{FromID: "X", ToID: "Y", DistanceKm: 5},
		},
	}
}

func TestPlanRouteStopsAndArrivals(t *testing.T) {
	ctx := context.Background()
	rp := RoutePlanner{Network: lineNetwork(), Strategy: graph.NearestNeighbor, SpeedKmh: 60}

	g, err := rp.Graph(ctx)
	require.NoError(t, err)

	depart := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	vehicle := domain.Vehicle{ID: "V1", CapacityKg: 100, LocationID: "HUB"}

	route, err := rp.PlanRoute(ctx, g, vehicle, depart, []domain.Shipment{
		ship("s1", 1, 1, "Y"),
		ship("s2", 1, 1, "X"),
		ship("s3", 1, 1, "Y"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"HUB", "X", "Y"}, route.Path)
	assert.Equal(t, 15.0, route.TotalDistanceKm)
	assert.Equal(t, 15.0, route.EstimatedDurationMinutes)

	require.Len(t, route.Stops, 2)
	assert.Equal(t, domain.RouteStop{
		LocationID:  "X",
		ArriveAt:    depart.Add(10 * time.Minute),
		DistanceKm:  10,
		ShipmentIDs: []string{"s2"},
	}, route.Stops[0])
	assert.Equal(t, domain.RouteStop{
		LocationID:  "Y",
		ArriveAt:    depart.Add(15 * time.Minute),
		DistanceKm:  15,
		ShipmentIDs: []string{"s1", "s3"},
	}, route.Stops[1])
}

func TestPlanRouteWithoutShipments(t *testing.T) {
	rp := RoutePlanner{Network: lineNetwork()}
	g, err := rp.Graph(context.Background())
	require.NoError(t, err)

	route, err := rp.PlanRoute(context.Background(), g, domain.Vehicle{ID: "V1", LocationID: "X"}, time.Time{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, route.Path)
	assert.Empty(t, route.Stops)
	assert.Zero(t, route.TotalDistanceKm)
}

func TestPlanRouteErrors(t *testing.T) {
	ctx := context.Background()
	rp := RoutePlanner{Network: lineNetwork(), Strategy: graph.NearestNeighbor}
	g, err := rp.Graph(ctx)
	require.NoError(t, err)

	_, err = rp.PlanRoute(ctx, g, domain.Vehicle{ID: "V1"}, time.Time{}, []domain.Shipment{ship("s", 1, 1, "X")})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoRoute)

	_, err = rp.PlanRoute(ctx, g, domain.Vehicle{ID: "V1", LocationID: "HUB"}, time.Time{}, []domain.Shipment{ship("s", 1, 1, "Z")})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestRoutePlannerGraphRejectsBadNetwork(t *testing.T) {
	_, err := RoutePlanner{}.Graph(context.Background())
	assert.Error(t, err)

	bad := staticNetwork{
		locations: []domain.Location{{ID: "A"}},
		roads:     []domain.Road{{FromID: "A", ToID: "B", DistanceKm: 1}},
	}
	_, err = RoutePlanner{Network: bad}.Graph(context.Background())
	assert.ErrorIs(t, err, graph.ErrUnknownNode)
}
