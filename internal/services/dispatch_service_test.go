package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cargo-dispatch-service/internal/adapters/cache"
	"cargo-dispatch-service/internal/adapters/events"
	"cargo-dispatch-service/internal/adapters/repositories"
	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/graph"
	"cargo-dispatch-service/internal/ports"
)

var fixedNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func testSeed() repositories.Seed {
	return repositories.Seed{
		Locations: []repositories.LocationSeed{{ID: "HUB"}, {ID: "X"}, {ID: "Y"}, {ID: "Z"}},
		Roads: []repositories.RoadSeed{
			{From: "HUB", To: "X", DistanceKm: 10},
			{From: "X", To: "Y", DistanceKm: 5},
		},
		Vehicles: []repositories.VehicleSeed{
			{ID: "V1", CapacityKg: 10, LocationID: "HUB"},
		},
		Shipments: []repositories.ShipmentSeed{
			{ID: "A", WeightKg: 5, Priority: 1, OriginID: "HUB", DestinationID: "X"},
			{ID: "B", WeightKg: 5, Priority: 1, OriginID: "HUB", DestinationID: "X"},
			{ID: "C", WeightKg: 100, Priority: 5, OriginID: "HUB", DestinationID: "Y"},
		},
	}
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

type fixture struct {
	repo   *repositories.MemoryRepository
	stats  *cache.MemoryStatsCache
	broker *events.MemoryBroker
	svc    *DispatchService
}

func newFixture(t *testing.T, seed repositories.Seed) fixture {
	t.Helper()
	repo := repositories.NewMemoryRepository(seed)
	stats := cache.NewMemoryStatsCache()
	broker := events.NewMemoryBroker()
	svc := NewDispatchService(repo, repo, broker, stats, Options{
		RouteStrategy:   graph.NearestNeighbor,
		AverageSpeedKmh: 60,
		Now:             func() time.Time { return fixedNow },
		NewID:           sequentialIDs(),
	})
	return fixture{repo: repo, stats: stats, broker: broker, svc: svc}
}

func TestPlanNextShipmentCommitsBestBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	sub, cancel, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	res, err := f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)

	assert.Equal(t, "id-1", res.PlanID)
	assert.Equal(t, []string{"A", "B"}, domain.ShipmentIDs(res.Batch))
	require.NotNil(t, res.Vehicle)
	assert.Equal(t, "V1", res.Vehicle.ID)
	assert.Equal(t, domain.VehicleAssigned, res.Vehicle.Status)
	assert.Equal(t, []string{"HUB", "X"}, res.Route)
	assert.Equal(t, 10.0, res.TotalDistanceKm)
	assert.Equal(t, 10.0, res.EstimatedDurationMinutes)
	assert.InDelta(t, 0.82, res.Efficiency, 1e-9)
	require.Len(t, res.Stops, 1)
	assert.Equal(t, fixedNow.Add(10*time.Minute), res.Stops[0].ArriveAt)

	for _, s := range res.Batch {
		assert.Equal(t, domain.ShipmentPlanned, s.Status)
		assert.Equal(t, "V1", s.AssignedVehicleID)
	}

	// Persisted.
	a, err := f.repo.Shipment(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPlanned, a.Status)
	assert.Equal(t, []string{"HUB", "X"}, a.PlannedRoute)
	v, err := f.repo.Vehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAssigned, v.Status)

	select {
	case ev := <-sub:
		assert.Equal(t, domain.EventPlanCommitted, ev.Type)
		assert.Equal(t, "id-1", ev.PlanID)
		assert.Equal(t, []string{"A", "B"}, ev.ShipmentIDs)
		assert.Equal(t, fixedNow, ev.At)
	case <-time.After(time.Second):
		t.Fatal("no plan event published")
	}

	// C is still pending but the only vehicle is now busy.
	res, err = f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no available vehicles", res.Message)
	assert.NotNil(t, res.Batch)
}

func TestPlanNextShipmentNothingPending(t *testing.T) {
	seed := testSeed()
	seed.Shipments = nil
	f := newFixture(t, seed)

	res, err := f.svc.PlanNextShipment(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Batch)
	assert.Empty(t, res.PlanID)
}

func TestPlanNextShipmentNoFeasibleBatch(t *testing.T) {
	seed := testSeed()
	seed.Vehicles[0].CapacityKg = 1
	f := newFixture(t, seed)

	res, err := f.svc.PlanNextShipment(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no feasible dispatch strategy")
}

func TestPlanNextShipmentUnreachableDestination(t *testing.T) {
	ctx := context.Background()
	seed := testSeed()
	seed.Shipments = []repositories.ShipmentSeed{
		{ID: "D", WeightKg: 5, Priority: 1, DestinationID: "Z"},
	}
	f := newFixture(t, seed)

	res, err := f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "no viable route")

	// Nothing committed.
	d, err := f.repo.Shipment(ctx, "D")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPending, d.Status)
}

type conflictingRepo struct {
	*repositories.MemoryRepository
}

func (conflictingRepo) CommitPlan(context.Context, domain.DispatchPlan) error {
	return fmt.Errorf("commit plan: vehicle V1 is assigned: %w", ports.ErrConflict)
}

func TestPlanNextShipmentConflict(t *testing.T) {
	repo := repositories.NewMemoryRepository(testSeed())
	svc := NewDispatchService(conflictingRepo{repo}, repo, nil, nil, Options{})

	res, err := svc.PlanNextShipment(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "could not be committed")
}

type failingRepo struct {
	*repositories.MemoryRepository
}

func (failingRepo) ListPendingShipments(context.Context) ([]domain.Shipment, error) {
	return nil, fmt.Errorf("connection reset")
}

func TestPlanNextShipmentInfrastructureError(t *testing.T) {
	repo := repositories.NewMemoryRepository(testSeed())
	svc := NewDispatchService(failingRepo{repo}, repo, nil, nil, Options{})

	_, err := svc.PlanNextShipment(context.Background())
	assert.ErrorContains(t, err, "connection reset")

	_, err = svc.AnalyzePlanningState(context.Background())
	assert.ErrorContains(t, err, "connection reset")
}

func TestAnalyzePlanningStateIsCachedUntilStateChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	first, err := f.svc.AnalyzePlanningState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, first.TotalPendingShipments)
	assert.Equal(t, 1, first.AvailableVehicles)
	assert.Equal(t, 3, first.TreeStats.TotalShipments)
	assert.Equal(t, 110.0, first.TreeStats.TotalWeightKg)
	assert.Equal(t, 3, first.TreeStats.Height)
	require.Len(t, first.RecommendedBatches, 1)
	assert.Equal(t, "V1", first.RecommendedBatches[0].VehicleID)
	assert.Equal(t, 2, first.RecommendedBatches[0].ShipmentCount)
	assert.Equal(t, []string{"HUB"}, first.RecommendedBatches[0].Origins)
	assert.Equal(t, []string{"X"}, first.RecommendedBatches[0].Destinations)
	require.Len(t, first.Tree, 5)
	assert.True(t, strings.HasPrefix(first.Tree[0], "Group[3 shipments]"), first.Tree[0])

	// A change behind the service's back is not seen while cached.
	require.NoError(t, f.repo.CommitPlan(ctx, domain.DispatchPlan{ID: "manual", VehicleID: "V1", ShipmentIDs: []string{"C"}}))
	cached, err := f.svc.AnalyzePlanningState(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	// A change through the service invalidates.
	_, err = f.svc.CompleteShipment(ctx, "C")
	require.NoError(t, err)
	fresh, err := f.svc.AnalyzePlanningState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.TotalPendingShipments)
	assert.Equal(t, 1, fresh.AvailableVehicles)
}

func TestAnalyzePlanningStateLimitsRecommendations(t *testing.T) {
	seed := testSeed()
	seed.Vehicles = nil
	for i := 0; i < 4; i++ {
		seed.Vehicles = append(seed.Vehicles, repositories.VehicleSeed{
			ID: fmt.Sprintf("V%d", i), CapacityKg: 200, LocationID: "HUB",
		})
	}
	repo := repositories.NewMemoryRepository(seed)
	svc := NewDispatchService(repo, repo, nil, nil, Options{RecommendationLimit: 2})

	a, err := svc.AnalyzePlanningState(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, a.AvailableVehicles)
	assert.Len(t, a.RecommendedBatches, 2)
}

func TestAnalyzePlanningStateEmpty(t *testing.T) {
	seed := testSeed()
	seed.Shipments = nil
	f := newFixture(t, seed)

	a, err := f.svc.AnalyzePlanningState(context.Background())
	require.NoError(t, err)
	assert.Zero(t, a.TotalPendingShipments)
	assert.NotNil(t, a.RecommendedBatches)
	assert.Empty(t, a.RecommendedBatches)
}

func TestHealth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	h, err := f.svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthHealthy, h.Status)
	assert.True(t, h.CanPlan)
	assert.Equal(t, fixedNow, h.Timestamp)

	_, err = f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)

	h, err = f.svc.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.HealthWarning, h.Status)
	assert.False(t, h.CanPlan)
	assert.Contains(t, h.Warnings, "no available vehicles")
}

func TestCancelPlanningReleasesVehicle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	res, err := f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	require.True(t, res.Success)

	sub, cancel, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, f.svc.CancelPlanning(ctx, []string{"A", "B"}))

	for _, id := range []string{"A", "B"} {
		s, err := f.repo.Shipment(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ShipmentPending, s.Status)
		assert.Empty(t, s.AssignedVehicleID)
		assert.Empty(t, s.PlannedRoute)
	}
	v, err := f.repo.Vehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAvailable, v.Status)

	select {
	case ev := <-sub:
		assert.Equal(t, domain.EventPlanCancelled, ev.Type)
		assert.Equal(t, "V1", ev.VehicleID)
	case <-time.After(time.Second):
		t.Fatal("no cancel event published")
	}

	assert.Error(t, f.svc.CancelPlanning(ctx, nil))
}

func TestPartialCancelKeepsVehicleBusy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	res, err := f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	require.Equal(t, []string{"A", "B"}, domain.ShipmentIDs(res.Batch))

	sub, cancel, err := f.svc.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, f.svc.CancelPlanning(ctx, []string{"A"}))

	a, err := f.repo.Shipment(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPending, a.Status)
	b, err := f.repo.Shipment(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentPlanned, b.Status)
	assert.Equal(t, "V1", b.AssignedVehicleID)

	v, err := f.repo.Vehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAssigned, v.Status)

	select {
	case ev := <-sub:
		assert.Equal(t, domain.EventPlanCancelled, ev.Type)
		assert.Empty(t, ev.VehicleID)
		assert.Equal(t, []string{"A"}, ev.ShipmentIDs)
	case <-time.After(time.Second):
		t.Fatal("no cancel event published")
	}

	// V1 is still busy with B, so A cannot be replanned yet.
	res, err = f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "no available vehicles", res.Message)
}

func TestCompleteShipment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	_, err := f.svc.PlanNextShipment(ctx)
	require.NoError(t, err)

	s, err := f.svc.CompleteShipment(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, domain.ShipmentCompleted, s.Status)

	// B is still planned on V1.
	v, err := f.repo.Vehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAssigned, v.Status)

	_, err = f.svc.CompleteShipment(ctx, "B")
	require.NoError(t, err)
	v, err = f.repo.Vehicle(ctx, "V1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleAvailable, v.Status)

	_, err = f.svc.CompleteShipment(ctx, "nope")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// Pending and already completed shipments cannot be completed.
	_, err = f.svc.CompleteShipment(ctx, "C")
	assert.ErrorIs(t, err, ports.ErrConflict)
	_, err = f.svc.CompleteShipment(ctx, "A")
	assert.ErrorIs(t, err, ports.ErrConflict)
}

func TestShortestPathAndOptimalRoute(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSeed())

	p, ok, err := f.svc.ShortestPath(ctx, "HUB", "Y")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 15.0, p.Distance)
	assert.Equal(t, []string{"HUB", "X", "Y"}, p.Nodes)

	_, ok, err = f.svc.ShortestPath(ctx, "HUB", "Z")
	require.NoError(t, err)
	assert.False(t, ok)

	p, ok, err = f.svc.OptimalRoute(ctx, "", "Y", []string{"HUB", "X"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Y", "X", "HUB"}, p.Nodes)
	assert.Equal(t, 15.0, p.Distance)

	p, ok, err = f.svc.OptimalRoute(ctx, graph.MatrixTwoOpt, "HUB", nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"HUB"}, p.Nodes)
}

func TestSubscribeWithoutBroker(t *testing.T) {
	repo := repositories.NewMemoryRepository(testSeed())
	svc := NewDispatchService(repo, repo, nil, nil, Options{})
	_, _, err := svc.Subscribe(context.Background())
	assert.Error(t, err)
}
