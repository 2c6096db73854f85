package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/graph"
	"cargo-dispatch-service/internal/grouping"
	"cargo-dispatch-service/internal/metrics"
	"cargo-dispatch-service/internal/platform/obs"
	"cargo-dispatch-service/internal/ports"
)

// AnalysisCacheKey is the stats cache key of the planning analysis.
const AnalysisCacheKey = "planning.analysis"

const (
	defaultRecommendationLimit = 5
	defaultStatsTTL            = 5 * time.Minute
)

type Options struct {
	RouteStrategy       graph.RouteStrategy
	AverageSpeedKmh     float64
	RecommendationLimit int
	StatsTTL            time.Duration // zero uses the default

	// Overridable for tests.
	Now   func() time.Time
	NewID func() string
}

func (o Options) withDefaults() Options {
	if o.RouteStrategy == "" {
		o.RouteStrategy = graph.NearestNeighbor
	}
	if o.AverageSpeedKmh <= 0 {
		o.AverageSpeedKmh = domain.DefaultAverageSpeedKmh
	}
	if o.RecommendationLimit <= 0 {
		o.RecommendationLimit = defaultRecommendationLimit
	}
	if o.StatsTTL == 0 {
		o.StatsTTL = defaultStatsTTL
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// DispatchService runs planning cycles against a snapshot of the repository
// and commits the best plan. Events and Stats may be nil.
type DispatchService struct {
	repo    ports.PlanningRepository
	events  ports.EventBroker
	stats   ports.StatsCache
	planner ShipmentPlanner
	routes  RoutePlanner
	opts    Options

	// Serializes snapshot-to-commit so two cycles cannot pick the same
	// shipments or vehicle.
	mu sync.Mutex
}

func NewDispatchService(
	repo ports.PlanningRepository,
	network ports.RoadNetwork,
	events ports.EventBroker,
	stats ports.StatsCache,
	opts Options,
) *DispatchService {
	opts = opts.withDefaults()
	return &DispatchService{
		repo:   repo,
		events: events,
		stats:  stats,
		routes: RoutePlanner{Network: network, Strategy: opts.RouteStrategy, SpeedKmh: opts.AverageSpeedKmh},
		opts:   opts,
	}
}

// PlanNextShipment plans and commits one dispatch: the best-ranked batch,
// its vehicle and a route through the batch's destinations.
//
// Expected outcomes (nothing pending, no vehicle, no feasible batch, no
// route, a concurrent change) come back as a result with Success=false.
// Only infrastructure failures are returned as errors.
func (s *DispatchService) PlanNextShipment(ctx context.Context) (res domain.PlanningResult, err error) {
	defer obs.Time(ctx, "planning.next")(&err)

	started := time.Now()
	outcome := "error"
	defer func() {
		metrics.PlanningCycles.WithLabelValues(outcome).Inc()
		metrics.PlanningDuration.Observe(time.Since(started).Seconds())
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	shipments, err := s.repo.ListPendingShipments(ctx)
	if err != nil {
		return domain.PlanningResult{}, fmt.Errorf("plan next shipment: list pending: %w", err)
	}
	metrics.PendingShipments.Set(float64(len(shipments)))

	if len(shipments) == 0 {
		outcome = "empty"
		return domain.PlanningResult{Success: true, Message: "no pending shipments to plan", Batch: []domain.Shipment{}}, nil
	}

	vehicles, err := s.repo.ListAvailableVehicles(ctx)
	if err != nil {
		return domain.PlanningResult{}, fmt.Errorf("plan next shipment: list vehicles: %w", err)
	}
	if len(vehicles) == 0 {
		outcome = "no_vehicles"
		return failure("no available vehicles"), nil
	}

	tree := s.planner.BuildGroupingTree(shipments)
	strategies := s.planner.AnalyzeDispatchStrategies(tree, vehicles)
	if len(strategies) == 0 {
		outcome = "no_feasible_batch"
		return failure("no feasible dispatch strategy for the available vehicles"), nil
	}

	best := strategies[0]
	batch := grouping.Shipments(best.Batch)

	g, err := s.routes.Graph(ctx)
	if err != nil {
		return domain.PlanningResult{}, fmt.Errorf("plan next shipment: %w", err)
	}

	now := s.opts.Now()
	route, err := s.routes.PlanRoute(ctx, g, best.Vehicle, now, batch)
	if errors.Is(err, ErrNoRoute) {
		outcome = "no_route"
		return failure(fmt.Sprintf("no viable route for vehicle %s: %v", best.Vehicle.ID, err)), nil
	}
	if err != nil {
		return domain.PlanningResult{}, fmt.Errorf("plan next shipment: %w", err)
	}

	plan := domain.DispatchPlan{
		ID:                       s.opts.NewID(),
		VehicleID:                best.Vehicle.ID,
		ShipmentIDs:              domain.ShipmentIDs(batch),
		Route:                    route.Path,
		TotalDistanceKm:          route.TotalDistanceKm,
		EstimatedDurationMinutes: route.EstimatedDurationMinutes,
		Efficiency:               best.Efficiency,
		CreatedAt:                now,
	}

	if err := s.repo.CommitPlan(ctx, plan); err != nil {
		if errors.Is(err, ports.ErrConflict) {
			outcome = "conflict"
			return failure(fmt.Sprintf("plan could not be committed: %v", err)), nil
		}
		return domain.PlanningResult{}, fmt.Errorf("plan next shipment: commit: %w", err)
	}
	outcome = "committed"
	metrics.DispatchEfficiency.Observe(best.Efficiency)

	s.invalidateAnalysis(ctx)
	s.publish(ctx, domain.PlanEvent{
		Type:        domain.EventPlanCommitted,
		PlanID:      plan.ID,
		VehicleID:   plan.VehicleID,
		ShipmentIDs: plan.ShipmentIDs,
	})

	slog.InfoContext(ctx, "dispatch plan committed",
		"plan_id", plan.ID,
		"vehicle_id", plan.VehicleID,
		"shipments", len(plan.ShipmentIDs),
		"distance_km", plan.TotalDistanceKm,
		"efficiency", plan.Efficiency,
	)

	committed := make([]domain.Shipment, len(batch))
	for i, sh := range batch {
		sh.Status = domain.ShipmentPlanned
		sh.AssignedVehicleID = plan.VehicleID
		sh.PlannedRoute = plan.Route
		committed[i] = sh
	}
	vehicle := best.Vehicle
	vehicle.Status = domain.VehicleAssigned

	return domain.PlanningResult{
		Success:                  true,
		Message:                  fmt.Sprintf("planned batch of %d shipments", len(batch)),
		PlanID:                   plan.ID,
		Batch:                    committed,
		Vehicle:                  &vehicle,
		Route:                    route.Path,
		Stops:                    route.Stops,
		TotalDistanceKm:          route.TotalDistanceKm,
		EstimatedDurationMinutes: route.EstimatedDurationMinutes,
		Efficiency:               best.Efficiency,
	}, nil
}

func failure(msg string) domain.PlanningResult {
	return domain.PlanningResult{Success: false, Message: msg, Batch: []domain.Shipment{}}
}

// AnalyzePlanningState reports the grouping tree and the top recommended
// batches without committing anything. Results are cached for StatsTTL.
func (s *DispatchService) AnalyzePlanningState(ctx context.Context) (_ domain.PlanningAnalysis, err error) {
	defer obs.Time(ctx, "planning.analysis")(&err)

	if s.stats != nil {
		cached, ok, err := s.stats.Get(ctx, AnalysisCacheKey)
		switch {
		case err != nil:
			metrics.StatsCacheLookups.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "stats cache get failed", "key", AnalysisCacheKey, "err", err)
		case ok:
			metrics.StatsCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.StatsCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	shipments, err := s.repo.ListPendingShipments(ctx)
	if err != nil {
		return domain.PlanningAnalysis{}, fmt.Errorf("analyze planning: list pending: %w", err)
	}
	vehicles, err := s.repo.ListAvailableVehicles(ctx)
	if err != nil {
		return domain.PlanningAnalysis{}, fmt.Errorf("analyze planning: list vehicles: %w", err)
	}
	metrics.PendingShipments.Set(float64(len(shipments)))

	analysis := domain.PlanningAnalysis{
		TotalPendingShipments: len(shipments),
		AvailableVehicles:     len(vehicles),
		RecommendedBatches:    []domain.RecommendedBatch{},
	}

	if len(shipments) > 0 {
		tree := s.planner.BuildGroupingTree(shipments)
		analysis.TreeStats = tree.Stats()
		analysis.Tree = tree.Lines()

		strategies := s.planner.AnalyzeDispatchStrategies(tree, vehicles)
		if len(strategies) > s.opts.RecommendationLimit {
			strategies = strategies[:s.opts.RecommendationLimit]
		}
		for _, st := range strategies {
			analysis.RecommendedBatches = append(analysis.RecommendedBatches, domain.RecommendedBatch{
				VehicleID:     st.Vehicle.ID,
				ShipmentCount: st.Batch.ShipmentCount(),
				TotalWeightKg: st.Batch.TotalWeight(),
				Efficiency:    st.Efficiency,
				Description:   st.Description,
				Origins:       grouping.UniqueOrigins(st.Batch),
				Destinations:  grouping.UniqueDestinations(st.Batch),
			})
		}
	}

	if s.stats != nil {
		if err := s.stats.Set(ctx, AnalysisCacheKey, analysis, s.opts.StatsTTL); err != nil {
			slog.WarnContext(ctx, "stats cache set failed", "key", AnalysisCacheKey, "err", err)
		}
	}

	return analysis, nil
}

// Health derives a health report from the current planning analysis.
func (s *DispatchService) Health(ctx context.Context) (domain.HealthReport, error) {
	analysis, err := s.AnalyzePlanningState(ctx)
	if err != nil {
		return domain.HealthReport{}, fmt.Errorf("planning health: %w", err)
	}
	return BuildHealthReport(analysis, s.opts.Now()), nil
}

// CancelPlanning returns planned shipments to pending. A vehicle is freed
// only when nothing planned or in transit remains assigned to it.
func (s *DispatchService) CancelPlanning(ctx context.Context, shipmentIDs []string) (err error) {
	defer obs.Time(ctx, "planning.cancel")(&err)

	if len(shipmentIDs) == 0 {
		return errors.New("cancel planning: shipment ids must not be empty")
	}

	s.mu.Lock()
	released, err := s.repo.CancelPlanning(ctx, shipmentIDs)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("cancel planning: %w", err)
	}

	s.invalidateAnalysis(ctx)
	ev := domain.PlanEvent{Type: domain.EventPlanCancelled, ShipmentIDs: shipmentIDs}
	if len(released) > 0 {
		ev.VehicleID = released[0]
	}
	s.publish(ctx, ev)
	return nil
}

// CompleteShipment marks a planned or in-transit shipment completed.
func (s *DispatchService) CompleteShipment(ctx context.Context, shipmentID string) (_ domain.Shipment, err error) {
	defer obs.Time(ctx, "planning.complete")(&err)

	s.mu.Lock()
	sh, err := s.repo.CompleteShipment(ctx, shipmentID)
	s.mu.Unlock()
	if err != nil {
		return domain.Shipment{}, fmt.Errorf("complete shipment %s: %w", shipmentID, err)
	}

	s.invalidateAnalysis(ctx)
	s.publish(ctx, domain.PlanEvent{
		Type:        domain.EventShipmentCompleted,
		VehicleID:   sh.AssignedVehicleID,
		ShipmentIDs: []string{sh.ID},
	})
	return sh, nil
}

// ShortestPath answers a point-to-point query over the current road network.
// The boolean is false when no path exists.
func (s *DispatchService) ShortestPath(ctx context.Context, from, to string) (graph.Path, bool, error) {
	g, err := s.routes.Graph(ctx)
	if err != nil {
		return graph.Path{}, false, fmt.Errorf("shortest path: %w", err)
	}
	p, ok := g.Dijkstra(from, to)
	return p, ok, nil
}

// RouteStrategy is the strategy OptimalRoute uses when none is given.
func (s *DispatchService) RouteStrategy() graph.RouteStrategy { return s.opts.RouteStrategy }

// RoadNetwork returns the current road network as a graph.
func (s *DispatchService) RoadNetwork(ctx context.Context) (*graph.Graph, error) {
	g, err := s.routes.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("road network: %w", err)
	}
	return g, nil
}

// OptimalRoute composes a multi-stop route. An empty strategy uses the
// configured one.
func (s *DispatchService) OptimalRoute(ctx context.Context, strategy graph.RouteStrategy, start string, destinations []string) (graph.Path, bool, error) {
	if strategy == "" {
		strategy = s.opts.RouteStrategy
	}
	g, err := s.routes.Graph(ctx)
	if err != nil {
		return graph.Path{}, false, fmt.Errorf("optimal route: %w", err)
	}
	p, ok := g.CalculateRoute(strategy, start, destinations)
	return p, ok, nil
}

// Subscribe exposes the event stream to transports.
func (s *DispatchService) Subscribe(ctx context.Context) (<-chan domain.PlanEvent, func(), error) {
	if s.events == nil {
		return nil, nil, errors.New("subscribe: no event broker configured")
	}
	return s.events.Subscribe(ctx)
}

func (s *DispatchService) invalidateAnalysis(ctx context.Context) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, AnalysisCacheKey); err != nil {
		slog.WarnContext(ctx, "stats cache invalidate failed", "key", AnalysisCacheKey, "err", err)
	}
}

// A failed publish is logged; the state change it reports already happened.
func (s *DispatchService) publish(ctx context.Context, ev domain.PlanEvent) {
	if s.events == nil {
		return
	}
	ev.ID = s.opts.NewID()
	ev.At = s.opts.Now()
	if err := s.events.Publish(ctx, ev); err != nil {
		slog.WarnContext(ctx, "publish plan event failed", "type", ev.Type, "err", err)
	}
}
