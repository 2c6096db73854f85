package roadnetwork

import (
	"context"
	"fmt"

	"cargo-dispatch-service/internal/domain"
	"cargo-dispatch-service/internal/platform/obs"
)

const (
	listLocationsCypher = `
MATCH (l:Location)
RETURN l.id AS id, l.name AS name, l.city AS city, l.state AS state
ORDER BY id`

	listRoadsCypher = `
MATCH (a:Location)-[r:ROAD]->(b:Location)
RETURN a.id AS from_id, b.id AS to_id, r.distance_km AS distance_km
ORDER BY from_id, to_id`

	mergeLocationsCypher = `
UNWIND $locations AS loc
MERGE (l:Location {id: loc.id})
SET l.name = loc.name, l.city = loc.city, l.state = loc.state`

	mergeRoadsCypher = `
UNWIND $roads AS road
MATCH (a:Location {id: road.from_id}), (b:Location {id: road.to_id})
MERGE (a)-[r:ROAD]->(b)
SET r.distance_km = road.distance_km`
)

// Neo4jRoadNetwork reads locations and roads from a graph database. Roads
// are stored as directed ROAD relationships and treated as undirected.
type Neo4jRoadNetwork struct {
	runner CypherRunner
}

func NewNeo4jRoadNetwork(runner CypherRunner) *Neo4jRoadNetwork {
	return &Neo4jRoadNetwork{runner: runner}
}

func (n *Neo4jRoadNetwork) ListLocations(ctx context.Context) (_ []domain.Location, err error) {
	defer obs.Time(ctx, "roadnetwork.ListLocations")(&err)

	records, err := n.runner.ExecuteRead(ctx, listLocationsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list locations: run cypher: %w", err)
	}

	out := make([]domain.Location, 0, len(records))
	for i, rec := range records {
		id := stringValue(rec["id"])
		if id == "" {
			return nil, fmt.Errorf("list locations: record #%d has no id", i+1)
		}
		out = append(out, domain.Location{
			ID:    id,
			Name:  stringValue(rec["name"]),
			City:  stringValue(rec["city"]),
			State: stringValue(rec["state"]),
		})
	}
	return out, nil
}

func (n *Neo4jRoadNetwork) ListRoads(ctx context.Context) (_ []domain.Road, err error) {
	defer obs.Time(ctx, "roadnetwork.ListRoads")(&err)

	records, err := n.runner.ExecuteRead(ctx, listRoadsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list roads: run cypher: %w", err)
	}

	out := make([]domain.Road, 0, len(records))
	for i, rec := range records {
		dist, ok := floatValue(rec["distance_km"])
		if !ok {
			return nil, fmt.Errorf("list roads: record #%d: distance_km is %T", i+1, rec["distance_km"])
		}
		out = append(out, domain.Road{
			FromID:     stringValue(rec["from_id"]),
			ToID:       stringValue(rec["to_id"]),
			DistanceKm: dist,
		})
	}
	return out, nil
}

// Sync writes locations and roads into the graph database, merging on ids.
func (n *Neo4jRoadNetwork) Sync(ctx context.Context, locations []domain.Location, roads []domain.Road) (err error) {
	defer obs.Time(ctx, "roadnetwork.Sync")(&err)

	locs := make([]map[string]any, 0, len(locations))
	for _, l := range locations {
		locs = append(locs, map[string]any{"id": l.ID, "name": l.Name, "city": l.City, "state": l.State})
	}
	if _, err := n.runner.ExecuteWrite(ctx, mergeLocationsCypher, map[string]any{"locations": locs}); err != nil {
		return fmt.Errorf("sync road network: merge locations: %w", err)
	}

	rs := make([]map[string]any, 0, len(roads))
	for _, r := range roads {
		rs = append(rs, map[string]any{"from_id": r.FromID, "to_id": r.ToID, "distance_km": r.DistanceKm})
	}
	if _, err := n.runner.ExecuteWrite(ctx, mergeRoadsCypher, map[string]any{"roads": rs}); err != nil {
		return fmt.Errorf("sync road network: merge roads: %w", err)
	}
	return nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// Bolt returns integers as int64 and floats as float64.
func floatValue(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
