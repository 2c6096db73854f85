package graph

import (
	"fmt"
	"math"
	"strings"
)

// RouteStrategy selects how multi-destination routes are composed.
type RouteStrategy string

const (
	// Greedy: always drive to the closest remaining destination.
	NearestNeighbor RouteStrategy = "nearest_neighbor"
	// Pairwise shortest-path matrix, nearest-neighbour seed, then 2-opt.
	MatrixTwoOpt RouteStrategy = "matrix_two_opt"
)

// twoOptMinDestinations is the destination count above which the 2-opt
// pass is attempted.
const twoOptMinDestinations = 3

func ParseRouteStrategy(s string) (RouteStrategy, error) {
	switch RouteStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", NearestNeighbor:
		return NearestNeighbor, nil
	case MatrixTwoOpt:
		return MatrixTwoOpt, nil
	default:
		return "", fmt.Errorf("unknown route strategy %q (allowed: %s, %s)", s, NearestNeighbor, MatrixTwoOpt)
	}
}

// CalculateRoute dispatches to the route composition selected by strategy.
func (g *Graph) CalculateRoute(strategy RouteStrategy, start string, destinations []string) (Path, bool) {
	if strategy == MatrixTwoOpt {
		return g.CalculateOptimalRouteTwoOpt(start, destinations)
	}
	return g.CalculateOptimalRoute(start, destinations)
}

// CalculateOptimalRoute visits every destination starting at start, always
// moving to the nearest remaining destination by shortest-path distance.
// The route fails as a whole when some step cannot reach any remaining
// destination. Ties go to the destination listed first.
func (g *Graph) CalculateOptimalRoute(start string, destinations []string) (Path, bool) {
	switch len(destinations) {
	case 0:
		return Path{Distance: 0, Nodes: []string{start}}, true
	case 1:
		return g.Dijkstra(start, destinations[0])
	}

	remaining := append([]string(nil), destinations...)
	current := start
	route := Path{Nodes: []string{start}}

	for len(remaining) > 0 {
		bestIdx := -1
		var best Path
		bestDist := math.Inf(1)

		for i, d := range remaining {
			p, ok := g.Dijkstra(current, d)
			if ok && p.Distance < bestDist {
				bestIdx, best, bestDist = i, p, p.Distance
			}
		}

		if bestIdx < 0 {
			return Path{}, false
		}

		// The leg starts at the current location, which is already on the route.
		route.Nodes = append(route.Nodes, best.Nodes[1:]...)
		route.Distance += best.Distance
		current = remaining[bestIdx]
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return route, true
}

// CalculateOptimalRouteTwoOpt precomputes shortest paths between the start
// and every destination, seeds a visiting order by nearest neighbour over
// that matrix and, for more than three destinations, improves the order
// with 2-opt. The start stays first; the last stop is free.
func (g *Graph) CalculateOptimalRouteTwoOpt(start string, destinations []string) (Path, bool) {
	switch len(destinations) {
	case 0:
		return Path{Distance: 0, Nodes: []string{start}}, true
	case 1:
		return g.Dijkstra(start, destinations[0])
	}

	points := make([]string, 0, len(destinations)+1)
	points = append(points, start)
	points = append(points, destinations...)

	m, ok := g.distanceMatrix(points)
	if !ok {
		return Path{}, false
	}

	order, ok := m.nearestNeighborOrder()
	if !ok {
		return Path{}, false
	}
	if len(destinations) > twoOptMinDestinations {
		order = m.improveTwoOpt(order)
	}

	route := Path{Nodes: []string{start}}
	for i := 0; i < len(order)-1; i++ {
		leg := m.paths[order[i]][order[i+1]]
		route.Nodes = append(route.Nodes, leg.Nodes[1:]...)
		route.Distance += leg.Distance
	}

	return route, true
}
