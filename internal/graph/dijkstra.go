package graph

import (
	"math"

	"cargo-dispatch-service/internal/pqueue"
)

// Dijkstra returns the shortest path from start to end. The boolean is false
// when either id is unknown or end is unreachable from start.
//
// Improved distances are pushed as new queue entries instead of decreasing
// an existing key. Older entries for the same node stay in the queue and are
// discarded by the visited check when popped.
func (g *Graph) Dijkstra(start, end string) (Path, bool) {
	if !g.HasNode(start) || !g.HasNode(end) {
		return Path{}, false
	}

	dist := make(map[string]float64, len(g.nodes))
	prev := make(map[string]string, len(g.nodes))
	for id := range g.nodes {
		dist[id] = math.Inf(1)
	}
	dist[start] = 0

	visited := make(map[string]struct{}, len(g.nodes))
	pq := pqueue.New[string]()
	pq.Enqueue(start, 0)

	for !pq.IsEmpty() {
		current, _ := pq.Dequeue()
		if _, done := visited[current]; done {
			continue
		}
		visited[current] = struct{}{}

		if current == end {
			break
		}

		for _, e := range g.Neighbors(current) {
			if _, done := visited[e.To]; done {
				continue
			}

			candidate := dist[current] + e.Weight
			if candidate < dist[e.To] {
				dist[e.To] = candidate
				prev[e.To] = current
				pq.Enqueue(e.To, candidate)
			}
		}
	}

	// Walk predecessors back from end. Without a predecessor chain reaching
	// start there is no path, and a partial one is never returned.
	var reversed []string
	for at, ok := end, true; ok; at, ok = prev[at] {
		reversed = append(reversed, at)
	}
	if reversed[len(reversed)-1] != start {
		return Path{}, false
	}

	nodes := make([]string, len(reversed))
	for i, id := range reversed {
		nodes[len(reversed)-1-i] = id
	}

	return Path{Distance: dist[end], Nodes: nodes}, true
}
