package graph

import "math"

// twoOptEpsilon is the minimum gain for a 2-opt move to be accepted.
const twoOptEpsilon = 1e-9

// routeMatrix holds pairwise shortest paths between a fixed list of points.
// Index 0 is the route start. Unreachable pairs have an infinite distance.
type routeMatrix struct {
	points []string
	dist   [][]float64
	paths  [][]Path
}

func (g *Graph) distanceMatrix(points []string) (*routeMatrix, bool) {
	n := len(points)
	m := &routeMatrix{
		points: points,
		dist:   make([][]float64, n),
		paths:  make([][]Path, n),
	}
	for i := range points {
		m.dist[i] = make([]float64, n)
		m.paths[i] = make([]Path, n)
	}

	for i := 0; i < n; i++ {
		if !g.HasNode(points[i]) {
			return nil, false
		}
		m.paths[i][i] = Path{Distance: 0, Nodes: []string{points[i]}}

		for j := i + 1; j < n; j++ {
			p, ok := g.Dijkstra(points[i], points[j])
			if !ok {
				m.dist[i][j] = math.Inf(1)
				m.dist[j][i] = math.Inf(1)
				continue
			}

			// Roads are undirected, so the reverse leg is the same path backwards.
			back := make([]string, len(p.Nodes))
			for k, id := range p.Nodes {
				back[len(p.Nodes)-1-k] = id
			}

			m.dist[i][j], m.dist[j][i] = p.Distance, p.Distance
			m.paths[i][j] = p
			m.paths[j][i] = Path{Distance: p.Distance, Nodes: back}
		}
	}

	return m, true
}

// nearestNeighborOrder returns a visiting order of all point indices that
// starts at 0 and greedily picks the closest unvisited point.
func (m *routeMatrix) nearestNeighborOrder() ([]int, bool) {
	n := len(m.points)
	visited := make([]bool, n)
	order := make([]int, 0, n)
	order = append(order, 0)
	visited[0] = true

	current := 0
	for len(order) < n {
		next := -1
		best := math.Inf(1)
		for j := 1; j < n; j++ {
			if visited[j] {
				continue
			}
			if m.dist[current][j] < best {
				best = m.dist[current][j]
				next = j
			}
		}
		if next < 0 {
			return nil, false
		}

		visited[next] = true
		order = append(order, next)
		current = next
	}

	return order, true
}

// improveTwoOpt reverses sub-sequences of the order while doing so shortens
// the open route. Position 0 never moves.
func (m *routeMatrix) improveTwoOpt(order []int) []int {
	best := append([]int(nil), order...)
	bestCost := m.cost(best)
	n := len(best)

	for improved := true; improved; {
		improved = false
		for i := 1; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				candidate := reverseSegment(best, i, k)
				c := m.cost(candidate)
				if c+twoOptEpsilon < bestCost {
					best, bestCost = candidate, c
					improved = true
				}
			}
		}
	}

	return best
}

func (m *routeMatrix) cost(order []int) float64 {
	total := 0.0
	for i := 0; i < len(order)-1; i++ {
		total += m.dist[order[i]][order[i+1]]
	}
	return total
}

func reverseSegment(order []int, i, k int) []int {
	out := make([]int, len(order))
	copy(out, order[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = order[j]
		pos++
	}
	copy(out[pos:], order[k+1:])
	return out
}
