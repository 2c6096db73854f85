// Package graph models the road network as an undirected weighted graph and
// answers shortest-path and multi-stop route queries over it.
//
// A Graph is built once per planning cycle from a snapshot of locations and
// roads and is not safe for concurrent mutation. Queries do not mutate it, so
// a fully built graph may be shared by concurrent readers.
package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"cargo-dispatch-service/internal/domain"
)

var (
	ErrUnknownNode    = errors.New("graph: unknown node")
	ErrNegativeWeight = errors.New("graph: negative or NaN edge weight")
)

type Node struct {
	ID   string
	Name string
}

// Edge is one direction of a road. Undirected roads are stored twice.
type Edge struct {
	From   string
	To     string
	Weight float64
}

// Path is a shortest path or composed route: the visited node ids in order
// and the summed edge weight.
type Path struct {
	Distance float64
	Nodes    []string
}

type Graph struct {
	nodes map[string]Node
	adj   map[string][]Edge
	roads []Edge
}

func New() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		adj:   make(map[string][]Edge),
	}
}

// Build registers every location as a node and every road as an undirected
// edge. A road that references an unknown location fails the whole build.
func Build(locations []domain.Location, roads []domain.Road) (*Graph, error) {
	g := New()
	for _, l := range locations {
		g.AddNode(l.ID, l.Name)
	}

	for i, r := range roads {
		if err := g.AddEdge(r.FromID, r.ToID, r.DistanceKm); err != nil {
			return nil, fmt.Errorf("build graph: road #%d %s-%s: %w", i+1, r.FromID, r.ToID, err)
		}
	}

	return g, nil
}

// AddNode registers a node. Adding an existing id again only updates its name.
func (g *Graph) AddNode(id, name string) {
	g.nodes[id] = Node{ID: id, Name: name}
	if _, ok := g.adj[id]; !ok {
		g.adj[id] = nil
	}
}

// AddEdge stores the edge in both directions.
func (g *Graph) AddEdge(from, to string, weight float64) error {
	if math.IsNaN(weight) || weight < 0 {
		return fmt.Errorf("%w: %s-%s weight=%g", ErrNegativeWeight, from, to, weight)
	}
	if !g.HasNode(from) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, from)
	}
	if !g.HasNode(to) {
		return fmt.Errorf("%w: %q", ErrUnknownNode, to)
	}

	g.adj[from] = append(g.adj[from], Edge{From: from, To: to, Weight: weight})
	g.adj[to] = append(g.adj[to], Edge{From: to, To: from, Weight: weight})
	g.roads = append(g.roads, Edge{From: from, To: to, Weight: weight})
	return nil
}

func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Neighbors returns the edges leaving id. The slice must not be modified.
func (g *Graph) Neighbors(id string) []Edge {
	return g.adj[id]
}

// EdgeWeight returns the lightest road between two adjacent nodes.
func (g *Graph) EdgeWeight(from, to string) (float64, bool) {
	found := false
	w := 0.0
	for _, e := range g.Neighbors(from) {
		if e.To == to && (!found || e.Weight < w) {
			w, found = e.Weight, true
		}
	}
	return w, found
}

// Nodes returns all nodes sorted by id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns each road once, in insertion order.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, len(g.roads))
	copy(out, g.roads)
	return out
}
