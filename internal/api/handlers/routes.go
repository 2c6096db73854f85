package handlers

import (
	"context"
	"net/http"
	"strings"

	"cargo-dispatch-service/internal/api/dto"
	"cargo-dispatch-service/internal/graph"
)

type RouteService interface {
	ShortestPath(ctx context.Context, from, to string) (graph.Path, bool, error)
	OptimalRoute(ctx context.Context, strategy graph.RouteStrategy, start string, destinations []string) (graph.Path, bool, error)
	RouteStrategy() graph.RouteStrategy
	RoadNetwork(ctx context.Context) (*graph.Graph, error)
}

type RouteHandler struct {
	Service RouteService
}

// Shortest handles GET /routes/shortest?from=&to=.
func (h *RouteHandler) Shortest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if from == "" || to == "" {
		writeError(w, r, http.StatusBadRequest, "from and to are required")
		return
	}

	p, ok, err := h.Service.ShortestPath(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, "shortest path", err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "no path between "+from+" and "+to)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ShortestPathResponse{
		From:       from,
		To:         to,
		DistanceKm: p.Distance,
		Path:       p.Nodes,
	})
}

// Optimal handles POST /routes/optimal.
func (h *RouteHandler) Optimal(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.OptimalRouteRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := strings.TrimSpace(req.Start)
	if start == "" {
		writeError(w, r, http.StatusBadRequest, "start is required")
		return
	}

	strategy := h.Service.RouteStrategy()
	if s := strings.TrimSpace(req.Strategy); s != "" {
		parsed, err := graph.ParseRouteStrategy(s)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		strategy = parsed
	}

	p, ok, err := h.Service.OptimalRoute(r.Context(), strategy, start, req.Destinations)
	if err != nil {
		writeServiceError(w, r, "optimal route", err)
		return
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "no route covers every destination")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.RouteResponse{
		Strategy:   string(strategy),
		DistanceKm: p.Distance,
		Path:       p.Nodes,
	})
}

// Network handles GET /routes/network.
func (h *RouteHandler) Network(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	g, err := h.Service.RoadNetwork(r.Context())
	if err != nil {
		writeServiceError(w, r, "road network", err)
		return
	}

	nodes := g.Nodes()
	edges := g.Edges()
	resp := dto.NetworkResponse{
		Nodes: make([]dto.NetworkNode, 0, len(nodes)),
		Roads: make([]dto.NetworkRoad, 0, len(edges)),
	}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, dto.NetworkNode{ID: n.ID, Name: n.Name})
	}
	for _, e := range edges {
		resp.Roads = append(resp.Roads, dto.NetworkRoad{From: e.From, To: e.To, DistanceKm: e.Weight})
	}
	writeJSON(w, r, http.StatusOK, resp)
}
