package dto

type ShortestPathResponse struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	DistanceKm float64  `json:"distance_km"`
	Path       []string `json:"path"`
}

type OptimalRouteRequest struct {
	Start        string   `json:"start"`
	Destinations []string `json:"destinations"`
	Strategy     string   `json:"strategy"`
}

type RouteResponse struct {
	Strategy   string   `json:"strategy,omitempty"`
	DistanceKm float64  `json:"distance_km"`
	Path       []string `json:"path"`
}

type NetworkNode struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type NetworkRoad struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	DistanceKm float64 `json:"distance_km"`
}

// NetworkResponse lists every location and each undirected road once.
type NetworkResponse struct {
	Nodes []NetworkNode `json:"nodes"`
	Roads []NetworkRoad `json:"roads"`
}
