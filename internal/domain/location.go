package domain

// A place shipments leave from or are delivered to. Locations are the
// nodes of the road network.
type Location struct {
	ID    string
	Name  string
	City  string
	State string
}

// An undirected road between two locations.
type Road struct {
	FromID     string
	ToID       string
	DistanceKm float64
}
