package ports

import (
	"context"

	"cargo-dispatch-service/internal/domain"
)

// Source of the locations and roads the route graph is built from.
type RoadNetwork interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
	ListRoads(ctx context.Context) ([]domain.Road, error)
}
