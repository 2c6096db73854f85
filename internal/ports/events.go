package ports

import (
	"context"

	"cargo-dispatch-service/internal/domain"
)

// EventBroker fans plan events out to subscribers.
type EventBroker interface {
	Publish(ctx context.Context, ev domain.PlanEvent) error
	// Subscribe returns a channel of events and a function that releases the
	// subscription. The channel is closed after cancel is called.
	Subscribe(ctx context.Context) (<-chan domain.PlanEvent, func(), error)
}
