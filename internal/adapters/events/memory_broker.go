package events

import (
	"context"
	"sync"

	"cargo-dispatch-service/internal/domain"
)

const subscriberBuffer = 16

// MemoryBroker fans events out to in-process subscribers. Slow subscribers
// miss events instead of blocking publishers.
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[chan domain.PlanEvent]struct{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: map[chan domain.PlanEvent]struct{}{}}
}

func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan domain.PlanEvent, func(), error) {
	ch := make(chan domain.PlanEvent, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (b *MemoryBroker) Publish(ctx context.Context, ev domain.PlanEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	return nil
}

// Subscribers reports the number of live subscriptions.
func (b *MemoryBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
