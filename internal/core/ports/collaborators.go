package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// PositionStore keeps the last reported position of every agent.
type PositionStore interface {
	Save(ctx context.Context, position agent.Position) error

	// Get reports found=false for an agent that never reported a position.
	Get(ctx context.Context, agentID string) (position agent.Position, found bool, err error)
}

// RestaurantCatalog supplies pickup coordinates.
type RestaurantCatalog interface {
	Location(ctx context.Context, restaurantID string) (kernel.Location, error)
}

// EventPublisher appends events to the shared log. Implementations must not
// block on subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// EventStream tails the event log from the moment of subscription until ctx ends.
type EventStream interface {
	Subscribe(ctx context.Context) (<-chan event.Event, error)
}

// WindowScheduler runs a window expiry once its FireAt is reached. Tasks are
// fire-once and never cancelled; the expiry re-checks the order on wake.
type WindowScheduler interface {
	Schedule(task order.WindowTask)
}

type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
