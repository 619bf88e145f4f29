package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderFilter narrows List. Zero fields do not filter.
type OrderFilter struct {
	ClientID       string
	RestaurantID   string
	Statuses       []order.Status
	TimerKind      order.TimerKind
	WithOpenTimer  bool
	CandidateID    string
	AssignedDriver string
	Limit          int
}

// OrderRepository is the authoritative order store.
//
// Update is a conditional write: it succeeds only while the stored version equals
// aggregate.Version(), then bumps the version on the aggregate. A stale aggregate
// gets an errs.VersionConflictError and nothing is written.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	Update(ctx context.Context, aggregate *order.Order) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// List returns matching orders oldest first.
	List(ctx context.Context, filter OrderFilter) ([]*order.Order, error)

	// ListExpiredTimers returns one task per ready order whose open window expired before the given instant.
	ListExpiredTimers(ctx context.Context, before time.Time) ([]order.WindowTask, error)
}
