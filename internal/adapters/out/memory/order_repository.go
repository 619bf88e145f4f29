package memory

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	r.uow.changes.stageOrder(aggregate.ID(), stagedOrder{snapshot: aggregate.Snapshot(), insert: true})
	r.uow.TrackAggregate(aggregate.ID(), aggregate)
	return r.uow.written(ctx)
}

// Update stages a write conditioned on the version the aggregate was read at.
// A version that is already stale is reported right away; one that goes stale
// before Commit fails the Commit.
func (r *OrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	id := aggregate.ID()
	current, found := r.current(id)
	if !found {
		return errs.NewObjectNotFoundError("order", id.String())
	}
	if current.Version != aggregate.Version() {
		return errs.NewVersionConflictError("order", id.String(), aggregate.Version())
	}

	staged, already := r.uow.changes.orders[id]
	expected := aggregate.Version()
	if already && !staged.insert {
		expected = staged.expected
	}

	aggregate.BumpVersion()
	r.uow.changes.stageOrder(id, stagedOrder{
		snapshot: aggregate.Snapshot(),
		expected: expected,
		insert:   already && staged.insert,
	})
	r.uow.TrackAggregate(id, aggregate)
	return r.uow.written(ctx)
}

// Get holds the order locked until Commit or Rollback when called inside a
// transaction.
func (r *OrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if _, found := r.current(id); !found {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	if err := r.uow.lock(ctx, id); err != nil {
		return nil, err
	}

	s, _ := r.current(id)
	return order.RestoreOrder(s)
}

func (r *OrderRepository) List(_ context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	snapshots, err := r.uow.store.listOrders(filter)
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(snapshots))
	for _, s := range snapshots {
		o, err := order.RestoreOrder(s)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *OrderRepository) ListExpiredTimers(_ context.Context, before time.Time) ([]order.WindowTask, error) {
	return r.uow.store.expiredTimers(before), nil
}

// current prefers this unit of work's own staged version of the order.
func (r *OrderRepository) current(id kernel.UUID) (order.Snapshot, bool) {
	if staged, ok := r.uow.changes.orders[id]; ok {
		return staged.snapshot, true
	}
	return r.uow.store.order(id)
}
