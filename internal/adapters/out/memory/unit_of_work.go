package memory

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

var ErrNoTransaction = errors.New("no transaction in progress")

type eventSource interface {
	PullEvents() []event.Event
}

type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate eventSource
}

type stagedOrder struct {
	snapshot order.Snapshot
	expected int64
	insert   bool
}

type stagedRating struct {
	agentID string
	rating  int
}

// changeSet is everything a unit of work will write at commit.
type changeSet struct {
	orderIDs []kernel.UUID
	orders   map[kernel.UUID]stagedOrder
	seeds    []agent.Stats
	ratings  []stagedRating
}

func newChangeSet() *changeSet {
	return &changeSet{orders: make(map[kernel.UUID]stagedOrder)}
}

func (c *changeSet) stageOrder(id kernel.UUID, s stagedOrder) {
	if _, ok := c.orders[id]; !ok {
		c.orderIDs = append(c.orderIDs, id)
	}
	c.orders[id] = s
}

type UnitOfWorkFactory struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger
}

func NewUnitOfWorkFactory(store *Store, publisher ports.EventPublisher, logger *slog.Logger) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		store:     store,
		publisher: publisher,
		logger:    logger.With("component", "memory-uow"),
	}
}

func (f *UnitOfWorkFactory) Create() ports.UnitOfWork {
	return &UnitOfWork{
		store:     f.store,
		publisher: f.publisher,
		logger:    f.logger,
		changes:   newChangeSet(),
	}
}

// UnitOfWork stages writes until Commit. Outside Begin/Commit every write is
// applied, and its events published, immediately.
type UnitOfWork struct {
	store     *Store
	publisher ports.EventPublisher
	logger    *slog.Logger

	begun   bool
	changes *changeSet
	tracked []trackedAggregate
	locked  []kernel.UUID
}

func (uow *UnitOfWork) Begin(_ context.Context) error {
	uow.begun = true
	return nil
}

func (uow *UnitOfWork) Commit(ctx context.Context) error {
	if !uow.begun {
		return ErrNoTransaction
	}
	uow.begun = false
	defer uow.unlock()
	return uow.flush(ctx)
}

func (uow *UnitOfWork) Rollback(_ context.Context) error {
	if !uow.begun {
		return ErrNoTransaction
	}
	uow.begun = false
	uow.reset()
	uow.unlock()
	return nil
}

func (uow *UnitOfWork) OrderRepository() ports.OrderRepository {
	return &OrderRepository{uow: uow}
}

func (uow *UnitOfWork) AgentStatsRepository() ports.AgentStatsRepository {
	return &AgentStatsRepository{uow: uow}
}

func (uow *UnitOfWork) TrackAggregate(id kernel.UUID, aggregate eventSource) {
	uow.tracked = append(uow.tracked, trackedAggregate{ID: id, Aggregate: aggregate})
}

// lock takes the order's row lock once per transaction. Outside a transaction
// reads do not lock.
func (uow *UnitOfWork) lock(ctx context.Context, id kernel.UUID) error {
	if !uow.begun || slices.Contains(uow.locked, id) {
		return nil
	}
	if err := uow.store.lockOrder(ctx, id); err != nil {
		return err
	}
	uow.locked = append(uow.locked, id)
	return nil
}

func (uow *UnitOfWork) unlock() {
	for _, id := range uow.locked {
		uow.store.unlockOrder(id)
	}
	uow.locked = nil
}

// written applies staged changes right away when no transaction is open.
func (uow *UnitOfWork) written(ctx context.Context) error {
	if uow.begun {
		return nil
	}
	return uow.flush(ctx)
}

func (uow *UnitOfWork) flush(ctx context.Context) error {
	changes, tracked := uow.changes, uow.tracked
	uow.reset()

	if err := uow.store.apply(changes); err != nil {
		return err
	}

	var events []event.Event
	for _, t := range tracked {
		events = append(events, t.Aggregate.PullEvents()...)
	}
	if len(events) == 0 || uow.publisher == nil {
		return nil
	}
	if err := uow.publisher.Publish(ctx, events...); err != nil {
		uow.logger.ErrorContext(ctx, "failed to publish committed events", "count", len(events), "error", err)
	}
	return nil
}

func (uow *UnitOfWork) reset() {
	uow.changes = newChangeSet()
	uow.tracked = nil
}
