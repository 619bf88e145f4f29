package orderrepo

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ports.OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
	lock    bool
}

type aggregateTracker interface {
	TrackAggregate(ctx context.Context, id kernel.UUID, aggregate *order.Order)
}

func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
	}
}

// ForUpdate returns a repository whose Get takes a row lock held until the
// surrounding transaction ends. Concurrent writers of one order then queue
// instead of failing the version check.
func (r *GormOrderRepository) ForUpdate() *GormOrderRepository {
	locked := *r
	locked.lock = true
	return &locked
}

func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return errs.NewStoreError("add order", err)
	}

	r.tracker.TrackAggregate(ctx, aggregate.ID(), aggregate)
	return nil
}

// Update writes every column, but only while the row still carries the version
// the aggregate was loaded at.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	expected := aggregate.Version()
	dto := fromDomain(aggregate)
	dto.Version = expected + 1

	result := r.db.WithContext(ctx).
		Model(&OrderDTO{}).
		Where("id = ? AND version = ?", dto.ID, expected).
		Select("*").
		Updates(&dto)
	if result.Error != nil {
		return errs.NewStoreError("update order", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return errs.NewStoreError("update order", err)
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		return errs.NewVersionConflictError("order", aggregate.ID().String(), expected)
	}

	aggregate.BumpVersion()
	r.tracker.TrackAggregate(ctx, aggregate.ID(), aggregate)
	return nil
}

func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	q := r.db.WithContext(ctx)
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var dto OrderDTO
	if err := q.First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, errs.NewStoreError("get order", err)
	}

	return toDomain(dto)
}

func (r *GormOrderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*order.Order, error) {
	q := r.db.WithContext(ctx).Model(&OrderDTO{})
	if filter.ClientID != "" {
		q = q.Where("client_id = ?", filter.ClientID)
	}
	if filter.RestaurantID != "" {
		q = q.Where("restaurant_id = ?", filter.RestaurantID)
	}
	if len(filter.Statuses) > 0 {
		names := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			names = append(names, s.String())
		}
		q = q.Where("status IN ?", names)
	}
	if filter.WithOpenTimer {
		q = q.Where("timer_kind <> ?", order.TimerNone.String())
	}
	if filter.TimerKind != order.TimerNone {
		q = q.Where("timer_kind = ?", filter.TimerKind.String())
	}
	if filter.CandidateID != "" {
		q = q.Where("? = ANY(candidates)", filter.CandidateID)
	}
	if filter.AssignedDriver != "" {
		q = q.Where("assigned_driver = ?", filter.AssignedDriver)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var dtos []OrderDTO
	if err := q.Order("created_at, id").Find(&dtos).Error; err != nil {
		return nil, errs.NewStoreError("list orders", err)
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		o, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *GormOrderRepository) ListExpiredTimers(ctx context.Context, before time.Time) ([]order.WindowTask, error) {
	var dtos []OrderDTO
	err := r.db.WithContext(ctx).
		Select("id", "timer_kind", "timer_expires_at").
		Where("status = ? AND timer_kind <> ? AND timer_expires_at < ?",
			order.Ready.String(), order.TimerNone.String(), before).
		Order("timer_expires_at").
		Find(&dtos).Error
	if err != nil {
		return nil, errs.NewStoreError("list expired timers", err)
	}

	tasks := make([]order.WindowTask, 0, len(dtos))
	for _, dto := range dtos {
		if dto.TimerExpiresAt == nil {
			continue
		}
		id, err := kernel.UUIDFromString(dto.ID.String())
		if err != nil {
			return nil, err
		}
		kind, err := order.ParseTimerKind(dto.TimerKind)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, order.WindowTask{OrderID: id, Kind: kind, FireAt: *dto.TimerExpiresAt})
	}
	return tasks, nil
}
