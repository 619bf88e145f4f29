// Package orderrepo persists the order aggregate in the "orders" table.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// OrderDTO is one row of the orders table. The open window, if any, is spread
// over the timer_* columns; timer_kind is "none" when no window is open.
type OrderDTO struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ClientID       string         `gorm:"not null;index"`
	RestaurantID   string         `gorm:"not null;index"`
	Items          []order.Item   `gorm:"type:jsonb;serializer:json"`
	Status         string         `gorm:"not null;index"`
	Candidates     pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	TimerKind      string         `gorm:"not null;default:'none';index"`
	TimerExpiresAt *time.Time
	TimerCreatedAt *time.Time
	AssignedDriver *string `gorm:"index"`
	ClientRating   *int
	RatedAt        *time.Time
	CreatedAt      time.Time `gorm:"not null;index"`
	Version        int64     `gorm:"not null;default:0"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	dto := OrderDTO{
		ID:           s.ID.Bytes(),
		ClientID:     s.ClientID,
		RestaurantID: s.RestaurantID,
		Items:        s.Items,
		Status:       s.Status.String(),
		Candidates:   pq.StringArray(append([]string{}, s.Candidates...)),
		TimerKind:    s.Timer.Kind().String(),
		RatedAt:      s.RatedAt,
		CreatedAt:    s.CreatedAt,
		Version:      s.Version,
	}
	if s.Timer.IsOpen() {
		expiresAt, createdAt := s.Timer.ExpiresAt(), s.Timer.CreatedAt()
		dto.TimerExpiresAt = &expiresAt
		dto.TimerCreatedAt = &createdAt
	}
	if s.AssignedDriver != "" {
		driver := s.AssignedDriver
		dto.AssignedDriver = &driver
	}
	if s.ClientRating != 0 {
		rating := s.ClientRating
		dto.ClientRating = &rating
	}
	return dto
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromString(dto.ID.String())
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	kind, err := order.ParseTimerKind(dto.TimerKind)
	if err != nil {
		return nil, err
	}
	var expiresAt, createdAt time.Time
	if dto.TimerExpiresAt != nil {
		expiresAt = *dto.TimerExpiresAt
	}
	if dto.TimerCreatedAt != nil {
		createdAt = *dto.TimerCreatedAt
	}
	timer, err := order.RestoreTimer(kind, expiresAt, createdAt)
	if err != nil {
		return nil, err
	}

	s := order.Snapshot{
		ID:           id,
		ClientID:     dto.ClientID,
		RestaurantID: dto.RestaurantID,
		Items:        dto.Items,
		Status:       status,
		Candidates:   dto.Candidates,
		Timer:        timer,
		RatedAt:      dto.RatedAt,
		CreatedAt:    dto.CreatedAt,
		Version:      dto.Version,
	}
	if dto.AssignedDriver != nil {
		s.AssignedDriver = *dto.AssignedDriver
	}
	if dto.ClientRating != nil {
		s.ClientRating = *dto.ClientRating
	}
	return order.RestoreOrder(s)
}
