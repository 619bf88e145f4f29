package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetTimerStatusQueryIsNotConstructed = errors.New(
		"GetTimerStatusQuery must be created via NewGetTimerStatusQuery constructor",
	)
)

const (
	TimerActive  = "active"
	TimerExpired = "expired"
)

type GetTimerStatusQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetTimerStatusQuery(orderID kernel.UUID) (GetTimerStatusQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetTimerStatusQuery{}, err
	}
	return GetTimerStatusQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetTimerStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetTimerStatusQueryIsNotConstructed)
}

// TimerStatusView reports "expired" for an order with no open window or one
// whose deadline has passed; otherwise the window type and whole seconds left.
type TimerStatusView struct {
	OrderID     string     `json:"order_id"`
	Status      string     `json:"status"`
	Type        string     `json:"type,omitempty"`
	SecondsLeft int        `json:"seconds_left"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

type GetTimerStatusQueryHandler struct {
	repos RepositoriesFactory
	clock ports.Clock
}

func NewGetTimerStatusQueryHandler(repos RepositoriesFactory, clock ports.Clock) GetTimerStatusQueryHandler {
	return GetTimerStatusQueryHandler{repos: repos, clock: clock}
}

func (h GetTimerStatusQueryHandler) Handle(ctx context.Context, query GetTimerStatusQuery) (TimerStatusView, error) {
	if err := query.Validate(); err != nil {
		return TimerStatusView{}, err
	}

	o, err := h.repos.Create().OrderRepository().Get(ctx, query.orderID)
	if err != nil {
		return TimerStatusView{}, err
	}

	view := TimerStatusView{OrderID: o.ID().String(), Status: TimerExpired}
	t := o.Timer()
	now := h.clock.Now()
	if !t.IsOpen() || t.Expired(now) {
		return view, nil
	}

	expiresAt := t.ExpiresAt()
	view.Status = TimerActive
	view.Type = t.Kind().String()
	view.SecondsLeft = secondsLeft(t, now)
	view.ExpiresAt = &expiresAt
	return view, nil
}
