package queries

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/guard"
)

var (
	ErrListActiveTimersQueryIsNotConstructed = errors.New(
		"ListActiveTimersQuery must be created via NewListActiveTimersQuery constructor",
	)
)

// ListActiveTimersQuery is a debugging aid: every order holding an open window.
type ListActiveTimersQuery struct {
	guard guard.ConstructorGuard
}

func NewListActiveTimersQuery() ListActiveTimersQuery {
	return ListActiveTimersQuery{guard: guard.NewConstructorGuard()}
}

func (q ListActiveTimersQuery) Validate() error {
	return q.guard.Validate(ErrListActiveTimersQueryIsNotConstructed)
}

type ActiveTimerView struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	Type        string    `json:"type"`
	ExpiresAt   time.Time `json:"expires_at"`
	SecondsLeft int       `json:"seconds_left"`
	Candidates  []string  `json:"candidates"`
}

type ListActiveTimersQueryHandler struct {
	repos RepositoriesFactory
	clock ports.Clock
}

func NewListActiveTimersQueryHandler(repos RepositoriesFactory, clock ports.Clock) ListActiveTimersQueryHandler {
	return ListActiveTimersQueryHandler{repos: repos, clock: clock}
}

// Handle includes windows whose deadline passed but whose expiry has not run
// yet; they show zero seconds left.
func (h ListActiveTimersQueryHandler) Handle(ctx context.Context, query ListActiveTimersQuery) ([]ActiveTimerView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.repos.Create().OrderRepository().List(ctx, ports.OrderFilter{
		Statuses:      []order.Status{order.Ready},
		WithOpenTimer: true,
	})
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	views := make([]ActiveTimerView, 0, len(orders))
	for _, o := range orders {
		t := o.Timer()
		views = append(views, ActiveTimerView{
			OrderID:     o.ID().String(),
			Status:      o.Status().String(),
			Type:        t.Kind().String(),
			ExpiresAt:   t.ExpiresAt(),
			SecondsLeft: secondsLeft(t, now),
			Candidates:  append([]string{}, o.Candidates().IDs()...),
		})
	}
	return views, nil
}
