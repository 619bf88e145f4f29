package queries

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrListOrdersQueryIsNotConstructed = errors.New(
		"ListOrdersQuery must be created via NewListOrdersQuery constructor",
	)
)

// Scope selects which orders a caller is listing.
type Scope string

const (
	// ScopeMine is a client's own orders.
	ScopeMine Scope = "mine"
	// ScopeRestaurant is a restaurant's pending and ready orders.
	ScopeRestaurant Scope = "restaurant"
	// ScopeAvailable is every order a driver may still volunteer for.
	ScopeAvailable Scope = "available"
	// ScopeInterests is the orders a driver volunteered for that are still undecided.
	ScopeInterests Scope = "interests"
	// ScopeDeliveries is the orders assigned to a driver.
	ScopeDeliveries Scope = "deliveries"
	// ScopeAll is every order, for managers.
	ScopeAll Scope = "all"
)

var scopeRoles = map[Scope]kernel.Role{
	ScopeMine:       kernel.RoleClient,
	ScopeRestaurant: kernel.RoleRestaurant,
	ScopeAvailable:  kernel.RoleDriver,
	ScopeInterests:  kernel.RoleDriver,
	ScopeDeliveries: kernel.RoleDriver,
	ScopeAll:        kernel.RoleManager,
}

func ParseScope(s string) (Scope, error) {
	scope := Scope(s)
	if _, ok := scopeRoles[scope]; !ok {
		return "", errs.NewValueIsInvalidError("scope")
	}
	return scope, nil
}

type ListOrdersQuery struct {
	caller kernel.Caller
	scope  Scope
	limit  int

	guard guard.ConstructorGuard
}

// NewListOrdersQuery checks that the caller's role may use scope. A limit of
// zero means no limit.
func NewListOrdersQuery(caller kernel.Caller, scope Scope, limit int) (ListOrdersQuery, error) {
	role, ok := scopeRoles[scope]
	if !ok {
		return ListOrdersQuery{}, errs.NewValueIsInvalidError("scope")
	}
	if limit < 0 {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, "unbounded")
	}
	if err := caller.Require(role, "list "+string(scope)+" orders"); err != nil {
		return ListOrdersQuery{}, err
	}
	return ListOrdersQuery{caller: caller, scope: scope, limit: limit, guard: guard.NewConstructorGuard()}, nil
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) filter() ports.OrderFilter {
	f := ports.OrderFilter{Limit: q.limit}
	id := q.caller.ID()
	switch q.scope {
	case ScopeMine:
		f.ClientID = id
	case ScopeRestaurant:
		f.RestaurantID = id
		f.Statuses = []order.Status{order.Pending, order.Ready}
	case ScopeAvailable:
		f.Statuses = []order.Status{order.Ready}
		f.TimerKind = order.AcceptanceWindow
	case ScopeInterests:
		f.Statuses = []order.Status{order.Ready}
		f.CandidateID = id
	case ScopeDeliveries:
		f.AssignedDriver = id
		f.Statuses = []order.Status{order.Assigned, order.Delivered}
	case ScopeAll:
	}
	return f
}

type ListOrdersQueryHandler struct {
	repos RepositoriesFactory
}

func NewListOrdersQueryHandler(repos RepositoriesFactory) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{repos: repos}
}

// Handle returns the matching orders, oldest first.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]OrderView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	orders, err := h.repos.Create().OrderRepository().List(ctx, query.filter())
	if err != nil {
		return nil, err
	}
	return newOrderViews(orders), nil
}
