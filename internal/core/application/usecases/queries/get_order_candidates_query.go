package queries

import (
	"context"
	"errors"
	"slices"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetOrderCandidatesQueryIsNotConstructed = errors.New(
		"GetOrderCandidatesQuery must be created via NewGetOrderCandidatesQuery constructor",
	)
)

// GetOrderCandidatesQuery lists who volunteered for an order, best rated first.
type GetOrderCandidatesQuery struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewGetOrderCandidatesQuery(orderID kernel.UUID) (GetOrderCandidatesQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderCandidatesQuery{}, err
	}
	return GetOrderCandidatesQuery{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetOrderCandidatesQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderCandidatesQueryIsNotConstructed)
}

type CandidateView struct {
	AgentID string  `json:"driver_id"`
	Score   float64 `json:"score"`
}

type OrderCandidatesView struct {
	OrderID    string          `json:"order_id"`
	Status     string          `json:"status"`
	Candidates []CandidateView `json:"candidates"`
}

type GetOrderCandidatesQueryHandler struct {
	repos RepositoriesFactory
}

func NewGetOrderCandidatesQueryHandler(repos RepositoriesFactory) GetOrderCandidatesQueryHandler {
	return GetOrderCandidatesQueryHandler{repos: repos}
}

// Handle sorts by score, descending. Equal scores keep the order in which the
// agents expressed interest.
func (h GetOrderCandidatesQueryHandler) Handle(
	ctx context.Context, query GetOrderCandidatesQuery,
) (OrderCandidatesView, error) {
	if err := query.Validate(); err != nil {
		return OrderCandidatesView{}, err
	}

	repos := h.repos.Create()
	o, err := repos.OrderRepository().Get(ctx, query.orderID)
	if err != nil {
		return OrderCandidatesView{}, err
	}

	view := OrderCandidatesView{
		OrderID:    o.ID().String(),
		Status:     o.Status().String(),
		Candidates: make([]CandidateView, 0, o.Candidates().Len()),
	}
	for _, id := range o.Candidates().IDs() {
		score, err := services.AgentScore(ctx, repos.AgentStatsRepository(), id)
		if err != nil {
			return OrderCandidatesView{}, err
		}
		view.Candidates = append(view.Candidates, CandidateView{AgentID: id, Score: score})
	}

	slices.SortStableFunc(view.Candidates, func(a, b CandidateView) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return view, nil
}
