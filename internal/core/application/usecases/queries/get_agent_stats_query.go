package queries

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetAgentStatsQueryIsNotConstructed = errors.New(
		"GetAgentStatsQuery must be created via NewGetAgentStatsQuery constructor",
	)
)

type GetAgentStatsQuery struct {
	agentID string

	guard guard.ConstructorGuard
}

func NewGetAgentStatsQuery(agentID string) (GetAgentStatsQuery, error) {
	if strings.TrimSpace(agentID) == "" {
		return GetAgentStatsQuery{}, errs.NewValueIsRequiredError("agent id")
	}
	return GetAgentStatsQuery{agentID: agentID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetAgentStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetAgentStatsQueryIsNotConstructed)
}

// AgentStatsView is the quality record as shown to people. An agent without a
// record reads as a fresh one (average 5.0, nothing delivered); Score is what
// auto-assignment would use and stays 0.0 for such an agent.
type AgentStatsView struct {
	AgentID       string  `json:"driver_id"`
	AverageRating float64 `json:"avg_rating"`
	DeliveryCount int     `json:"delivery_count"`
	TotalRating   float64 `json:"total_rating"`
	Score         float64 `json:"score"`
}

type GetAgentStatsQueryHandler struct {
	repos RepositoriesFactory
}

func NewGetAgentStatsQueryHandler(repos RepositoriesFactory) GetAgentStatsQueryHandler {
	return GetAgentStatsQueryHandler{repos: repos}
}

func (h GetAgentStatsQueryHandler) Handle(ctx context.Context, query GetAgentStatsQuery) (AgentStatsView, error) {
	if err := query.Validate(); err != nil {
		return AgentStatsView{}, err
	}

	st, err := h.repos.Create().AgentStatsRepository().Get(ctx, query.agentID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return AgentStatsView{
			AgentID:       query.agentID,
			AverageRating: agent.DefaultAverage,
			Score:         agent.UnknownScore,
		}, nil
	}
	if err != nil {
		return AgentStatsView{}, err
	}

	return AgentStatsView{
		AgentID:       st.AgentID(),
		AverageRating: st.AverageRating(),
		DeliveryCount: st.DeliveryCount(),
		TotalRating:   st.TotalRating(),
		Score:         st.AverageRating(),
	}, nil
}
