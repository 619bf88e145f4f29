package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetAgentPositionQueryIsNotConstructed = errors.New(
		"GetAgentPositionQuery must be created via NewGetAgentPositionQuery constructor",
	)
)

type GetAgentPositionQuery struct {
	agentID string

	guard guard.ConstructorGuard
}

func NewGetAgentPositionQuery(agentID string) (GetAgentPositionQuery, error) {
	if strings.TrimSpace(agentID) == "" {
		return GetAgentPositionQuery{}, errs.NewValueIsRequiredError("agent id")
	}
	return GetAgentPositionQuery{agentID: agentID, guard: guard.NewConstructorGuard()}, nil
}

func (q GetAgentPositionQuery) Validate() error {
	return q.guard.Validate(ErrGetAgentPositionQueryIsNotConstructed)
}

type PositionView struct {
	AgentID   string    `json:"driver_id"`
	Longitude float64   `json:"longitude"`
	Latitude  float64   `json:"latitude"`
	UpdatedAt time.Time `json:"updated_at"`
}

type GetAgentPositionQueryHandler struct {
	positions ports.PositionStore
}

func NewGetAgentPositionQueryHandler(positions ports.PositionStore) GetAgentPositionQueryHandler {
	return GetAgentPositionQueryHandler{positions: positions}
}

// Handle reports errs.ObjectNotFoundError for an agent that never sent a position.
func (h GetAgentPositionQueryHandler) Handle(ctx context.Context, query GetAgentPositionQuery) (PositionView, error) {
	if err := query.Validate(); err != nil {
		return PositionView{}, err
	}

	pos, found, err := h.positions.Get(ctx, query.agentID)
	if err != nil {
		return PositionView{}, err
	}
	if !found {
		return PositionView{}, errs.NewObjectNotFoundError("position", query.agentID)
	}

	return PositionView{
		AgentID:   pos.AgentID,
		Longitude: pos.Location.Lon(),
		Latitude:  pos.Location.Lat(),
		UpdatedAt: pos.UpdatedAt,
	}, nil
}
