package commands

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/domain/model/event"
	"dispatch/internal/core/ports"
)

// UpdatePositionCommandHandler writes to the position store, which lives outside
// the order transaction, and announces the move with position_updated.
type UpdatePositionCommandHandler struct {
	positions ports.PositionStore
	publisher ports.EventPublisher
	clock     ports.Clock
}

func NewUpdatePositionCommandHandler(
	positions ports.PositionStore, publisher ports.EventPublisher, clock ports.Clock,
) UpdatePositionCommandHandler {
	return UpdatePositionCommandHandler{
		positions: positions,
		publisher: publisher,
		clock:     clock,
	}
}

func (h UpdatePositionCommandHandler) Handle(ctx context.Context, cmd UpdatePositionCommand) (agent.Position, error) {
	if err := cmd.Validate(); err != nil {
		return agent.Position{}, err
	}

	now := h.clock.Now()
	pos, err := agent.NewPosition(cmd.AgentID(), cmd.Location(), now)
	if err != nil {
		return agent.Position{}, err
	}

	if err = h.positions.Save(ctx, pos); err != nil {
		return agent.Position{}, err
	}

	err = h.publisher.Publish(ctx, event.New(event.PositionUpdated, map[string]any{
		"driver_id": pos.AgentID,
		"longitude": pos.Location.Lon(),
		"latitude":  pos.Location.Lat(),
	}, now))
	if err != nil {
		return agent.Position{}, err
	}
	return pos, nil
}
