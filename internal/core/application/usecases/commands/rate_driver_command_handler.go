package commands

import (
	"context"

	"dispatch/internal/core/domain/model/agent"
	"dispatch/internal/core/ports"
)

// RateDriverCommandHandler stores the rating on the order and feeds it into the
// delivering agent's quality record in the same transaction. Handle returns the
// updated record.
type RateDriverCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewRateDriverCommandHandler(uowFactory UoWFactory, clock ports.Clock) RateDriverCommandHandler {
	return RateDriverCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h RateDriverCommandHandler) Handle(ctx context.Context, cmd RateDriverCommand) (agent.Stats, error) {
	if err := cmd.Validate(); err != nil {
		return agent.Stats{}, err
	}

	var stats agent.Stats
	err := inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		if err = o.Rate(cmd.Caller(), cmd.Rating(), h.clock.Now()); err != nil {
			return err
		}

		if err = uow.OrderRepository().Update(ctx, o); err != nil {
			return err
		}

		stats, err = uow.AgentStatsRepository().RecordRating(ctx, o.AssignedDriver(), cmd.Rating())
		return err
	})
	if err != nil {
		return agent.Stats{}, err
	}
	return stats, nil
}
