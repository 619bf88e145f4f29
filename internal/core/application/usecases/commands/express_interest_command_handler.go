package commands

import (
	"context"

	"dispatch/internal/core/domain/services"
	"dispatch/internal/core/ports"
)

// ExpressInterestCommandHandler adds the driver to the order's candidates.
// Handle reports added=false when the driver was already a candidate; the order
// is not rewritten in that case.
type ExpressInterestCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewExpressInterestCommandHandler(uowFactory UoWFactory, clock ports.Clock) ExpressInterestCommandHandler {
	return ExpressInterestCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h ExpressInterestCommandHandler) Handle(ctx context.Context, cmd ExpressInterestCommand) (bool, error) {
	if err := cmd.Validate(); err != nil {
		return false, err
	}

	var added bool
	err := inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		score, err := services.AgentScore(ctx, uow.AgentStatsRepository(), cmd.AgentID())
		if err != nil {
			return err
		}

		added, err = o.ExpressInterest(cmd.AgentID(), score, h.clock.Now())
		if err != nil || !added {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
	if err != nil {
		return false, err
	}
	return added, nil
}
