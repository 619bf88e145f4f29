package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

type ManagerAssignCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewManagerAssignCommandHandler(uowFactory UoWFactory, clock ports.Clock) ManagerAssignCommandHandler {
	return ManagerAssignCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle assigns the driver while the order is ready, whatever window is open.
// Losing a race against auto-assignment surfaces as errs.InvalidStateError once
// the order is re-read.
func (h ManagerAssignCommandHandler) Handle(ctx context.Context, cmd ManagerAssignCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		if err = o.ManagerAssign(cmd.Caller(), cmd.AgentID(), h.clock.Now()); err != nil {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
}
