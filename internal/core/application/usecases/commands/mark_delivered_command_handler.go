package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

type MarkDeliveredCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewMarkDeliveredCommandHandler(uowFactory UoWFactory, clock ports.Clock) MarkDeliveredCommandHandler {
	return MarkDeliveredCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h MarkDeliveredCommandHandler) Handle(ctx context.Context, cmd MarkDeliveredCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		if err = o.MarkDelivered(cmd.Caller(), h.clock.Now()); err != nil {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
}
