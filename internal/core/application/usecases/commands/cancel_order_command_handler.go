package commands

import (
	"context"

	"dispatch/internal/core/ports"
)

// CancelOrderCommandHandler cancels a pending or ready order. A window that is
// still open keeps its scheduled expiry, which finds the order cancelled and
// does nothing.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	clock      ports.Clock
}

func NewCancelOrderCommandHandler(uowFactory UoWFactory, clock ports.Clock) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	return inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		if err = o.Cancel(cmd.Caller(), h.clock.Now()); err != nil {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
}
