package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// MarkReadyCommandHandler moves an order to ready and opens its acceptance
// window. The expiry is handed to the scheduler only once the transition is
// committed, so a rolled back attempt never leaves a timer behind.
type MarkReadyCommandHandler struct {
	uowFactory UoWFactory
	scheduler  ports.WindowScheduler
	policy     order.WindowPolicy
	clock      ports.Clock
}

func NewMarkReadyCommandHandler(
	uowFactory UoWFactory, scheduler ports.WindowScheduler, policy order.WindowPolicy, clock ports.Clock,
) MarkReadyCommandHandler {
	return MarkReadyCommandHandler{
		uowFactory: uowFactory,
		scheduler:  scheduler,
		policy:     policy,
		clock:      clock,
	}
}

func (h MarkReadyCommandHandler) Handle(ctx context.Context, cmd MarkReadyCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	var task order.WindowTask
	err := inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}

		task, err = o.MarkReady(cmd.Caller(), h.policy, h.clock.Now())
		if err != nil {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
	if err != nil {
		return err
	}

	h.scheduler.Schedule(task)
	return nil
}
