package commands

import (
	"context"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

type ForceAutoAssignCommandHandler struct {
	uowFactory UoWFactory
	dispatcher AutoDispatcher
	clock      ports.Clock
}

func NewForceAutoAssignCommandHandler(
	uowFactory UoWFactory, dispatcher AutoDispatcher, clock ports.Clock,
) ForceAutoAssignCommandHandler {
	return ForceAutoAssignCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
		clock:      clock,
	}
}

// Handle requires a ready order with at least one candidate and returns the
// winning selection.
func (h ForceAutoAssignCommandHandler) Handle(ctx context.Context, cmd ForceAutoAssignCommand) (order.Selection, error) {
	if err := cmd.Validate(); err != nil {
		return order.Selection{}, err
	}

	var sel order.Selection
	err := inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
		if err != nil {
			return err
		}
		if o.Status() != order.Ready {
			return errs.NewInvalidStateError("force auto assignment", o.Status().String())
		}
		if o.Candidates().IsEmpty() {
			return errs.NewInvalidStateError("force auto assignment", "no driver has expressed interest")
		}

		sel, err = h.dispatcher.Dispatch(ctx, uow.AgentStatsRepository(), o, h.clock.Now())
		if err != nil {
			return err
		}

		return uow.OrderRepository().Update(ctx, o)
	})
	if err != nil {
		return order.Selection{}, err
	}
	return sel, nil
}
