package commands

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
)

// ExpireWindowCommandHandler is the scheduler callback for both windows. It
// re-reads the order and acts only when the window that fired is still the one
// open on a ready order; anything else is reported as order.Superseded without
// an error. Duplicate deliveries of the same task are therefore harmless.
//
// Example:
//
//	cmd, _ := NewExpireWindowCommand(task)
//	outcome, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	log.Printf("window %s: %s", task.Kind, outcome)
type ExpireWindowCommandHandler struct {
	uowFactory UoWFactory
	dispatcher AutoDispatcher
	scheduler  ports.WindowScheduler
	policy     order.WindowPolicy
	clock      ports.Clock
	logger     *slog.Logger
}

func NewExpireWindowCommandHandler(
	uowFactory UoWFactory,
	dispatcher AutoDispatcher,
	scheduler ports.WindowScheduler,
	policy order.WindowPolicy,
	clock ports.Clock,
	logger *slog.Logger,
) ExpireWindowCommandHandler {
	return ExpireWindowCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
		scheduler:  scheduler,
		policy:     policy,
		clock:      clock,
		logger:     logger.With("component", "window-expiry"),
	}
}

func (h ExpireWindowCommandHandler) Handle(ctx context.Context, cmd ExpireWindowCommand) (order.ExpiryOutcome, error) {
	if err := cmd.Validate(); err != nil {
		return order.Superseded, err
	}
	task := cmd.Task()

	var (
		outcome order.ExpiryOutcome
		next    order.WindowTask
	)
	err := inTransaction(ctx, h.uowFactory, func(uow UoW) error {
		outcome, next = order.Superseded, order.WindowTask{}

		o, err := uow.OrderRepository().Get(ctx, task.OrderID)
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		now := h.clock.Now()
		switch task.Kind {
		case order.AcceptanceWindow:
			outcome, next = o.ExpireAcceptance(h.policy, now)
		case order.ManagerDecision:
			outcome, err = h.closeManagerDecision(ctx, uow, o)
			if err != nil {
				return err
			}
		}

		if outcome == order.Superseded {
			return nil
		}
		return uow.OrderRepository().Update(ctx, o)
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "window expiry failed",
			"order_id", task.OrderID.String(), "kind", task.Kind.String(), "error", err)
		return order.Superseded, err
	}

	if outcome == order.Superseded {
		h.logger.InfoContext(ctx, "window expiry aborted",
			"order_id", task.OrderID.String(), "kind", task.Kind.String(), "outcome", outcome.String())
		return outcome, nil
	}

	if outcome == order.ManagerDecisionOpened {
		h.scheduler.Schedule(next)
	}
	h.logger.InfoContext(ctx, "window expired",
		"order_id", task.OrderID.String(), "kind", task.Kind.String(), "outcome", outcome.String())
	return outcome, nil
}

func (h ExpireWindowCommandHandler) closeManagerDecision(
	ctx context.Context, uow UoW, o *order.Order,
) (order.ExpiryOutcome, error) {
	if !o.AwaitingManagerDecision() {
		return order.Superseded, nil
	}
	now := h.clock.Now()
	if o.Candidates().IsEmpty() {
		return o.AbandonManagerDecision(now), nil
	}

	if _, err := h.dispatcher.Dispatch(ctx, uow.AgentStatsRepository(), o, now); err != nil {
		return order.Superseded, err
	}
	return order.AutoAssigned, nil
}
