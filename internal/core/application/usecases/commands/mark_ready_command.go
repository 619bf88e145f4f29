package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrMarkReadyCommandIsNotConstructed = errors.New(
		"MarkReadyCommand must be created via NewMarkReadyCommand constructor",
	)
)

// MarkReadyCommand is issued by the restaurant once the food can be picked up.
type MarkReadyCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	caller  kernel.Caller

	guard guard.ConstructorGuard
}

func NewMarkReadyCommand(orderID kernel.UUID, caller kernel.Caller) (MarkReadyCommand, error) {
	cmd := MarkReadyCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		caller.Validate(),
	); err != nil {
		return MarkReadyCommand{}, err
	}

	cmd.orderID = orderID
	cmd.caller = caller
	return cmd, nil
}

func (c MarkReadyCommand) Validate() error {
	return c.guard.Validate(ErrMarkReadyCommandIsNotConstructed)
}

func (c MarkReadyCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c MarkReadyCommand) Caller() kernel.Caller {
	return c.caller
}
