package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrExpressInterestCommandIsNotConstructed = errors.New(
		"ExpressInterestCommand must be created via NewExpressInterestCommand constructor",
	)
)

// ExpressInterestCommand volunteers the calling driver for an order.
type ExpressInterestCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	caller  kernel.Caller

	guard guard.ConstructorGuard
}

func NewExpressInterestCommand(orderID kernel.UUID, caller kernel.Caller) (ExpressInterestCommand, error) {
	cmd := ExpressInterestCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		caller.Require(kernel.RoleDriver, "express interest"),
	); err != nil {
		return ExpressInterestCommand{}, err
	}

	cmd.orderID = orderID
	cmd.caller = caller
	return cmd, nil
}

func (c ExpressInterestCommand) Validate() error {
	return c.guard.Validate(ErrExpressInterestCommandIsNotConstructed)
}

func (c ExpressInterestCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ExpressInterestCommand) AgentID() string {
	return c.caller.ID()
}
