package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrForceAutoAssignCommandIsNotConstructed = errors.New(
		"ForceAutoAssignCommand must be created via NewForceAutoAssignCommand constructor",
	)
)

// ForceAutoAssignCommand runs auto-assignment now instead of waiting for the
// manager-decision window to close.
type ForceAutoAssignCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	caller  kernel.Caller

	guard guard.ConstructorGuard
}

func NewForceAutoAssignCommand(orderID kernel.UUID, caller kernel.Caller) (ForceAutoAssignCommand, error) {
	cmd := ForceAutoAssignCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		caller.Require(kernel.RoleManager, "force auto assignment"),
	); err != nil {
		return ForceAutoAssignCommand{}, err
	}

	cmd.orderID = orderID
	cmd.caller = caller
	return cmd, nil
}

func (c ForceAutoAssignCommand) Validate() error {
	return c.guard.Validate(ErrForceAutoAssignCommandIsNotConstructed)
}

func (c ForceAutoAssignCommand) OrderID() kernel.UUID {
	return c.orderID
}
